package engine

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/swapool-hq/swapool/pkg/custody"
	"github.com/swapool-hq/swapool/pkg/logger"
	"github.com/swapool-hq/swapool/pkg/metrics"
)

// CleanupExpired reclaims an intent that passed its deadline plus grace
// period without executing: every participant gets their contribution back
// over the input-token custody path, then the intent is deleted. Callable by
// anyone. Execute and cleanup are mutually exclusive terminal transitions.
func (e *Engine) CleanupExpired(ctx context.Context, id common.Hash) error {
	err := e.cleanupExpired(ctx, id)
	if err != nil {
		metrics.CleanupErrors.WithLabelValues(ClassifyError(err)).Inc()
	}
	return err
}

func (e *Engine) cleanupExpired(ctx context.Context, id common.Hash) error {
	rec, err := e.intent(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.executed {
		return ErrAlreadyExecuted
	}
	if !e.now().After(rec.deadline.Add(e.grace)) {
		return ErrNotYetExpired
	}

	path := e.resolver.Classify(ctx, rec.inputToken)

	// Each refunded contribution is zeroed as it completes, so a retry
	// after a mid-refund custody failure resumes with the remaining
	// participants instead of paying anyone twice.
	for _, p := range rec.participants {
		amount := rec.contributions[p]
		if amount.Sign() == 0 {
			continue
		}

		switch path {
		case custody.PathTransparent:
			err = e.bank.Transfer(ctx, rec.inputToken, e.custodyAddr, p, amount)
		case custody.PathConfidential:
			err = e.vault.Credit(ctx, p, rec.inputToken, amount, blindingFor(id, p, rec.inputToken))
		}
		if err != nil {
			return fmt.Errorf("refund failed for participant %s: %w", p.Hex(), err)
		}

		e.logger.DebugWithScope(logger.Cleanup, "refunded %s of %s to %s (intent=%s)",
			amount.String(), rec.inputToken.Hex(), p.Hex(), id.Hex())
		rec.total.Sub(rec.total, amount)
		amount.SetInt64(0)
	}

	e.mu.Lock()
	delete(e.intents, id)
	e.mu.Unlock()

	metrics.IntentsCleaned.Inc()
	metrics.OpenIntents.Dec()
	e.logger.InfoWithScope(logger.Cleanup, "intent %s reclaimed after expiry", id.Hex())
	return nil
}
