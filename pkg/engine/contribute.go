package engine

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/swapool-hq/swapool/pkg/custody"
	"github.com/swapool-hq/swapool/pkg/logger"
	"github.com/swapool-hq/swapool/pkg/metrics"
	"github.com/swapool-hq/swapool/pkg/models"
)

// Contribute deposits amount of the intent's input token from the caller
// into pooled custody. Repeat contributions from the same participant are
// additive. The custody transfer happens before any ledger mutation, so a
// failed transfer leaves the intent untouched.
func (e *Engine) Contribute(ctx context.Context, caller common.Address, id common.Hash, amount *big.Int) error {
	err := e.contribute(ctx, caller, id, amount)
	if err != nil {
		metrics.ContributionErrors.WithLabelValues(ClassifyError(err)).Inc()
	}
	return err
}

func (e *Engine) contribute(ctx context.Context, caller common.Address, id common.Hash, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	rec, err := e.intent(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.executed {
		return ErrAlreadyExecuted
	}
	if e.now().After(rec.deadline) {
		return ErrIntentExpired
	}

	_, known := rec.contributions[caller]
	if !known && len(rec.participants) >= e.maxParts {
		return ErrTooManyParticipants
	}

	path := e.resolver.Classify(ctx, rec.inputToken)
	switch path {
	case custody.PathTransparent:
		if err := e.bank.Transfer(ctx, rec.inputToken, caller, e.custodyAddr, amount); err != nil {
			return fmt.Errorf("input transfer failed: %w", err)
		}
	case custody.PathConfidential:
		blinding := blindingFor(id, caller, rec.inputToken)
		if err := e.vault.Debit(ctx, caller, rec.inputToken, amount, blinding); err != nil {
			return fmt.Errorf("confidential debit failed: %w", err)
		}
	}

	if !known {
		rec.participants = append(rec.participants, caller)
		rec.contributions[caller] = new(big.Int)
	}
	rec.contributions[caller].Add(rec.contributions[caller], amount)
	rec.total.Add(rec.total, amount)

	record := models.ContributionRecord{
		IntentID:    id,
		Participant: caller,
		Amount:      new(big.Int).Set(amount),
		Path:        path.String(),
		Timestamp:   e.now(),
	}
	metrics.Contributions.WithLabelValues(path.String()).Inc()
	e.logger.InfoWithScope(logger.Ledger, "contribution accepted: intent=%s participant=%s amount=%s path=%s total=%s",
		record.IntentID.Hex(), record.Participant.Hex(), record.Amount.String(), record.Path, rec.total.String())

	return nil
}
