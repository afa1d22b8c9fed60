package engine

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/swapool-hq/swapool/pkg/custody"
	"github.com/swapool-hq/swapool/pkg/logger"
	"github.com/swapool-hq/swapool/pkg/metrics"
	"github.com/swapool-hq/swapool/pkg/models"
)

// Execute settles an open intent exactly once: the pooled input is handed to
// the nominated venue, the realized output is checked against the intent
// minimum, the intent is flipped to its terminal state, and the output is
// distributed pro-rata. The caller supplies the trade instruction; price and
// slippage are ultimately enforced by the realized-output comparison.
func (e *Engine) Execute(ctx context.Context, caller common.Address, id common.Hash, venue common.Address, instruction []byte, expectedMinOut *big.Int) (*big.Int, error) {
	start := time.Now()
	realized, err := e.execute(ctx, caller, id, venue, instruction, expectedMinOut)
	metrics.ExecutionTime.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.IntentsExecuted.WithLabelValues("failed").Inc()
		metrics.ExecutionErrors.WithLabelValues(ClassifyError(err)).Inc()
		return nil, err
	}
	metrics.IntentsExecuted.WithLabelValues("success").Inc()
	return realized, nil
}

func (e *Engine) execute(ctx context.Context, caller common.Address, id common.Hash, venue common.Address, instruction []byte, expectedMinOut *big.Int) (*big.Int, error) {
	rec, err := e.intent(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.executed {
		return nil, ErrAlreadyExecuted
	}
	if e.now().After(rec.deadline) {
		metrics.ExpiredAtExecute.Inc()
		e.logger.NoticeWithScope(logger.Exec, "intent %s expired before execution, awaiting cleanup", id.Hex())
		return nil, ErrIntentExpired
	}
	if rec.total.Sign() == 0 {
		return nil, ErrInsufficientPool
	}

	boundary, ok := e.venueBoundary(venue)
	if !ok {
		return nil, ErrVenueNotAllowed
	}

	// Coarse policy gate: the instruction must exist and the nominated
	// venue must match the commitment. Instruction bytes stay opaque here.
	if len(instruction) == 0 || PolicyCommitmentFor(venue) != rec.policyCommitment {
		return nil, ErrPolicyViolation
	}

	if expectedMinOut == nil {
		expectedMinOut = rec.minOutput
	}

	inPath := e.resolver.Classify(ctx, rec.inputToken)
	if inPath == custody.PathTransparent {
		// The venue may pull exactly the pooled total, no more.
		if err := e.bank.Approve(ctx, rec.inputToken, e.custodyAddr, venue, rec.total); err != nil {
			return nil, fmt.Errorf("%w: input approval: %v", ErrExecutionFailed, err)
		}
	}

	realized, err := boundary.Swap(ctx, rec.inputToken, rec.outputToken, new(big.Int).Set(rec.total), expectedMinOut, instruction)
	if err != nil {
		e.revokeApproval(ctx, inPath, rec.inputToken, venue)
		return nil, fmt.Errorf("%w: %v", ErrExecutionFailed, err)
	}
	if realized == nil {
		e.revokeApproval(ctx, inPath, rec.inputToken, venue)
		return nil, fmt.Errorf("%w: venue returned no output amount", ErrExecutionFailed)
	}
	if realized.Cmp(rec.minOutput) < 0 {
		e.revokeApproval(ctx, inPath, rec.inputToken, venue)
		return nil, ErrBelowMinimum
	}

	// Terminal state flips before any distribution credit, so a reentrant
	// or repeated call can never execute the same intent twice.
	rec.executed = true
	metrics.OpenIntents.Dec()

	outPath := e.resolver.Classify(ctx, rec.outputToken)
	distributed := e.distribute(ctx, rec, realized, outPath)

	dust := new(big.Int).Sub(realized, distributed)
	if dust.Sign() > 0 {
		// Floor-rounding remainder stays unassigned. Documented policy,
		// tracked but never redistributed.
		dustFloat, _ := new(big.Float).SetInt(dust).Float64()
		metrics.DistributionDust.Add(dustFloat)
	}

	record := models.SettlementRecord{
		IntentID:       id,
		Venue:          venue,
		TotalInput:     new(big.Int).Set(rec.total),
		RealizedOutput: new(big.Int).Set(realized),
		Distributed:    distributed,
		Dust:           dust,
		Participants:   len(rec.participants),
		Timestamp:      e.now(),
	}
	e.logger.NoticeWithScope(logger.Exec, "intent %s settled by %s: in=%s out=%s distributed=%s dust=%s participants=%d",
		record.IntentID.Hex(), caller.Hex(), record.TotalInput.String(), record.RealizedOutput.String(),
		record.Distributed.String(), record.Dust.String(), record.Participants)

	return new(big.Int).Set(realized), nil
}

// distribute credits each participant floor(realized * contribution / total)
// of the output token. Caller holds rec.mu and has already marked the intent
// executed. A rejected credit is logged and skipped; the undistributed share
// stays in engine custody for operational recovery.
func (e *Engine) distribute(ctx context.Context, rec *intentRecord, realized *big.Int, outPath custody.Path) *big.Int {
	distributed := new(big.Int)

	for _, p := range rec.participants {
		share := new(big.Int).Mul(realized, rec.contributions[p])
		share.Div(share, rec.total)
		if share.Sign() == 0 {
			continue
		}

		var err error
		switch outPath {
		case custody.PathTransparent:
			err = e.bank.Transfer(ctx, rec.outputToken, e.custodyAddr, p, share)
		case custody.PathConfidential:
			err = e.vault.Credit(ctx, p, rec.outputToken, share, blindingFor(rec.id, p, rec.outputToken))
		}
		if err != nil {
			metrics.DistributionCreditFailures.WithLabelValues(outPath.String()).Inc()
			e.logger.ErrorWithScope(logger.Exec, "credit failed for participant %s on intent %s, share %s held in custody: %v",
				p.Hex(), rec.id.Hex(), share.String(), err)
			continue
		}

		distributed.Add(distributed, share)
		metrics.SharesDistributed.WithLabelValues(outPath.String()).Inc()
		e.logger.DebugWithScope(logger.Exec, "credited %s of %s to %s (path=%s)",
			share.String(), rec.outputToken.Hex(), p.Hex(), outPath)
	}

	return distributed
}

// revokeApproval zeroes a venue allowance granted before a failed boundary
// call, so a non-compliant venue cannot pull the pooled input later.
func (e *Engine) revokeApproval(ctx context.Context, path custody.Path, token, venue common.Address) {
	if path != custody.PathTransparent {
		return
	}
	if err := e.bank.Approve(ctx, token, e.custodyAddr, venue, new(big.Int)); err != nil {
		e.logger.ErrorWithScope(logger.Exec, "failed to revoke approval for venue %s on token %s: %v",
			venue.Hex(), token.Hex(), err)
	}
}
