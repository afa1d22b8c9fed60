package engine

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/swapool-hq/swapool/pkg/logger"
	"github.com/swapool-hq/swapool/pkg/metrics"
	"github.com/swapool-hq/swapool/pkg/models"
)

// CreateIntent registers a new pooled swap intent in the open state and
// returns its identifier. No funds move.
func (e *Engine) CreateIntent(inputToken, outputToken common.Address, minOutput *big.Int, deadline time.Time, policyCommitment common.Hash) (common.Hash, error) {
	if inputToken == (common.Address{}) || outputToken == (common.Address{}) {
		return common.Hash{}, fmt.Errorf("%w: zero token address", ErrInvalidParameters)
	}
	if minOutput == nil || minOutput.Sign() < 0 {
		return common.Hash{}, fmt.Errorf("%w: minimum output must be non-negative", ErrInvalidParameters)
	}

	now := e.now()
	if !deadline.After(now) {
		return common.Hash{}, fmt.Errorf("%w: deadline must be in the future", ErrInvalidParameters)
	}
	if deadline.After(now.Add(e.maxHorizon)) {
		return common.Hash{}, fmt.Errorf("%w: deadline beyond maximum horizon of %v", ErrInvalidParameters, e.maxHorizon)
	}

	id := e.newIntentID(inputToken, outputToken, minOutput, deadline, policyCommitment, now)

	rec := &intentRecord{
		id:               id,
		inputToken:       inputToken,
		outputToken:      outputToken,
		minOutput:        new(big.Int).Set(minOutput),
		deadline:         deadline,
		policyCommitment: policyCommitment,
		createdAt:        now,
		total:            new(big.Int),
		contributions:    make(map[common.Address]*big.Int),
	}

	e.mu.Lock()
	e.intents[id] = rec
	e.mu.Unlock()

	metrics.IntentsCreated.Inc()
	metrics.OpenIntents.Inc()
	e.logger.InfoWithScope(logger.Registry, "intent %s created: in=%s out=%s minOut=%s deadline=%s",
		id.Hex(), inputToken.Hex(), outputToken.Hex(), minOutput.String(), deadline.Format(time.RFC3339))

	return id, nil
}

// newIntentID derives a fresh identifier from the intent's defining
// parameters plus a sequence number and the creation time, so identical
// parameters never collide or replay under the same identifier.
func (e *Engine) newIntentID(inputToken, outputToken common.Address, minOutput *big.Int, deadline time.Time, policy common.Hash, now time.Time) common.Hash {
	var fresh [24]byte
	binary.BigEndian.PutUint64(fresh[0:8], e.seq.Add(1))
	binary.BigEndian.PutUint64(fresh[8:16], uint64(now.UnixNano()))
	binary.BigEndian.PutUint64(fresh[16:24], uint64(deadline.Unix()))

	return crypto.Keccak256Hash(
		inputToken.Bytes(),
		outputToken.Bytes(),
		common.BigToHash(minOutput).Bytes(),
		policy.Bytes(),
		fresh[:],
	)
}

// GetIntent returns a snapshot of the intent.
func (e *Engine) GetIntent(id common.Hash) (*models.Intent, error) {
	rec, err := e.intent(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.snapshot(), nil
}

// GetContribution returns the amount contributed by the participant. A known
// intent with an unknown participant yields zero, not an error.
func (e *Engine) GetContribution(id common.Hash, participant common.Address) (*big.Int, error) {
	rec, err := e.intent(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if amount, ok := rec.contributions[participant]; ok {
		return new(big.Int).Set(amount), nil
	}
	return new(big.Int), nil
}

// GetParticipants returns the intent's participant list in distribution
// order.
func (e *Engine) GetParticipants(id common.Hash) ([]common.Address, error) {
	rec, err := e.intent(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]common.Address, len(rec.participants))
	copy(out, rec.participants)
	return out, nil
}

// IntentCount returns the number of intents currently tracked.
func (e *Engine) IntentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.intents)
}

// ExpiredIntents lists intents whose grace period has elapsed without
// execution. Used by the sweeper; any caller may clean these up.
func (e *Engine) ExpiredIntents() []common.Hash {
	now := e.now()

	// Snapshot the record pointers first. Record locks are never taken
	// while holding the map lock: cleanup holds a record lock when it takes
	// the map lock to delete, so the reverse order would deadlock.
	e.mu.RLock()
	recs := make([]*intentRecord, 0, len(e.intents))
	for _, rec := range e.intents {
		recs = append(recs, rec)
	}
	e.mu.RUnlock()

	var expired []common.Hash
	for _, rec := range recs {
		rec.mu.Lock()
		reclaimable := !rec.executed && now.After(rec.deadline.Add(e.grace))
		id := rec.id
		rec.mu.Unlock()
		if reclaimable {
			expired = append(expired, id)
		}
	}
	return expired
}

// snapshot copies the record into a read-only model. Caller holds rec.mu.
func (r *intentRecord) snapshot() *models.Intent {
	state := models.IntentStateOpen
	if r.executed {
		state = models.IntentStateExecuted
	}

	participants := make([]common.Address, len(r.participants))
	copy(participants, r.participants)

	contributions := make(map[common.Address]*big.Int, len(r.contributions))
	for p, amount := range r.contributions {
		contributions[p] = new(big.Int).Set(amount)
	}

	return &models.Intent{
		ID:               r.id,
		InputToken:       r.inputToken,
		OutputToken:      r.outputToken,
		MinOutput:        new(big.Int).Set(r.minOutput),
		Deadline:         r.deadline,
		PolicyCommitment: r.policyCommitment,
		Total:            new(big.Int).Set(r.total),
		Participants:     participants,
		Contributions:    contributions,
		State:            state,
		CreatedAt:        r.createdAt,
	}
}
