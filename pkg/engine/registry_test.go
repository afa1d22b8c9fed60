package engine

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIntentValidation(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	tests := []struct {
		name        string
		inputToken  common.Address
		outputToken common.Address
		minOutput   *big.Int
		deadline    time.Time
	}{
		{
			name:        "zero input token",
			inputToken:  common.Address{},
			outputToken: tokenY,
			minOutput:   big.NewInt(100),
			deadline:    now.Add(time.Hour),
		},
		{
			name:        "zero output token",
			inputToken:  tokenX,
			outputToken: common.Address{},
			minOutput:   big.NewInt(100),
			deadline:    now.Add(time.Hour),
		},
		{
			name:        "nil minimum output",
			inputToken:  tokenX,
			outputToken: tokenY,
			minOutput:   nil,
			deadline:    now.Add(time.Hour),
		},
		{
			name:        "negative minimum output",
			inputToken:  tokenX,
			outputToken: tokenY,
			minOutput:   big.NewInt(-1),
			deadline:    now.Add(time.Hour),
		},
		{
			name:        "deadline in the past",
			inputToken:  tokenX,
			outputToken: tokenY,
			minOutput:   big.NewInt(100),
			deadline:    now.Add(-time.Minute),
		},
		{
			name:        "deadline exactly now",
			inputToken:  tokenX,
			outputToken: tokenY,
			minOutput:   big.NewInt(100),
			deadline:    now,
		},
		{
			name:        "deadline beyond maximum horizon",
			inputToken:  tokenX,
			outputToken: tokenY,
			minOutput:   big.NewInt(100),
			deadline:    now.Add(DefaultMaxDeadlineHorizon + time.Hour),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.CreateIntent(tc.inputToken, tc.outputToken, tc.minOutput, tc.deadline, PolicyCommitmentFor(venueAddr))
			assert.ErrorIs(t, err, ErrInvalidParameters)
		})
	}
}

func TestCreateIntentUniqueIDs(t *testing.T) {
	f := newFixture(t)

	// Identical parameters must still yield distinct identifiers.
	seen := make(map[common.Hash]bool)
	for i := 0; i < 10; i++ {
		id, err := f.engine.CreateIntent(tokenX, tokenY, big.NewInt(100), f.clock.Now().Add(time.Hour), PolicyCommitmentFor(venueAddr))
		require.NoError(t, err)
		assert.False(t, seen[id], "intent ID collision: %s", id.Hex())
		seen[id] = true
	}
}

func TestGetIntent(t *testing.T) {
	f := newFixture(t)
	id := f.newFundedIntent(t, 100)

	intent, err := f.engine.GetIntent(id)
	require.NoError(t, err)
	assert.Equal(t, id, intent.ID)
	assert.Equal(t, tokenX, intent.InputToken)
	assert.Equal(t, tokenY, intent.OutputToken)
	assert.Equal(t, int64(100), intent.MinOutput.Int64())
	assert.Equal(t, int64(0), intent.Total.Int64())
	assert.Empty(t, intent.Participants)

	_, err = f.engine.GetIntent(common.HexToHash("0xdead"))
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestGetIntentSnapshotIsolation(t *testing.T) {
	f := newFixture(t)
	id := f.newFundedIntent(t, 100)
	f.contribute(t, id, alice, 60)

	// Mutating the snapshot must not leak into engine state.
	intent, err := f.engine.GetIntent(id)
	require.NoError(t, err)
	intent.Total.SetInt64(999)
	intent.Contributions[alice].SetInt64(999)

	fresh, err := f.engine.GetIntent(id)
	require.NoError(t, err)
	assert.Equal(t, int64(60), fresh.Total.Int64())
	assert.Equal(t, int64(60), fresh.Contributions[alice].Int64())
}

func TestGetContribution(t *testing.T) {
	f := newFixture(t)
	id := f.newFundedIntent(t, 100)
	f.contribute(t, id, alice, 60)

	amount, err := f.engine.GetContribution(id, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(60), amount.Int64())

	// Known intent, unknown participant: zero, not an error.
	amount, err = f.engine.GetContribution(id, bob)
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount.Int64())

	// Unknown intent: error.
	_, err = f.engine.GetContribution(common.HexToHash("0xbeef"), alice)
	assert.ErrorIs(t, err, ErrIntentNotFound)
}

func TestGetParticipantsOrder(t *testing.T) {
	f := newFixture(t)
	id := f.newFundedIntent(t, 100)
	f.contribute(t, id, bob, 10)
	f.contribute(t, id, alice, 20)
	f.contribute(t, id, bob, 5) // repeat contribution must not duplicate

	participants, err := f.engine.GetParticipants(id)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{bob, alice}, participants)
}

func TestExpiredIntents(t *testing.T) {
	f := newFixture(t)
	reclaimable := f.newFundedIntent(t, 100)
	fresh, err := f.engine.CreateIntent(tokenX, tokenY, big.NewInt(1), f.clock.Now().Add(DefaultMaxDeadlineHorizon-time.Hour), PolicyCommitmentFor(venueAddr))
	require.NoError(t, err)

	assert.Empty(t, f.engine.ExpiredIntents())

	f.clock.Advance(time.Hour + DefaultGracePeriod + time.Minute)

	expired := f.engine.ExpiredIntents()
	assert.Equal(t, []common.Hash{reclaimable}, expired)
	assert.NotContains(t, expired, fresh)
}
