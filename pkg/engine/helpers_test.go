package engine

import (
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/swapool-hq/swapool/pkg/custody"
	"github.com/swapool-hq/swapool/pkg/engine/mocks"
	"github.com/swapool-hq/swapool/pkg/logger"
)

var (
	admin       = common.HexToAddress("0xAd111111111111111111111111111111111111d1")
	custodyAddr = common.HexToAddress("0xC0de000000000000000000000000000000000001")
	venueAddr   = common.HexToAddress("0xFacade0000000000000000000000000000000001")
	alice       = common.HexToAddress("0xA11ce00000000000000000000000000000000001")
	bob         = common.HexToAddress("0xB0b0000000000000000000000000000000000001")
	carol       = common.HexToAddress("0xCa201000000000000000000000000000000000c1")
	tokenX      = common.HexToAddress("0x7000000000000000000000000000000000000010")
	tokenY      = common.HexToAddress("0x7000000000000000000000000000000000000020")
)

// fakeClock lets tests move engine time deterministically
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	engine   *Engine
	bank     *custody.MemoryBank
	vault    *custody.MemoryVault
	boundary *mocks.ScriptedBoundary
	clock    *fakeClock
}

type fixtureOpt func(*Params)

func withMaxParticipants(n int) fixtureOpt {
	return func(p *Params) { p.MaxParticipants = n }
}

func withGracePeriod(d time.Duration) fixtureOpt {
	return func(p *Params) { p.GracePeriod = d }
}

func newFixture(t *testing.T, opts ...fixtureOpt) *fixture {
	t.Helper()

	clock := newFakeClock()
	bank := custody.NewMemoryBank()
	vault := custody.NewMemoryVault()

	params := Params{
		Admin:          admin,
		CustodyAddress: custodyAddr,
		Clock:          clock.Now,
	}
	for _, opt := range opts {
		opt(&params)
	}

	eng := New(params, bank, vault, &logger.EmptyLogger{})

	boundary := &mocks.ScriptedBoundary{Realized: big.NewInt(150)}
	eng.RegisterBoundary(venueAddr, boundary)
	require.NoError(t, eng.SetVenueAllowed(admin, venueAddr, true))

	return &fixture{
		engine:   eng,
		bank:     bank,
		vault:    vault,
		boundary: boundary,
		clock:    clock,
	}
}

// newFundedIntent creates an open intent for tokenX -> tokenY with the
// policy commitment bound to the default venue and mints alice and bob
// enough transparent input to contribute.
func (f *fixture) newFundedIntent(t *testing.T, minOut int64) common.Hash {
	t.Helper()

	f.bank.Mint(tokenX, alice, big.NewInt(1_000_000))
	f.bank.Mint(tokenX, bob, big.NewInt(1_000_000))
	f.bank.Mint(tokenX, carol, big.NewInt(1_000_000))

	id, err := f.engine.CreateIntent(
		tokenX, tokenY,
		big.NewInt(minOut),
		f.clock.Now().Add(time.Hour),
		PolicyCommitmentFor(venueAddr),
	)
	require.NoError(t, err)
	return id
}

func (f *fixture) contribute(t *testing.T, id common.Hash, p common.Address, amount int64) {
	t.Helper()
	require.NoError(t, f.engine.Contribute(t.Context(), p, id, big.NewInt(amount)))
}
