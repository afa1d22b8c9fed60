// Package engine implements the pooled-swap escrow and settlement engine:
// intents are created, funded by independent contributors, executed once
// against an allow-listed venue, and the proceeds distributed pro-rata over
// each token's custody path.
package engine

import (
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/swapool-hq/swapool/pkg/custody"
	"github.com/swapool-hq/swapool/pkg/logger"
)

const (
	// DefaultMaxDeadlineHorizon bounds how far in the future an intent
	// deadline may lie, so funds cannot be locked up indefinitely.
	DefaultMaxDeadlineHorizon = 30 * 24 * time.Hour

	// DefaultGracePeriod is how long after the deadline an expired intent
	// must wait before it can be reclaimed.
	DefaultGracePeriod = 24 * time.Hour

	// DefaultMaxParticipants caps the participant list per intent, keeping
	// distribution cost bounded.
	DefaultMaxParticipants = 100
)

// Params configures a new engine.
type Params struct {
	// Admin is the only identity allowed to manage the venue allow-list.
	Admin common.Address

	// CustodyAddress is the account holding pooled transparent balances.
	CustodyAddress common.Address

	MaxDeadlineHorizon time.Duration
	GracePeriod        time.Duration
	MaxParticipants    int

	// Clock overrides time.Now, used by tests and the sweeper.
	Clock func() time.Time
}

// intentRecord is the single owner of all mutable per-intent state. Its
// mutex is held across every mutating operation on the intent.
type intentRecord struct {
	mu sync.Mutex

	id               common.Hash
	inputToken       common.Address
	outputToken      common.Address
	minOutput        *big.Int
	deadline         time.Time
	policyCommitment common.Hash
	createdAt        time.Time

	total         *big.Int
	participants  []common.Address
	contributions map[common.Address]*big.Int
	executed      bool
}

// Engine owns the intent store, the venue allow-list and the custody
// collaborators.
type Engine struct {
	mu      sync.RWMutex
	intents map[common.Hash]*intentRecord

	venueMu    sync.RWMutex
	allowed    map[common.Address]bool
	boundaries map[common.Address]custody.SwapBoundary

	admin       common.Address
	custodyAddr common.Address
	maxHorizon  time.Duration
	grace       time.Duration
	maxParts    int

	bank     custody.TransparentLedger
	vault    custody.ConfidentialVault
	resolver *custody.Resolver

	logger logger.Logger
	now    func() time.Time
	seq    atomic.Uint64
}

// New creates an engine over the given custody collaborators. The vault may
// be nil, in which case every token resolves to the transparent path.
func New(p Params, bank custody.TransparentLedger, vault custody.ConfidentialVault, log logger.Logger) *Engine {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	if p.MaxDeadlineHorizon == 0 {
		p.MaxDeadlineHorizon = DefaultMaxDeadlineHorizon
	}
	if p.GracePeriod == 0 {
		p.GracePeriod = DefaultGracePeriod
	}
	if p.MaxParticipants == 0 {
		p.MaxParticipants = DefaultMaxParticipants
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}

	return &Engine{
		intents:     make(map[common.Hash]*intentRecord),
		allowed:     make(map[common.Address]bool),
		boundaries:  make(map[common.Address]custody.SwapBoundary),
		admin:       p.Admin,
		custodyAddr: p.CustodyAddress,
		maxHorizon:  p.MaxDeadlineHorizon,
		grace:       p.GracePeriod,
		maxParts:    p.MaxParticipants,
		bank:        bank,
		vault:       vault,
		resolver:    custody.NewResolver(vault, log),
		logger:      log,
		now:         p.Clock,
	}
}

// RegisterBoundary binds a swap boundary implementation to a venue
// identifier. Wiring-time call; the venue still needs to be allow-listed
// before it can execute.
func (e *Engine) RegisterBoundary(venue common.Address, boundary custody.SwapBoundary) {
	e.venueMu.Lock()
	defer e.venueMu.Unlock()
	e.boundaries[venue] = boundary
}

// SetVenueAllowed toggles a venue on the execution allow-list. Restricted to
// the administrator.
func (e *Engine) SetVenueAllowed(caller, venue common.Address, allowed bool) error {
	if caller != e.admin {
		return ErrNotAdmin
	}

	e.venueMu.Lock()
	e.allowed[venue] = allowed
	e.venueMu.Unlock()

	e.logger.NoticeWithScope(logger.Exec, "venue %s allowed=%v", venue.Hex(), allowed)
	return nil
}

// VenueAllowed reports whether the venue may execute intents.
func (e *Engine) VenueAllowed(venue common.Address) bool {
	e.venueMu.RLock()
	defer e.venueMu.RUnlock()
	return e.allowed[venue]
}

func (e *Engine) venueBoundary(venue common.Address) (custody.SwapBoundary, bool) {
	e.venueMu.RLock()
	defer e.venueMu.RUnlock()
	if !e.allowed[venue] {
		return nil, false
	}
	boundary, ok := e.boundaries[venue]
	return boundary, ok
}

func (e *Engine) intent(id common.Hash) (*intentRecord, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	return rec, nil
}

// blindingFor derives the blinding material handed to the vault so it can
// re-derive the value commitment for a (intent, participant, token) triple.
func blindingFor(id common.Hash, participant, token common.Address) common.Hash {
	return crypto.Keccak256Hash(id.Bytes(), participant.Bytes(), token.Bytes())
}

// PolicyCommitmentFor returns the commitment binding an intent to a single
// allowed execution venue. Creators compute this client-side; it is exposed
// here so tests and the API agree on the scheme.
func PolicyCommitmentFor(venue common.Address) common.Hash {
	return crypto.Keccak256Hash(venue.Bytes())
}
