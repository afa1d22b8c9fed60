package custody

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryBank is an in-process TransparentLedger keeping visible balances and
// allowances per token. It backs local runs and tests; production
// deployments use the EVM-backed ledger instead.
type MemoryBank struct {
	mu         sync.Mutex
	balances   map[common.Address]map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]map[common.Address]*big.Int
}

// NewMemoryBank creates an empty in-memory bank.
func NewMemoryBank() *MemoryBank {
	return &MemoryBank{
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits amount of token to an account out of thin air.
func (b *MemoryBank) Mint(token, account common.Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.balanceRef(token, account).Add(b.balanceRef(token, account), amount)
}

// BalanceOf returns the visible balance of the account for the token.
func (b *MemoryBank) BalanceOf(token, account common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.balanceRef(token, account))
}

// Allowance returns how much spender may still pull from owner for the token.
func (b *MemoryBank) Allowance(token, owner, spender common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return new(big.Int).Set(b.allowanceRef(token, owner, spender))
}

// Transfer moves amount of token from one account to another. It fails
// without moving anything when the sender balance is insufficient.
func (b *MemoryBank) Transfer(_ context.Context, token, from, to common.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	fromBal := b.balanceRef(token, from)
	if fromBal.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient balance: %s has %s of %s, need %s",
			from.Hex(), fromBal.String(), token.Hex(), amount.String())
	}

	fromBal.Sub(fromBal, amount)
	toBal := b.balanceRef(token, to)
	toBal.Add(toBal, amount)
	return nil
}

// Approve sets the exact allowance from owner to spender for the token.
func (b *MemoryBank) Approve(_ context.Context, token, owner, spender common.Address, amount *big.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowanceRef(token, owner, spender).Set(amount)
	return nil
}

func (b *MemoryBank) balanceRef(token, account common.Address) *big.Int {
	if b.balances[token] == nil {
		b.balances[token] = make(map[common.Address]*big.Int)
	}
	if b.balances[token][account] == nil {
		b.balances[token][account] = new(big.Int)
	}
	return b.balances[token][account]
}

func (b *MemoryBank) allowanceRef(token, owner, spender common.Address) *big.Int {
	if b.allowances[token] == nil {
		b.allowances[token] = make(map[common.Address]map[common.Address]*big.Int)
	}
	if b.allowances[token][owner] == nil {
		b.allowances[token][owner] = make(map[common.Address]*big.Int)
	}
	if b.allowances[token][owner][spender] == nil {
		b.allowances[token][owner][spender] = new(big.Int)
	}
	return b.allowances[token][owner][spender]
}

var _ TransparentLedger = (*MemoryBank)(nil)

// MemoryVault is an in-process ConfidentialVault. Balances are held in the
// clear; a real vault stores ciphertexts and verifies the blinding material
// against the value commitment. The commitments recorded here let tests
// assert the engine derives them consistently on debit and credit.
type MemoryVault struct {
	mu         sync.Mutex
	registered map[common.Address]bool
	balances   map[common.Address]map[common.Address]*big.Int
	Blindings  map[common.Hash]int
}

// NewMemoryVault creates an empty in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		registered: make(map[common.Address]bool),
		balances:   make(map[common.Address]map[common.Address]*big.Int),
		Blindings:  make(map[common.Hash]int),
	}
}

// Register marks the token as managed under confidential custody.
func (v *MemoryVault) Register(token common.Address) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.registered[token] = true
}

// Deposit credits amount of token to the participant, bypassing the
// privileged debit/credit surface. Test setup only.
func (v *MemoryVault) Deposit(participant, token common.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balanceRef(participant, token).Add(v.balanceRef(participant, token), amount)
}

// BalanceOf returns the participant's balance for the token.
func (v *MemoryVault) BalanceOf(participant, token common.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return new(big.Int).Set(v.balanceRef(participant, token))
}

// IsConfidential reports whether the token was registered with the vault.
func (v *MemoryVault) IsConfidential(_ context.Context, token common.Address) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.registered[token], nil
}

// Debit decreases the participant's balance for the token.
func (v *MemoryVault) Debit(_ context.Context, participant, token common.Address, amount *big.Int, blinding common.Hash) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.registered[token] {
		return fmt.Errorf("token %s not registered with vault", token.Hex())
	}
	bal := v.balanceRef(participant, token)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient encrypted balance for %s", participant.Hex())
	}
	bal.Sub(bal, amount)
	v.Blindings[blinding]++
	return nil
}

// Credit increases the participant's balance for the token.
func (v *MemoryVault) Credit(_ context.Context, participant, token common.Address, amount *big.Int, blinding common.Hash) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.registered[token] {
		return fmt.Errorf("token %s not registered with vault", token.Hex())
	}
	v.balanceRef(participant, token).Add(v.balanceRef(participant, token), amount)
	v.Blindings[blinding]++
	return nil
}

func (v *MemoryVault) balanceRef(participant, token common.Address) *big.Int {
	if v.balances[participant] == nil {
		v.balances[participant] = make(map[common.Address]*big.Int)
	}
	if v.balances[participant][token] == nil {
		v.balances[participant][token] = new(big.Int)
	}
	return v.balances[participant][token]
}

var _ ConfidentialVault = (*MemoryVault)(nil)
