// Package custody defines the two value-transfer paths used by the pool
// engine and the external collaborators that back them.
package custody

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Path selects how value moves for a given token.
type Path int

const (
	// PathTransparent moves value with a direct, visible balance transfer.
	PathTransparent Path = iota
	// PathConfidential moves value with encrypted debits and credits
	// through the confidential vault.
	PathConfidential
)

func (p Path) String() string {
	if p == PathConfidential {
		return "confidential"
	}
	return "transparent"
}

// TransparentLedger moves visible token balances between accounts.
// Implementations must be atomic: a returned error means no balance moved.
type TransparentLedger interface {
	// Transfer moves amount of token from one account to another.
	Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error

	// Approve authorizes spender to pull up to amount of token from owner.
	Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error
}

// ConfidentialVault is the external ledger holding encrypted per-user,
// per-token balances. Debit and Credit are privileged calls reserved for the
// engine; the blinding material lets the vault re-derive the value
// commitment without revealing the amount to observers.
type ConfidentialVault interface {
	// IsConfidential reports whether the token is registered under
	// confidential custody.
	IsConfidential(ctx context.Context, token common.Address) (bool, error)

	// Debit decreases the participant's encrypted balance.
	Debit(ctx context.Context, participant, token common.Address, amount *big.Int, blinding common.Hash) error

	// Credit increases the participant's encrypted balance.
	Credit(ctx context.Context, participant, token common.Address, amount *big.Int, blinding common.Hash) error
}

// SwapBoundary executes a pre-built trade instruction against an external
// liquidity venue and reports the realized output. The boundary is expected
// to already hold or be pre-authorized for amountIn. Failure must surface as
// an error, never as a silent zero return.
type SwapBoundary interface {
	Swap(ctx context.Context, inputToken, outputToken common.Address, amountIn, minAmountOut *big.Int, instruction []byte) (*big.Int, error)
}
