// Package mocks provides scripted collaborator doubles for engine tests.
package mocks

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/swapool-hq/swapool/pkg/custody"
)

// SwapCall records the arguments of a boundary invocation.
type SwapCall struct {
	InputToken   common.Address
	OutputToken  common.Address
	AmountIn     *big.Int
	MinAmountOut *big.Int
	Instruction  []byte
}

// ScriptedBoundary is a SwapBoundary that reports a fixed realized output or
// a fixed error, recording every call.
type ScriptedBoundary struct {
	mu       sync.Mutex
	Realized *big.Int
	Err      error
	Calls    []SwapCall

	// Bank and Custody, when set, make the boundary actually move
	// transparent funds: it pulls the input from custody and credits the
	// realized output back, like a real venue adapter would.
	Bank    *custody.MemoryBank
	Custody common.Address
	Venue   common.Address
}

var _ custody.SwapBoundary = (*ScriptedBoundary)(nil)

// Swap records the call and returns the scripted result.
func (b *ScriptedBoundary) Swap(ctx context.Context, inputToken, outputToken common.Address, amountIn, minAmountOut *big.Int, instruction []byte) (*big.Int, error) {
	b.mu.Lock()
	b.Calls = append(b.Calls, SwapCall{
		InputToken:   inputToken,
		OutputToken:  outputToken,
		AmountIn:     new(big.Int).Set(amountIn),
		MinAmountOut: new(big.Int).Set(minAmountOut),
		Instruction:  append([]byte(nil), instruction...),
	})
	b.mu.Unlock()

	if b.Err != nil {
		return nil, b.Err
	}

	realized := new(big.Int).Set(b.Realized)
	if b.Bank != nil && realized.Cmp(minAmountOut) >= 0 {
		if err := b.Bank.Transfer(ctx, inputToken, b.Custody, b.Venue, amountIn); err != nil {
			return nil, err
		}
		b.Bank.Mint(outputToken, b.Custody, realized)
	}
	return realized, nil
}

// CallCount returns how many times the boundary was invoked.
func (b *ScriptedBoundary) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Calls)
}

// FailingLedger wraps a TransparentLedger and fails specific operations.
type FailingLedger struct {
	Inner        custody.TransparentLedger
	FailTransfer bool
	FailApprove  bool
	Err          error

	// FailTransferAfter, when positive, lets that many transfers succeed
	// before failing the rest.
	FailTransferAfter int
	transfers         int
	mu                sync.Mutex
}

var _ custody.TransparentLedger = (*FailingLedger)(nil)

func (l *FailingLedger) Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error {
	l.mu.Lock()
	l.transfers++
	n := l.transfers
	l.mu.Unlock()

	if l.FailTransfer {
		return l.Err
	}
	if l.FailTransferAfter > 0 && n > l.FailTransferAfter {
		return l.Err
	}
	return l.Inner.Transfer(ctx, token, from, to, amount)
}

func (l *FailingLedger) Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error {
	if l.FailApprove {
		return l.Err
	}
	return l.Inner.Approve(ctx, token, owner, spender, amount)
}
