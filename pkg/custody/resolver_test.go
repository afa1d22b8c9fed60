package custody

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testToken = common.HexToAddress("0x7000000000000000000000000000000000000010")
	otherAddr = common.HexToAddress("0x7000000000000000000000000000000000000020")
)

// brokenVault fails every lookup.
type brokenVault struct{ MemoryVault }

func (v *brokenVault) IsConfidential(context.Context, common.Address) (bool, error) {
	return false, errors.New("vault unreachable")
}

func TestClassifyNilVault(t *testing.T) {
	r := NewResolver(nil, nil)
	assert.Equal(t, PathTransparent, r.Classify(t.Context(), testToken))
}

func TestClassifyRegisteredToken(t *testing.T) {
	vault := NewMemoryVault()
	vault.Register(testToken)
	r := NewResolver(vault, nil)

	assert.Equal(t, PathConfidential, r.Classify(t.Context(), testToken))
	assert.Equal(t, PathTransparent, r.Classify(t.Context(), otherAddr))
}

func TestClassifyFailsOpen(t *testing.T) {
	// A vault error must never block a token, only downgrade it.
	r := NewResolver(&brokenVault{}, nil)
	assert.Equal(t, PathTransparent, r.Classify(t.Context(), testToken))
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "transparent", PathTransparent.String())
	assert.Equal(t, "confidential", PathConfidential.String())
}

func TestMemoryBankTransfer(t *testing.T) {
	bank := NewMemoryBank()
	bank.Mint(testToken, otherAddr, big.NewInt(100))

	dest := common.HexToAddress("0x3333")
	require.NoError(t, bank.Transfer(t.Context(), testToken, otherAddr, dest, big.NewInt(40)))
	assert.Equal(t, int64(60), bank.BalanceOf(testToken, otherAddr).Int64())
	assert.Equal(t, int64(40), bank.BalanceOf(testToken, dest).Int64())

	// Overdraft fails without moving anything.
	err := bank.Transfer(t.Context(), testToken, otherAddr, dest, big.NewInt(61))
	require.Error(t, err)
	assert.Equal(t, int64(60), bank.BalanceOf(testToken, otherAddr).Int64())
	assert.Equal(t, int64(40), bank.BalanceOf(testToken, dest).Int64())
}

func TestMemoryBankApprove(t *testing.T) {
	bank := NewMemoryBank()
	owner := common.HexToAddress("0x1111")
	spender := common.HexToAddress("0x2222")

	require.NoError(t, bank.Approve(t.Context(), testToken, owner, spender, big.NewInt(50)))
	assert.Equal(t, int64(50), bank.Allowance(testToken, owner, spender).Int64())

	// Approve sets, never adds.
	require.NoError(t, bank.Approve(t.Context(), testToken, owner, spender, big.NewInt(10)))
	assert.Equal(t, int64(10), bank.Allowance(testToken, owner, spender).Int64())
}

func TestMemoryVaultDebitCredit(t *testing.T) {
	vault := NewMemoryVault()
	blinding := common.HexToHash("0xb11d")

	// Unregistered token refuses both directions.
	err := vault.Debit(t.Context(), otherAddr, testToken, big.NewInt(1), blinding)
	require.Error(t, err)
	err = vault.Credit(t.Context(), otherAddr, testToken, big.NewInt(1), blinding)
	require.Error(t, err)

	vault.Register(testToken)
	vault.Deposit(otherAddr, testToken, big.NewInt(100))

	require.NoError(t, vault.Debit(t.Context(), otherAddr, testToken, big.NewInt(30), blinding))
	assert.Equal(t, int64(70), vault.BalanceOf(otherAddr, testToken).Int64())

	err = vault.Debit(t.Context(), otherAddr, testToken, big.NewInt(71), blinding)
	require.Error(t, err)
	assert.Equal(t, int64(70), vault.BalanceOf(otherAddr, testToken).Int64())

	require.NoError(t, vault.Credit(t.Context(), otherAddr, testToken, big.NewInt(30), blinding))
	assert.Equal(t, int64(100), vault.BalanceOf(otherAddr, testToken).Int64())
	assert.Equal(t, 2, vault.Blindings[blinding])
}
