package custody

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/swapool-hq/swapool/pkg/contracts"
	"github.com/swapool-hq/swapool/pkg/logger"
)

// EVMLedger is a TransparentLedger backed by ERC20 tokens on an EVM chain.
// Participants pre-approve the ledger signer; Transfer then pulls with
// transferFrom, and Approve grants the execution venue its exact-amount
// allowance from the engine custody account.
type EVMLedger struct {
	client  *ethclient.Client
	auth    *bind.TransactOpts
	chainID *big.Int
	logger  logger.Logger
}

// NewEVMLedger dials the RPC endpoint and prepares a keyed transactor.
func NewEVMLedger(ctx context.Context, rpcURL, privateKeyHex string, log logger.Logger) (*EVMLedger, error) {
	if log == nil {
		log = &logger.EmptyLogger{}
	}

	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", rpcURL, err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %v", err)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %v", err)
	}

	return &EVMLedger{
		client:  client,
		auth:    auth,
		chainID: chainID,
		logger:  log,
	}, nil
}

// Signer returns the address the ledger transacts from. It doubles as the
// engine custody account on chain.
func (l *EVMLedger) Signer() common.Address {
	return l.auth.From
}

// Transfer pulls amount of token from the sender into the recipient.
// The sender must have approved the ledger signer beforehand; moving funds
// out of custody only works because custody is the signer itself.
func (l *EVMLedger) Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error {
	erc20, err := contracts.NewERC20(token, l.client)
	if err != nil {
		return fmt.Errorf("failed to bind token %s: %v", token.Hex(), err)
	}

	opts := l.transactOpts(ctx)
	var tx *types.Transaction
	if from == l.auth.From {
		tx, err = erc20.Transfer(opts, to, amount)
	} else {
		tx, err = erc20.TransferFrom(opts, from, to, amount)
	}
	if err != nil {
		return fmt.Errorf("token transfer failed: %v", err)
	}

	receipt, err := bind.WaitMined(ctx, l.client, tx)
	if err != nil {
		return fmt.Errorf("failed waiting for transfer %s: %v", tx.Hash().Hex(), err)
	}
	if receipt.Status == 0 {
		return fmt.Errorf("transfer %s reverted", tx.Hash().Hex())
	}

	l.logger.DebugWithScope(logger.Ledger, "transfer mined: token=%s from=%s to=%s amount=%s tx=%s",
		token.Hex(), from.Hex(), to.Hex(), amount.String(), tx.Hash().Hex())
	return nil
}

// Approve grants spender an allowance of exactly amount from owner. Only the
// ledger signer can be the owner on chain.
func (l *EVMLedger) Approve(ctx context.Context, token, owner, spender common.Address, amount *big.Int) error {
	if owner != l.auth.From {
		return fmt.Errorf("cannot approve on behalf of %s: signer is %s", owner.Hex(), l.auth.From.Hex())
	}

	erc20, err := contracts.NewERC20(token, l.client)
	if err != nil {
		return fmt.Errorf("failed to bind token %s: %v", token.Hex(), err)
	}

	tx, err := erc20.Approve(l.transactOpts(ctx), spender, amount)
	if err != nil {
		return fmt.Errorf("token approval failed: %v", err)
	}

	receipt, err := bind.WaitMined(ctx, l.client, tx)
	if err != nil {
		return fmt.Errorf("failed waiting for approval %s: %v", tx.Hash().Hex(), err)
	}
	if receipt.Status == 0 {
		return fmt.Errorf("approval %s reverted", tx.Hash().Hex())
	}

	l.logger.DebugWithScope(logger.Ledger, "approval mined: token=%s spender=%s amount=%s tx=%s",
		token.Hex(), spender.Hex(), amount.String(), tx.Hash().Hex())
	return nil
}

func (l *EVMLedger) transactOpts(ctx context.Context) *bind.TransactOpts {
	opts := *l.auth
	opts.Context = ctx
	return &opts
}

var _ TransparentLedger = (*EVMLedger)(nil)
