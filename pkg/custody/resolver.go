package custody

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/swapool-hq/swapool/pkg/logger"
)

// Resolver decides the custody path for a token by consulting the
// confidential vault.
type Resolver struct {
	vault  ConfidentialVault
	logger logger.Logger
}

// NewResolver creates a resolver backed by the given vault. A nil vault
// classifies every token as transparent.
func NewResolver(vault ConfidentialVault, log logger.Logger) *Resolver {
	if log == nil {
		log = &logger.EmptyLogger{}
	}
	return &Resolver{vault: vault, logger: log}
}

// Classify returns the custody path for the token. Any vault lookup failure,
// including the token being unknown to the vault, falls back to the
// transparent path so that plain tokens keep working when the vault is
// absent or not yet configured.
func (r *Resolver) Classify(ctx context.Context, token common.Address) Path {
	if r.vault == nil {
		return PathTransparent
	}

	confidential, err := r.vault.IsConfidential(ctx, token)
	if err != nil {
		r.logger.DebugWithScope(logger.Vault, "classification failed for token %s, falling back to transparent: %v", token.Hex(), err)
		return PathTransparent
	}

	if confidential {
		return PathConfidential
	}
	return PathTransparent
}
