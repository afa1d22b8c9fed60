package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// IntentState represents the lifecycle state of an intent
type IntentState string

const (
	// IntentStateOpen means the intent accepts contributions and may be executed
	IntentStateOpen IntentState = "OPEN"
	// IntentStateExecuted means the intent was settled; terminal
	IntentStateExecuted IntentState = "EXECUTED"
)

// Intent is a read-only snapshot of a pooled swap intent
type Intent struct {
	ID               common.Hash                 `json:"id"`
	InputToken       common.Address              `json:"input_token"`
	OutputToken      common.Address              `json:"output_token"`
	MinOutput        *big.Int                    `json:"min_output"`
	Deadline         time.Time                   `json:"deadline"`
	PolicyCommitment common.Hash                 `json:"policy_commitment"`
	Total            *big.Int                    `json:"total"`
	Participants     []common.Address            `json:"participants"`
	Contributions    map[common.Address]*big.Int `json:"contributions"`
	State            IntentState                 `json:"state"`
	CreatedAt        time.Time                   `json:"created_at"`
}

// Expired reports whether the intent deadline has passed at the given time
func (i *Intent) Expired(now time.Time) bool {
	return now.After(i.Deadline)
}
