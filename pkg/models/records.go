package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ContributionRecord is emitted whenever a deposit is accepted against an intent
type ContributionRecord struct {
	IntentID    common.Hash    `json:"intent_id"`
	Participant common.Address `json:"participant"`
	Amount      *big.Int       `json:"amount"`
	Path        string         `json:"path"`
	Timestamp   time.Time      `json:"timestamp"`
}

// SettlementRecord is emitted once when an intent is executed and distributed
type SettlementRecord struct {
	IntentID       common.Hash    `json:"intent_id"`
	Venue          common.Address `json:"venue"`
	TotalInput     *big.Int       `json:"total_input"`
	RealizedOutput *big.Int       `json:"realized_output"`
	Distributed    *big.Int       `json:"distributed"`
	Dust           *big.Int       `json:"dust"`
	Participants   int            `json:"participants"`
	Timestamp      time.Time      `json:"timestamp"`
}
