package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// CleanupJob represents an expired intent reclamation that needs to be retried
type CleanupJob struct {
	IntentID    common.Hash
	RetryCount  int
	NextAttempt time.Time
	ErrorType   string
}
