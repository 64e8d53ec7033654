// Package types holds the records shared between the contract, the feed and the notifiers.
package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Submission is one message recorded by the contract.
type Submission struct {
	Address   common.Address `json:"address"`
	Timestamp time.Time      `json:"timestamp"`
	Message   string         `json:"message"`
}

// FromChain builds a Submission from an on-chain record with a unix-seconds timestamp.
func FromChain(from common.Address, unixSeconds int64, message string) Submission {
	return Submission{
		Address:   from,
		Timestamp: time.Unix(unixSeconds, 0),
		Message:   message,
	}
}
