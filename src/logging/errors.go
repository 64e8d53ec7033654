package logging

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// userRejectedCode is the EIP-1193 code a wallet returns when the user declines a prompt.
const userRejectedCode = 4001

// IsUserRejected reports whether err is a wallet prompt the user declined.
func IsUserRejected(err error) bool {
	if err == nil {
		return false
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "user rejected")
}

// IsRateLimit reports whether err looks like an upstream rate limit.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "rate_limit") || strings.Contains(msg, "429")
}
