package feed

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/stake-plus/middlefinger/src/cooldown"
	"github.com/stake-plus/middlefinger/src/types"
)

// Phase is the controller's progress through mounting.
type Phase int

const (
	Uninitialized Phase = iota
	WalletChecked
	GatewayReady
	FeedLoaded
)

func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case WalletChecked:
		return "wallet_checked"
	case GatewayReady:
		return "gateway_ready"
	case FeedLoaded:
		return "feed_loaded"
	default:
		return "unknown"
	}
}

// State is a snapshot of everything the view renders.
type State struct {
	Phase   Phase
	Account *common.Address
	// Notice is a blocking message for the user, set when no wallet is present.
	Notice string
	Draft  string
	// Feed is ordered newest first.
	Feed []types.Submission
	// Cooldown is the remaining minutes derived from Feed[0]; nil until a submission is known.
	Cooldown *int
}

// CountingDown reports whether the cooldown sub-state is active.
func (s State) CountingDown() bool {
	return s.Cooldown != nil && *s.Cooldown != 0
}

// Cooling reports whether the wait notice replaces the submit control.
func (s State) Cooling() bool {
	return cooldown.Cooling(s.Cooldown)
}

// SubmitDisabled reports whether a submission may not be sent right now.
func (s State) SubmitDisabled() bool {
	return s.Draft == "" || s.Cooling()
}

func (s State) clone() State {
	out := s
	if s.Account != nil {
		a := *s.Account
		out.Account = &a
	}
	if s.Cooldown != nil {
		c := *s.Cooldown
		out.Cooldown = &c
	}
	out.Feed = append([]types.Submission(nil), s.Feed...)
	return out
}
