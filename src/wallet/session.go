package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/stake-plus/middlefinger/src/logging"
)

// NoticeNoProvider is shown to the user when no wallet is reachable.
const NoticeNoProvider = "No wallet found. Make sure you have a wallet available!"

var (
	ErrNoProvider = errors.New("no wallet provider")
	ErrNoAccount  = errors.New("no authorized account")
)

// Session tracks the active wallet account for the lifetime of the process.
type Session struct {
	provider Provider

	mu      sync.RWMutex
	account *common.Address
}

// NewSession creates a session over provider. A nil provider means no wallet is installed.
func NewSession(provider Provider) *Session {
	return &Session{provider: provider}
}

// Present reports whether a wallet provider is available.
func (s *Session) Present() bool {
	return s.provider != nil
}

// Account returns the active account, or nil when none is connected.
func (s *Session) Account() *common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.account == nil {
		return nil
	}
	addr := *s.account
	return &addr
}

// DetectExistingAccount picks up an already authorized account without prompting.
func (s *Session) DetectExistingAccount(ctx context.Context) *common.Address {
	if s.provider == nil {
		log.Ctx(ctx).Warn().Msg("make sure you have a wallet")
		return nil
	}
	accounts, err := s.provider.Accounts(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("checking authorized accounts")
		return nil
	}
	if len(accounts) == 0 {
		log.Ctx(ctx).Info().Msg("no authorized account found")
		return nil
	}
	s.setAccount(&accounts[0])
	return s.Account()
}

// RequestConnection prompts the user to authorize an account. A declined prompt
// clears the active account. Failures are logged, never returned.
func (s *Session) RequestConnection(ctx context.Context) *common.Address {
	if s.provider == nil {
		return nil
	}
	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		if logging.IsUserRejected(err) {
			log.Ctx(ctx).Info().Msg("wallet connection declined")
		} else {
			log.Ctx(ctx).Error().Err(err).Msg("connect wallet")
		}
		return s.Account()
	}
	if len(accounts) == 0 {
		s.setAccount(nil)
		return nil
	}
	s.setAccount(&accounts[0])
	return s.Account()
}

// SendTransaction forwards msg to the wallet from the active account.
func (s *Session) SendTransaction(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error) {
	if s.provider == nil {
		return common.Hash{}, ErrNoProvider
	}
	account := s.Account()
	if account == nil {
		return common.Hash{}, ErrNoAccount
	}
	msg.From = *account
	return s.provider.SendTransaction(ctx, msg)
}

func (s *Session) setAccount(addr *common.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if addr == nil {
		s.account = nil
		return
	}
	a := *addr
	s.account = &a
}
