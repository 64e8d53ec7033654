// Package contract is the client side of the MiddleFinger contract.
package contract

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/stake-plus/middlefinger/src/logging"
	"github.com/stake-plus/middlefinger/src/types"
)

//go:embed abi/MiddleFinger.json
var abiJSON []byte

const (
	methodGive    = "giveMiddleFinger"
	methodListAll = "getAllMiddleFingers"
	eventNew      = "NewMiddleFinger"
)

// DefaultGasLimit is the gas budget hint attached to every submission.
const DefaultGasLimit uint64 = 300000

// Backend reads contract state and streams its logs. *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractCaller
	bind.ContractFilterer
}

// Sender signs and broadcasts transactions on behalf of the connected account.
type Sender interface {
	SendTransaction(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error)
}

// Handler receives one NewMiddleFinger event.
type Handler func(from common.Address, timestamp time.Time, message string)

type record struct {
	Giver     common.Address
	Timestamp *big.Int
	Message   string
}

type newMiddleFinger struct {
	From      common.Address
	Timestamp *big.Int
	Message   string
}

// ParseABI returns the embedded contract ABI.
func ParseABI() (abi.ABI, error) {
	return abi.JSON(bytes.NewReader(abiJSON))
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithGasLimit overrides DefaultGasLimit.
func WithGasLimit(limit uint64) Option {
	return func(g *Gateway) {
		if limit > 0 {
			g.gasLimit = limit
		}
	}
}

// Gateway wraps the contract behind submit, list and subscribe operations.
type Gateway struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	sender   Sender
	gasLimit uint64
}

// NewGateway binds the contract at address, reading through backend and sending through sender.
func NewGateway(address common.Address, backend Backend, sender Sender, opts ...Option) (*Gateway, error) {
	parsed, err := ParseABI()
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	g := &Gateway{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, nil, backend),
		sender:   sender,
		gasLimit: DefaultGasLimit,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Address returns the contract address.
func (g *Gateway) Address() common.Address {
	return g.address
}

// Submit sends giveMiddleFinger(message) through the wallet. Reverts and
// rejections surface as the returned error and are logged here.
func (g *Gateway) Submit(ctx context.Context, message string) error {
	input, err := g.abi.Pack(methodGive, message)
	if err != nil {
		return fmt.Errorf("pack %s: %w", methodGive, err)
	}
	to := g.address
	hash, err := g.sender.SendTransaction(ctx, ethereum.CallMsg{
		To:   &to,
		Gas:  g.gasLimit,
		Data: input,
	})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("give middle finger")
		return fmt.Errorf("%s: %w", methodGive, err)
	}
	log.Ctx(ctx).Info().Str("tx", hash.Hex()).Msg("middle finger sent")
	return nil
}

// ListAll returns every recorded submission, newest first.
func (g *Gateway) ListAll(ctx context.Context) ([]types.Submission, error) {
	var out []interface{}
	if err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodListAll); err != nil {
		ev := log.Ctx(ctx).Error()
		if logging.IsRateLimit(err) {
			ev = log.Ctx(ctx).Warn().Bool("rate_limited", true)
		}
		ev.Err(err).Msg("get all middle fingers")
		return nil, fmt.Errorf("%s: %w", methodListAll, err)
	}
	if len(out) == 0 {
		return nil, nil
	}

	records := *abi.ConvertType(out[0], new([]record)).(*[]record)
	subs := make([]types.Submission, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		subs = append(subs, types.FromChain(r.Giver, r.Timestamp.Int64(), r.Message))
	}
	return subs, nil
}

// Subscribe delivers every new NewMiddleFinger event to handler until the
// returned subscription is cancelled or the underlying stream fails.
func (g *Gateway) Subscribe(ctx context.Context, handler Handler) (*Subscription, error) {
	logs, sub, err := g.contract.WatchLogs(&bind.WatchOpts{Context: ctx}, eventNew)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("subscribe to new middle fingers")
		return nil, fmt.Errorf("watch %s: %w", eventNew, err)
	}

	s := &Subscription{
		ID:   uuid.NewString(),
		sub:  sub,
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run(ctx, logs, func(l ethereumLog) error {
		var ev newMiddleFinger
		if err := g.contract.UnpackLog(&ev, eventNew, l); err != nil {
			return err
		}
		handler(ev.From, time.Unix(ev.Timestamp.Int64(), 0), ev.Message)
		return nil
	})
	log.Ctx(ctx).Debug().Str("subscription", s.ID).Msg("watching new middle fingers")
	return s, nil
}
