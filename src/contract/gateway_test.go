package contract

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/suite"
)

var contractAddr = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

type fakeBackend struct {
	output  []byte
	callErr error
	calls   []ethereum.CallMsg

	feed    chan ethtypes.Log
	queries []ethereum.FilterQuery
}

func (f *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.calls = append(f.calls, call)
	return f.output, f.callErr
}

func (f *fakeBackend) FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error) {
	return nil, nil
}

func (f *fakeBackend) SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- ethtypes.Log) (ethereum.Subscription, error) {
	f.queries = append(f.queries, q)
	return event.NewSubscription(func(quit <-chan struct{}) error {
		for {
			select {
			case l := <-f.feed:
				select {
				case ch <- l:
				case <-quit:
					return nil
				}
			case <-quit:
				return nil
			}
		}
	}), nil
}

type fakeSender struct {
	msgs []ethereum.CallMsg
	err  error
}

func (f *fakeSender) SendTransaction(ctx context.Context, msg ethereum.CallMsg) (common.Hash, error) {
	f.msgs = append(f.msgs, msg)
	return common.HexToHash("0x01"), f.err
}

type received struct {
	from      common.Address
	timestamp time.Time
	message   string
}

type GatewaySuite struct {
	suite.Suite
	ctx     context.Context
	abi     abi.ABI
	backend *fakeBackend
	sender  *fakeSender
	gateway *Gateway
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.ctx = context.Background()
	parsed, err := ParseABI()
	s.Require().NoError(err)
	s.abi = parsed
	s.backend = &fakeBackend{feed: make(chan ethtypes.Log)}
	s.sender = &fakeSender{}
	s.gateway, err = NewGateway(contractAddr, s.backend, s.sender)
	s.Require().NoError(err)
}

func (s *GatewaySuite) TestSubmitPacksMessageAndGasHint() {
	s.Require().NoError(s.gateway.Submit(s.ctx, "bad day"))

	s.Require().Len(s.sender.msgs, 1)
	msg := s.sender.msgs[0]
	s.Equal(contractAddr, *msg.To)
	s.Equal(DefaultGasLimit, msg.Gas)

	method := s.abi.Methods[methodGive]
	s.Equal(method.ID, msg.Data[:4])
	args, err := method.Inputs.Unpack(msg.Data[4:])
	s.Require().NoError(err)
	s.Equal([]interface{}{"bad day"}, args)
}

func (s *GatewaySuite) TestSubmitCustomGasLimit() {
	g, err := NewGateway(contractAddr, s.backend, s.sender, WithGasLimit(500000))
	s.Require().NoError(err)
	s.Require().NoError(g.Submit(s.ctx, "x"))
	s.Equal(uint64(500000), s.sender.msgs[0].Gas)
}

func (s *GatewaySuite) TestSubmitRejected() {
	s.sender.err = errors.New("execution reverted: wait 15m")
	err := s.gateway.Submit(s.ctx, "too soon")
	s.Error(err)
	s.ErrorIs(err, s.sender.err)
}

func (s *GatewaySuite) TestListAllReturnsNewestFirst() {
	first := common.HexToAddress("0x1000000000000000000000000000000000000001")
	second := common.HexToAddress("0x2000000000000000000000000000000000000002")
	records := []record{
		{Giver: first, Timestamp: big.NewInt(1700000000), Message: "first"},
		{Giver: second, Timestamp: big.NewInt(1700000600), Message: "second"},
	}
	out, err := s.abi.Methods[methodListAll].Outputs.Pack(records)
	s.Require().NoError(err)
	s.backend.output = out

	subs, err := s.gateway.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(subs, 2)

	s.Equal(second, subs[0].Address)
	s.Equal("second", subs[0].Message)
	s.Equal(time.Unix(1700000600, 0), subs[0].Timestamp)
	s.Equal(first, subs[1].Address)
	s.Equal("first", subs[1].Message)

	s.Require().Len(s.backend.calls, 1)
	s.Equal(contractAddr, *s.backend.calls[0].To)
	s.Equal(s.abi.Methods[methodListAll].ID, s.backend.calls[0].Data[:4])
}

func (s *GatewaySuite) TestListAllEmpty() {
	out, err := s.abi.Methods[methodListAll].Outputs.Pack([]record{})
	s.Require().NoError(err)
	s.backend.output = out

	subs, err := s.gateway.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(subs)
}

func (s *GatewaySuite) TestListAllTransportError() {
	s.backend.callErr = errors.New("dial tcp: connection refused")
	subs, err := s.gateway.ListAll(s.ctx)
	s.Error(err)
	s.Nil(subs)
}

func (s *GatewaySuite) newLog(from common.Address, ts int64, message string, removed bool) ethtypes.Log {
	ev := s.abi.Events[eventNew]
	data, err := ev.Inputs.NonIndexed().Pack(big.NewInt(ts), message)
	s.Require().NoError(err)
	return ethtypes.Log{
		Address: contractAddr,
		Topics:  []common.Hash{ev.ID, common.BytesToHash(from.Bytes())},
		Data:    data,
		Removed: removed,
	}
}

func (s *GatewaySuite) TestSubscribeDeliversEvents() {
	var mu sync.Mutex
	var got []received
	sub, err := s.gateway.Subscribe(s.ctx, func(from common.Address, ts time.Time, message string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, received{from, ts, message})
	})
	s.Require().NoError(err)
	s.NotEmpty(sub.ID)

	s.Require().Len(s.backend.queries, 1)
	s.Equal([]common.Address{contractAddr}, s.backend.queries[0].Addresses)

	from := common.HexToAddress("0x3000000000000000000000000000000000000003")
	s.backend.feed <- s.newLog(from, 1700001000, "reorged", true)
	s.backend.feed <- s.newLog(from, 1700001200, "hello", false)

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	sub.Cancel()
	sub.Cancel()

	mu.Lock()
	defer mu.Unlock()
	s.Equal(received{from, time.Unix(1700001200, 0), "hello"}, got[0])
}

func (s *GatewaySuite) TestCancelStopsDelivery() {
	calls := 0
	sub, err := s.gateway.Subscribe(s.ctx, func(common.Address, time.Time, string) { calls++ })
	s.Require().NoError(err)
	sub.Cancel()

	select {
	case s.backend.feed <- s.newLog(common.Address{}, 1, "late", false):
		s.Fail("feed still consumed after cancel")
	case <-time.After(20 * time.Millisecond):
	}
	s.Zero(calls)
}
