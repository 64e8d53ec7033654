// Package feed keeps the submission feed, the draft and the cooldown in sync
// with the wallet session and the contract.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/stake-plus/middlefinger/src/cooldown"
	"github.com/stake-plus/middlefinger/src/metrics"
	"github.com/stake-plus/middlefinger/src/types"
	"github.com/stake-plus/middlefinger/src/wallet"
)

type Option func(*Controller)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

// WithSubmissionHook registers fn to run after every live submission is applied.
func WithSubmissionHook(fn func(types.Submission)) Option {
	return func(ctrl *Controller) { ctrl.hooks = append(ctrl.hooks, fn) }
}

// Controller is the state container behind the view. Every transition is
// serialized under mu and listeners receive a snapshot after the lock is
// released, in transition order.
type Controller struct {
	session    *wallet.Session
	newGateway GatewayFactory
	clock      clock.Clock
	hooks      []func(types.Submission)

	mu        sync.Mutex
	state     State
	gateway   Gateway
	sub       Canceler
	timer     *clock.Timer
	timerGen  uint64
	mounted   bool
	unmounted bool
	listeners map[uint64]func(State)
	nextID    uint64

	pending     []State
	dispatching bool
}

func NewController(session *wallet.Session, newGateway GatewayFactory, opts ...Option) *Controller {
	c := &Controller{
		session:    session,
		newGateway: newGateway,
		clock:      clock.New(),
		listeners:  make(map[uint64]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Listen registers fn for every state change. The returned func removes it.
// Listeners must not block. A snapshot may be delivered on the goroutine of an
// earlier transition that is still notifying.
func (c *Controller) Listen(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Mount checks the wallet, builds the gateway, subscribes to live submissions
// and loads the feed. It runs once; later calls are ignored.
func (c *Controller) Mount(ctx context.Context) {
	c.mu.Lock()
	if c.mounted || c.unmounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.mu.Unlock()

	account := c.session.DetectExistingAccount(ctx)
	present := c.session.Present()
	c.update(func(s *State) bool {
		s.Account = account
		s.Phase = WalletChecked
		if !present {
			s.Notice = wallet.NoticeNoProvider
		}
		return true
	})

	var gw Gateway
	if present {
		g, err := c.newGateway(c.session)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("build contract gateway")
		} else {
			gw = g
			c.watch(ctx, gw)
		}
	}

	c.mu.Lock()
	c.gateway = gw
	c.mu.Unlock()
	c.update(func(s *State) bool {
		s.Phase = GatewayReady
		return true
	})

	if gw != nil {
		c.load(ctx, gw)
	}
}

func (c *Controller) watch(ctx context.Context, gw Gateway) {
	sub, err := gw.Watch(ctx, c.onNewMiddleFinger)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("register new middle finger handler")
		return
	}
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		sub.Cancel()
		return
	}
	c.sub = sub
	c.mu.Unlock()
}

func (c *Controller) load(ctx context.Context, gw Gateway) {
	subs, err := gw.ListAll(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("load middle fingers")
		return
	}
	c.update(func(s *State) bool {
		s.Phase = FeedLoaded
		if len(subs) > 0 {
			c.setFeedLocked(s, mergeLoaded(subs, s.Feed))
		}
		return true
	})
}

// Unmount cancels the live subscription and the pending timer. No state change
// happens afterwards.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if c.unmounted {
		c.mu.Unlock()
		return
	}
	c.unmounted = true
	sub := c.sub
	c.sub = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
	c.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// SetDraft replaces the in-progress message.
func (c *Controller) SetDraft(text string) {
	c.update(func(s *State) bool {
		if s.Draft == text {
			return false
		}
		s.Draft = text
		return true
	})
}

// Connect prompts the wallet for an account.
func (c *Controller) Connect(ctx context.Context) {
	account := c.session.RequestConnection(ctx)
	c.update(func(s *State) bool {
		s.Account = account
		return true
	})
}

// Submit sends the current draft. It does nothing when submitting is disabled;
// failures are logged only.
func (c *Controller) Submit(ctx context.Context) {
	c.mu.Lock()
	st := c.state.clone()
	gw := c.gateway
	c.mu.Unlock()

	if st.SubmitDisabled() {
		log.Ctx(ctx).Debug().Bool("cooling", st.Cooling()).Msg("submit ignored")
		return
	}
	if gw == nil {
		log.Ctx(ctx).Warn().Msg("submit without a contract gateway")
		return
	}
	err := gw.Submit(ctx, st.Draft)
	metrics.ObserveSubmit(err)
}

func (c *Controller) onNewMiddleFinger(from common.Address, timestamp time.Time, message string) {
	sub := types.Submission{Address: from, Timestamp: timestamp, Message: message}
	applied := c.update(func(s *State) bool {
		s.Draft = ""
		c.setFeedLocked(s, insertNewest(s.Feed, sub))
		return true
	})
	if !applied {
		return
	}
	metrics.LiveSubmission()
	for _, hook := range c.hooks {
		hook(sub)
	}
}

// setFeedLocked replaces the feed, recomputes the cooldown from its newest
// entry and re-arms the expiry timer. c.mu must be held.
func (c *Controller) setFeedLocked(s *State, feed []types.Submission) {
	s.Feed = feed
	metrics.FeedSize(len(feed))
	if len(feed) == 0 {
		return
	}
	remaining := cooldown.RemainingMinutes(feed[0].Timestamp, c.clock.Now())
	s.Cooldown = &remaining

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timerGen++
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(time.Duration(remaining)*time.Minute, func() {
		c.expire(gen)
	})
}

func (c *Controller) expire(gen uint64) {
	c.update(func(s *State) bool {
		if gen != c.timerGen {
			return false
		}
		zero := 0
		s.Cooldown = &zero
		c.timer = nil
		return true
	})
}

// update applies mutate under the lock and queues a snapshot when it reports a
// change. Snapshots reach listeners in the order the changes were applied.
func (c *Controller) update(mutate func(*State) bool) bool {
	c.mu.Lock()
	if c.unmounted || !mutate(&c.state) {
		c.mu.Unlock()
		return false
	}
	c.pending = append(c.pending, c.state.clone())
	if c.dispatching {
		c.mu.Unlock()
		return true
	}
	c.dispatching = true
	c.mu.Unlock()

	c.dispatch()
	return true
}

// dispatch drains the pending snapshots. Only one goroutine dispatches at a
// time and listeners run without the lock held.
func (c *Controller) dispatch() {
	for {
		c.mu.Lock()
		if len(c.pending) == 0 {
			c.dispatching = false
			c.mu.Unlock()
			return
		}
		snap := c.pending[0]
		c.pending[0] = State{}
		c.pending = c.pending[1:]
		listeners := make([]func(State), 0, len(c.listeners))
		for _, fn := range c.listeners {
			listeners = append(listeners, fn)
		}
		c.mu.Unlock()

		for _, fn := range listeners {
			fn(snap)
		}
	}
}

// insertNewest places sub before the first entry that is not newer than it.
func insertNewest(feed []types.Submission, sub types.Submission) []types.Submission {
	i := 0
	for i < len(feed) && feed[i].Timestamp.After(sub.Timestamp) {
		i++
	}
	out := make([]types.Submission, 0, len(feed)+1)
	out = append(out, feed[:i]...)
	out = append(out, sub)
	return append(out, feed[i:]...)
}

// mergeLoaded keeps live entries strictly newer than the loaded head on top of
// the loaded list. Nothing is deduplicated.
func mergeLoaded(loaded, current []types.Submission) []types.Submission {
	head := loaded[0].Timestamp
	out := make([]types.Submission, 0, len(loaded)+len(current))
	for _, sub := range current {
		if sub.Timestamp.After(head) {
			out = append(out, sub)
		}
	}
	return append(out, loaded...)
}
