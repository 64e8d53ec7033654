package contract

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/rs/zerolog/log"
)

type ethereumLog = types.Log

// Subscription is the handle returned by Gateway.Subscribe.
type Subscription struct {
	ID string

	sub  event.Subscription
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// Cancel stops delivery. Once it returns the handler will not be invoked again.
// It must not be called from inside the handler.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.quit)
		s.sub.Unsubscribe()
	})
	<-s.done
}

func (s *Subscription) run(ctx context.Context, logs <-chan types.Log, deliver func(types.Log) error) {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case err, ok := <-s.sub.Err():
			if ok && err != nil {
				log.Ctx(ctx).Error().Err(err).Str("subscription", s.ID).Msg("new middle finger stream failed")
			}
			return
		case l := <-logs:
			if l.Removed {
				continue
			}
			select {
			case <-s.quit:
				return
			default:
			}
			if err := deliver(l); err != nil {
				log.Ctx(ctx).Error().Err(err).Str("subscription", s.ID).Msg("decode new middle finger")
			}
		}
	}
}
