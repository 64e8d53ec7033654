// Package notify fans live submissions out to external channels.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stake-plus/middlefinger/src/types"
)

// Sink receives each live submission once. Failures are logged, never retried.
type Sink interface {
	Name() string
	Notify(ctx context.Context, sub types.Submission) error
}

// Fanout dispatches submissions to every sink in the background.
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
}

func NewFanout(timeout time.Duration, sinks ...Sink) *Fanout {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fanout{sinks: sinks, timeout: timeout}
}

// Len returns the number of sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Hook is meant for feed.WithSubmissionHook. It never blocks the caller.
func (f *Fanout) Hook(sub types.Submission) {
	for _, sink := range f.sinks {
		go f.deliver(sink, sub)
	}
}

func (f *Fanout) deliver(sink Sink, sub types.Submission) {
	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	if err := sink.Notify(ctx, sub); err != nil {
		log.Error().Err(err).Str("sink", sink.Name()).Str("from", sub.Address.Hex()).Msg("notify submission")
		return
	}
	log.Debug().Str("sink", sink.Name()).Str("from", sub.Address.Hex()).Msg("submission forwarded")
}
