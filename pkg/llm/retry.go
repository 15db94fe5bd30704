package llm

import (
	"context"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"time"
)

const DefaultMaxTries = 3

type Retry struct {
	next     Service
	maxTries uint
	interval time.Duration
}

// WithRetry retries failed completions with exponential backoff, starting at one second.
func WithRetry(next Service, maxTries uint) *Retry {
	if maxTries == 0 {
		maxTries = DefaultMaxTries
	}
	return &Retry{next: next, maxTries: maxTries, interval: time.Second}
}

func (r *Retry) Complete(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval

	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		attempt++
		out, err := r.next.Complete(ctx, messages, opts...)
		if err != nil {
			if ctx.Err() != nil {
				return "", backoff.Permanent(err)
			}
			log.Warn().Err(err).Int("attempt", attempt).Msg("completion failed")
			return "", err
		}
		return out, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(r.maxTries))
}
