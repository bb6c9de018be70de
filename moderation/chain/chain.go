// Ordered fallback over a list of providers: the first usable answer wins.
// This is the single-opinion counterpart to the ensemble package, used where
// providers are interchangeable (eg, several speech-to-text backends) rather
// than complementary.
package chain

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Neil2813/Content-Room/moderation/analysis"
)

// retryBackoff is the pause before the chain makes its single second pass
// over all candidates. Transient outages (connection resets, rate limits)
// often clear within this window; anything longer is a real failure.
const retryBackoff = 250 * time.Millisecond

// Candidate is one provider in the chain. Available is consulted before each
// attempt so that providers which lost their backend mid-process (eg, a cloud
// client whose credentials expired) are skipped instead of failing.
type Candidate[T any] struct {
	Name      string
	Available func() bool
	Run       func(ctx context.Context) (T, error)
}

type Chain[T any] struct {
	Logger     *slog.Logger
	Candidates []Candidate[T]
}

func New[T any](logger *slog.Logger, cands ...Candidate[T]) *Chain[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain[T]{Logger: logger, Candidates: cands}
}

// Run tries each candidate in order and returns the first successful result.
// If every candidate fails or is unavailable, the whole pass is retried once
// after a short backoff. Exhausting both passes returns analysis.AllFailedError
// carrying one reason per candidate from the final pass.
func (ch *Chain[T]) Run(ctx context.Context) (T, error) {
	var zero T
	if len(ch.Candidates) == 0 {
		return zero, &analysis.AllFailedError{Reasons: []string{"no providers configured"}}
	}

	res, reasons := ch.pass(ctx)
	if reasons == nil {
		return res, nil
	}

	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	ch.Logger.Info("retrying provider chain", "candidates", len(ch.Candidates))
	res, reasons = ch.pass(ctx)
	if reasons == nil {
		return res, nil
	}
	return zero, &analysis.AllFailedError{Reasons: reasons}
}

// pass makes one attempt at each candidate. A nil reasons slice means success
// and res holds the winning value.
func (ch *Chain[T]) pass(ctx context.Context) (res T, reasons []string) {
	for _, c := range ch.Candidates {
		if ctx.Err() != nil {
			reasons = append(reasons, c.Name+": "+ctx.Err().Error())
			continue
		}
		if c.Available != nil && !c.Available() {
			ch.Logger.Debug("skipping unavailable provider", "provider", c.Name)
			reasons = append(reasons, c.Name+": "+analysis.ErrProviderUnavailable.Error())
			continue
		}
		out, err := c.Run(ctx)
		if err != nil {
			lvl := slog.LevelWarn
			if errors.Is(err, analysis.ErrProviderUnavailable) {
				lvl = slog.LevelDebug
			}
			ch.Logger.Log(ctx, lvl, "provider failed, falling through", "provider", c.Name, "err", err)
			reasons = append(reasons, c.Name+": "+err.Error())
			continue
		}
		return out, nil
	}
	return res, reasons
}
