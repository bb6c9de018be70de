// Concurrent fan-out of all available providers for one payload, with a
// single shared deadline and per-provider failure isolation. Used by the
// moderation engine wherever multiple independent opinions are wanted; the
// fallback chain (chain package) covers the single-answer case.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Neil2813/Content-Room/moderation/analysis"
)

const DefaultTimeout = 15 * time.Second

// Candidate is one provider invocation, pre-bound to its payload. Run must
// respect ctx cancellation for network calls; CPU-bound providers are
// abandoned at the deadline and their eventual results discarded.
type Candidate struct {
	Name string
	Run  func(ctx context.Context) (*analysis.ProviderResult, error)
}

type Aggregator struct {
	Logger  *slog.Logger
	Timeout time.Duration
}

func New(logger *slog.Logger, timeout time.Duration) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Aggregator{Logger: logger, Timeout: timeout}
}

// Gather runs every candidate concurrently and merges the surviving results
// conservatively. It always returns a usable ProviderResult: when nothing
// succeeds the result is an explicit failure sentinel (score zero, provider
// "error" or "timeout"), never a silent assume-safe default. The second
// return value is the per-provider evidence that went into the merge.
func (agg *Aggregator) Gather(ctx context.Context, cands []Candidate) (*analysis.ProviderResult, []*analysis.ProviderResult) {
	if len(cands) == 0 {
		return &analysis.ProviderResult{
			SafetyScore: 0,
			Flags:       []string{"configuration_error"},
			Provider:    "error",
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, agg.Timeout)
	defer cancel()

	type outcome struct {
		res *analysis.ProviderResult
		err error
	}
	results := make(chan outcome, len(cands))
	for _, c := range cands {
		go func(c Candidate) {
			// recover panics the same way an HTTP server recovers handler
			// panics: one misbehaving provider must not abort the batch
			defer func() {
				if r := recover(); r != nil {
					agg.Logger.Error("provider panic during analysis", "provider", c.Name, "err", r)
					results <- outcome{err: fmt.Errorf("provider panic: %v", r)}
				}
			}()
			res, err := c.Run(ctx)
			if err != nil {
				lvl := slog.LevelWarn
				if errors.Is(err, analysis.ErrProviderUnavailable) {
					lvl = slog.LevelDebug
				}
				agg.Logger.Log(ctx, lvl, "moderation provider failed", "provider", c.Name, "err", err)
				results <- outcome{err: err}
				return
			}
			results <- outcome{res: res}
		}(c)
	}

	var valid []*analysis.ProviderResult
	collected := 0
	timedOut := false
collect:
	for collected < len(cands) {
		select {
		case out := <-results:
			collected++
			if out.res != nil {
				valid = append(valid, out.res)
			} else if errors.Is(out.err, context.DeadlineExceeded) {
				timedOut = true
			}
		case <-ctx.Done():
			timedOut = true
			break collect
		}
	}

	if len(valid) == 0 {
		if timedOut {
			agg.Logger.Error("moderation batch timed out", "providers", len(cands), "timeout", agg.Timeout)
			return &analysis.ProviderResult{
				SafetyScore: 0,
				Flags:       []string{"timeout"},
				Provider:    "timeout",
			}, nil
		}
		return &analysis.ProviderResult{
			SafetyScore: 0,
			Flags:       []string{"analysis_failed"},
			Provider:    "error",
		}, nil
	}

	merged := Merge(valid)
	merged.Provider = fmt.Sprintf("ensemble(%d)", len(valid))
	return merged, valid
}
