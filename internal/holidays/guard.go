package holidays

import (
	"context"
	"log/slog"

	"idlookup/internal/holidays/providers"
	"idlookup/internal/platform/logger"
	"idlookup/pkg/platform/circuit"
)

// GuardedSource short-circuits a failing provider. Once the breaker opens,
// fetches degrade immediately with ErrorProviderOutage until the cooldown
// admits a single probe. Only retryable failures count against the provider.
type GuardedSource struct {
	next    Source
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// NewGuardedSource wraps next with breaker. A nil logger discards output.
func NewGuardedSource(next Source, breaker *circuit.Breaker, l *slog.Logger) *GuardedSource {
	if l == nil {
		l = logger.Discard()
	}
	return &GuardedSource{next: next, breaker: breaker, logger: l}
}

func (g *GuardedSource) FetchYearHolidays(ctx context.Context, country string, year int) FetchResult {
	if !g.breaker.Allow() {
		return Degraded(providers.NewProviderError(
			providers.ErrorProviderOutage, g.breaker.Name(), "circuit open", nil))
	}

	res := g.next.FetchYearHolidays(ctx, country, year)
	switch {
	case !res.IsDegraded():
		if _, change := g.breaker.RecordSuccess(); change.Closed {
			g.logger.InfoContext(ctx, "holiday provider circuit closed", "provider", g.breaker.Name())
		}
	case providers.IsRetryable(res.Cause):
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "holiday provider circuit opened",
				"provider", g.breaker.Name(),
				"category", providers.GetCategory(res.Cause),
			)
		}
	default:
		g.breaker.Release()
	}
	return res
}
