// Package holidays turns a provider's yearly holiday calendar into the
// holidays that fall on a given birth day.
package holidays

import "context"

// Defaults applied when the provider omits a field.
const (
	DefaultDescription = "No description available"
	DefaultType        = "Holiday"
)

// RawHoliday is one provider calendar entry as received, before defaulting.
type RawHoliday struct {
	Name        string
	Description string
	Types       []string
	PrimaryType string
	// Date is the provider's ISO-8601 value; only the leading YYYY-MM-DD is interpreted.
	Date string
}

// Holiday is a calendar event attached to an identity.
type Holiday struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Date        string `json:"date"`
}

// FetchStatus reports whether a fetch produced the provider's real answer.
type FetchStatus string

const (
	FetchOK       FetchStatus = "ok"
	FetchDegraded FetchStatus = "degraded"
)

// FetchResult is the outcome of a yearly fetch. A degraded result carries no
// holidays and the cause that was recovered from; empty means "none
// available", not "none exist".
type FetchResult struct {
	Status   FetchStatus
	Holidays []RawHoliday
	Cause    error
}

// OK wraps a successful provider answer.
func OK(raw []RawHoliday) FetchResult {
	return FetchResult{Status: FetchOK, Holidays: raw}
}

// Degraded records a recovered failure.
func Degraded(cause error) FetchResult {
	return FetchResult{Status: FetchDegraded, Cause: cause}
}

// IsDegraded reports whether the fetch fell back to an empty result.
func (r FetchResult) IsDegraded() bool {
	return r.Status == FetchDegraded
}

// Source fetches a country's holiday calendar for a year. Implementations
// never return an error: every failure is folded into a degraded result.
type Source interface {
	FetchYearHolidays(ctx context.Context, country string, year int) FetchResult
}
