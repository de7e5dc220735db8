// Package service orchestrates identity resolution: validate, look up,
// enrich with holidays on first sight, then persist.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"idlookup/internal/audit"
	"idlookup/internal/holidays"
	"idlookup/internal/holidays/providers"
	"idlookup/internal/identity/metrics"
	"idlookup/internal/identity/models"
	"idlookup/internal/platform/tracer"
	"idlookup/pkg/domain"
	dErrors "idlookup/pkg/domain-errors"
	"idlookup/pkg/platform/privacy"
	"idlookup/pkg/platform/sentinel"
)

// User-facing messages.
const (
	MsgInvalidIDNumber  = "Please enter a valid South African ID number"
	MsgIDNumberRequired = "ID number is required"
	MsgProcessingFailed = "Error processing user data"
	MsgLookupFailed     = "Error checking user existence"
)

// Defaults used when options leave them unset.
const (
	DefaultCountry      = "ZA"
	DefaultStoreTimeout = 5 * time.Second
	DefaultFetchTimeout = 10 * time.Second
)

// Store is the authoritative identity store.
type Store interface {
	Find(ctx context.Context, idNumber domain.IDNumber) (*models.Identity, error)
	Upsert(ctx context.Context, idNumber domain.IDNumber, fields models.Fields, hs []holidays.Holiday) (*models.Identity, bool, error)
}

// HolidaySource fetches a country's calendar for one year. It never fails;
// problems come back as a degraded result.
type HolidaySource interface {
	FetchYearHolidays(ctx context.Context, country string, year int) holidays.FetchResult
}

// AuditPublisher records completed resolutions.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service resolves identity numbers. It holds no per-call state; the store is
// the only shared mutable resource.
type Service struct {
	store        Store
	source       HolidaySource
	auditor      AuditPublisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
	tracer       tracer.Tracer
	country      string
	storeTimeout time.Duration
	fetchTimeout time.Duration
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func WithCountry(country string) Option {
	return func(s *Service) {
		if country != "" {
			s.country = country
		}
	}
}

// WithStoreTimeout bounds each store round trip. Exceeding it fails the call.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

// WithFetchTimeout bounds the holiday fetch. Exceeding it degrades to no holidays.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

func New(store Store, source HolidaySource, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity store is required")
	}
	if source == nil {
		return nil, errors.New("holiday source is required")
	}
	s := &Service{
		store:        store,
		source:       source,
		logger:       slog.Default(),
		tracer:       tracer.NewNoop(),
		country:      DefaultCountry,
		storeTimeout: DefaultStoreTimeout,
		fetchTimeout: DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolve validates the number, then either bumps an existing identity while
// keeping its stored facts and holidays, or fetches, filters and creates it.
func (s *Service) Resolve(ctx context.Context, raw string) (outcome *models.ResolutionOutcome, err error) {
	start := time.Now()
	idHash := privacy.HashIDNumber(raw)

	ctx, span := s.tracer.Start(ctx, tracer.SpanResolve, tracer.String(tracer.AttrIDHash, idHash))
	defer func() { span.End(err) }()

	decoded, err := domain.DecodeIDNumber(raw)
	if err != nil {
		kind, _ := domain.ValidationKindOf(err)
		s.logger.InfoContext(ctx, "identity number rejected",
			"id_hash", idHash,
			"kind", string(kind),
		)
		s.recordResolution(metrics.OutcomeRejected, start)
		return nil, &dErrors.Error{Code: dErrors.CodeValidation, Message: MsgInvalidIDNumber, Err: err}
	}

	existing, err := s.find(ctx, decoded.IDNumber)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.storeFailure(ctx, err, idHash, start)
	}

	var (
		fields     models.Fields
		collection []holidays.Holiday
		degraded   bool
	)
	if existing != nil {
		fields = existing.Fields
		collection = existing.Holidays
	} else {
		fields = models.FieldsFromDecoded(decoded)
		collection, degraded = s.holidaysFor(ctx, decoded.BirthDate)
	}

	identity, created, err := s.upsert(ctx, decoded.IDNumber, fields, collection)
	if err != nil {
		return nil, s.storeFailure(ctx, err, idHash, start)
	}

	outcome = &models.ResolutionOutcome{
		Identity:         *identity,
		IsNewUser:        created,
		HolidaysDegraded: degraded,
	}
	if outcome.Holidays == nil {
		outcome.Holidays = []holidays.Holiday{}
	}

	span.SetAttributes(
		tracer.Bool(tracer.AttrIsNewUser, created),
		tracer.Int64(tracer.AttrSearchCount, outcome.SearchCount),
		tracer.Int(tracer.AttrHolidayCount, len(outcome.Holidays)),
	)
	s.emitAudit(ctx, span, idHash, outcome)

	result := metrics.OutcomeCacheHit
	if created {
		result = metrics.OutcomeCreated
	}
	s.recordResolution(result, start)
	s.logger.InfoContext(ctx, "identity resolved",
		"id_hash", idHash,
		"is_new_user", created,
		"search_count", outcome.SearchCount,
		"holiday_count", len(outcome.Holidays),
		"holidays_degraded", degraded,
	)
	return outcome, nil
}

// Lookup reports whether an identity exists without touching its counter.
func (s *Service) Lookup(ctx context.Context, raw string) (result *models.LookupResult, err error) {
	if raw == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, MsgIDNumberRequired)
	}
	idHash := privacy.HashIDNumber(raw)

	ctx, span := s.tracer.Start(ctx, tracer.SpanLookup, tracer.String(tracer.AttrIDHash, idHash))
	defer func() { span.End(err) }()

	identity, err := s.find(ctx, domain.IDNumber(raw))
	if errors.Is(err, sentinel.ErrNotFound) {
		return &models.LookupResult{Holidays: []holidays.Holiday{}}, nil
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "identity lookup failed", "id_hash", idHash, "error", err)
		return nil, dErrors.WithCause(err, dErrors.CodeInternal, MsgLookupFailed)
	}

	hs := identity.Holidays
	if hs == nil {
		hs = []holidays.Holiday{}
	}
	return &models.LookupResult{
		Exists:      true,
		Identity:    identity,
		SearchCount: identity.SearchCount,
		Holidays:    hs,
	}, nil
}

// holidaysFor fetches the birth year's calendar and keeps the entries on the
// birth day. A degraded fetch yields an empty collection.
func (s *Service) holidaysFor(ctx context.Context, birth domain.BirthDate) ([]holidays.Holiday, bool) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanHolidayFetch,
		tracer.String(tracer.AttrCountry, s.country),
		tracer.Int(tracer.AttrYear, birth.Year),
	)

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	res := s.source.FetchYearHolidays(fetchCtx, s.country, birth.Year)
	cancel()

	if res.IsDegraded() {
		category := string(providers.GetCategory(res.Cause))
		span.SetAttributes(
			tracer.String(tracer.AttrHolidayStatus, string(res.Status)),
			tracer.String(tracer.AttrHolidayCategory, category),
		)
		span.End(nil)
		if s.metrics != nil {
			s.metrics.RecordHolidayFetch(string(holidays.FetchDegraded), category)
		}
		return []holidays.Holiday{}, true
	}

	filtered := holidays.FilterByDay(res.Holidays, birth.Month, birth.Day)
	span.SetAttributes(
		tracer.String(tracer.AttrHolidayStatus, string(res.Status)),
		tracer.Int(tracer.AttrHolidayCount, len(filtered)),
	)
	span.End(nil)
	if s.metrics != nil {
		s.metrics.RecordHolidayFetch(string(holidays.FetchOK), "")
	}
	return filtered, false
}

func (s *Service) find(ctx context.Context, idNumber domain.IDNumber) (identity *models.Identity, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanStoreFind)
	defer func() {
		if errors.Is(err, sentinel.ErrNotFound) {
			span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))
			span.End(nil)
			return
		}
		if err == nil {
			span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
		}
		span.End(err)
	}()

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	identity, err = s.store.Find(ctx, idNumber)
	s.observeStore("find", start)
	return identity, err
}

func (s *Service) upsert(ctx context.Context, idNumber domain.IDNumber, fields models.Fields, hs []holidays.Holiday) (identity *models.Identity, created bool, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanStoreUpsert)
	defer func() { span.End(err) }()

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	start := time.Now()
	identity, created, err = s.store.Upsert(ctx, idNumber, fields, hs)
	s.observeStore("upsert", start)
	return identity, created, err
}

func (s *Service) storeFailure(ctx context.Context, err error, idHash string, start time.Time) error {
	s.logger.ErrorContext(ctx, "identity store failure",
		"id_hash", idHash,
		"error", err,
	)
	s.recordResolution(metrics.OutcomeFailed, start)
	code := dErrors.CodeInternal
	if errors.Is(err, context.DeadlineExceeded) {
		code = dErrors.CodeTimeout
	}
	return dErrors.WithCause(err, code, MsgProcessingFailed)
}

// emitAudit is best-effort: a failed emission is logged and counted.
func (s *Service) emitAudit(ctx context.Context, span tracer.Span, idHash string, outcome *models.ResolutionOutcome) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Emit(ctx, audit.Event{
		Action:           audit.ActionIdentityResolved,
		IDHash:           idHash,
		IsNewUser:        outcome.IsNewUser,
		SearchCount:      outcome.SearchCount,
		HolidayCount:     len(outcome.Holidays),
		HolidaysDegraded: outcome.HolidaysDegraded,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "id_hash", idHash, "error", err)
		if s.metrics != nil {
			s.metrics.RecordAuditFailure()
		}
		return
	}
	span.AddEvent(tracer.EventAuditEmitted)
}

func (s *Service) recordResolution(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordResolution(outcome, time.Since(start).Seconds())
	}
}

func (s *Service) observeStore(operation string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStore(operation, time.Since(start).Seconds())
	}
}
