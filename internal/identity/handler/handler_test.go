package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"idlookup/internal/holidays"
	"idlookup/internal/identity/handler/mocks"
	"idlookup/internal/identity/models"
	"idlookup/pkg/domain"
	dErrors "idlookup/pkg/domain-errors"
	"idlookup/pkg/testutil"
)

const validID = "9001015009086"

// =============================================================================
// Identity Handler Test Suite
// =============================================================================
// Justification for unit tests: the handler owns the wire contract (field
// names, status codes, error bodies). The service is mocked so each mapping
// is asserted in isolation.

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func resolvedIdentity(count int64) models.Identity {
	return models.Identity{
		IDNumber: validID,
		Fields: models.Fields{
			BirthDate:      "01/01/1990",
			Gender:         domain.GenderMale,
			ResidentStatus: domain.ResidentCitizen,
		},
		SearchCount: count,
		Holidays: []holidays.Holiday{
			{Name: "New Year's Day", Description: "First day of the year", Type: "National holiday", Date: "1990-01-01"},
		},
	}
}

func (s *HandlerSuite) TestResolve() {
	s.Run("success renders the identity", func() {
		s.service.EXPECT().Resolve(gomock.Any(), validID).Return(&models.ResolutionOutcome{
			Identity:  resolvedIdentity(1),
			IsNewUser: true,
		}, nil)

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/identities/resolve", map[string]string{"id_number": validID}))
		s.Equal(http.StatusOK, rr.Code)

		body := testutil.DecodeJSON[map[string]any](s.T(), rr)
		s.Equal(validID, body["id_number"])
		s.Equal("01/01/1990", body["birth_date"])
		s.Equal("Male", body["gender"])
		s.Equal("South African Citizen", body["resident_status"])
		s.Equal(float64(1), body["search_count"])
		s.Equal(true, body["is_new_user"])
		s.Equal(false, body["holidays_degraded"])

		hs, ok := body["holidays"].([]any)
		s.Require().True(ok)
		s.Require().Len(hs, 1)
		s.Equal(map[string]any{
			"name":        "New Year's Day",
			"description": "First day of the year",
			"type":        "National holiday",
			"date":        "1990-01-01",
		}, hs[0])
	})

	s.Run("surrounding whitespace is trimmed", func() {
		s.service.EXPECT().Resolve(gomock.Any(), validID).Return(&models.ResolutionOutcome{Identity: resolvedIdentity(2)}, nil)

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/identities/resolve", map[string]string{"id_number": "  " + validID + "\n"}))
		s.Equal(http.StatusOK, rr.Code)
		body := testutil.DecodeJSON[ResolveResponse](s.T(), rr)
		s.False(body.IsNewUser)
		s.Equal(int64(2), body.SearchCount)
	})

	s.Run("empty holidays render as an empty array", func() {
		identity := resolvedIdentity(1)
		identity.Holidays = nil
		s.service.EXPECT().Resolve(gomock.Any(), validID).Return(&models.ResolutionOutcome{Identity: identity, IsNewUser: true, HolidaysDegraded: true}, nil)

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/identities/resolve", map[string]string{"id_number": validID}))
		s.Equal(http.StatusOK, rr.Code)
		s.Contains(rr.Body.String(), `"holidays":[]`)
	})

	s.Run("malformed body is a bad request", func() {
		rr := testutil.Serve(s.router, testutil.NewRequestWithBody(http.MethodPost, "/identities/resolve", "{not json"))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request", "invalid request body")
	})

	s.Run("missing id number is a bad request", func() {
		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/identities/resolve", map[string]string{}))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "bad_request", "ID number is required")
	})

	s.Run("validation failure renders the user message", func() {
		s.service.EXPECT().Resolve(gomock.Any(), "9001015009087").Return(nil,
			&dErrors.Error{Code: dErrors.CodeValidation, Message: "Please enter a valid South African ID number"})

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/identities/resolve", map[string]string{"id_number": "9001015009087"}))
		testutil.AssertError(s.T(), rr, http.StatusBadRequest, "validation_error", "Please enter a valid South African ID number")
	})

	s.Run("store failure renders the generic message only", func() {
		s.service.EXPECT().Resolve(gomock.Any(), validID).Return(nil,
			dErrors.WithCause(errors.New("pq: connection refused"), dErrors.CodeInternal, "Error processing user data"))

		rr := testutil.Serve(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/identities/resolve", map[string]string{"id_number": validID}))
		testutil.AssertError(s.T(), rr, http.StatusInternalServerError, "internal_error", "Error processing user data")
		s.NotContains(rr.Body.String(), "connection refused")
	})
}

func (s *HandlerSuite) TestLookup() {
	s.Run("existing identity", func() {
		identity := resolvedIdentity(3)
		s.service.EXPECT().Lookup(gomock.Any(), validID).Return(&models.LookupResult{
			Exists:      true,
			Identity:    &identity,
			SearchCount: 3,
			Holidays:    identity.Holidays,
		}, nil)

		rr := testutil.Serve(s.router, httptest.NewRequest(http.MethodGet, "/identities/"+validID, nil))
		s.Equal(http.StatusOK, rr.Code)

		body := testutil.DecodeJSON[LookupResponse](s.T(), rr)
		s.True(body.Exists)
		s.Equal(int64(3), body.SearchCount)
		s.Require().NotNil(body.Identity)
		s.Equal("01/01/1990", body.Identity.BirthDate)
		s.Len(body.Holidays, 1)
	})

	s.Run("unknown identity", func() {
		s.service.EXPECT().Lookup(gomock.Any(), "0501015009084").Return(&models.LookupResult{Holidays: []holidays.Holiday{}}, nil)

		rr := testutil.Serve(s.router, httptest.NewRequest(http.MethodGet, "/identities/0501015009084", nil))
		s.Equal(http.StatusOK, rr.Code)
		s.JSONEq(`{"exists":false,"search_count":0,"holidays":[]}`, rr.Body.String())
	})

	s.Run("store failure", func() {
		s.service.EXPECT().Lookup(gomock.Any(), validID).Return(nil,
			dErrors.WithCause(errors.New("timeout"), dErrors.CodeInternal, "Error checking user existence"))

		rr := testutil.Serve(s.router, httptest.NewRequest(http.MethodGet, "/identities/"+validID, nil))
		testutil.AssertError(s.T(), rr, http.StatusInternalServerError, "internal_error", "Error checking user existence")
	})
}

func TestResolveRequestValidate(t *testing.T) {
	t.Run("oversized input is rejected before decoding", func(t *testing.T) {
		req := &ResolveRequest{IDNumber: strings.Repeat("9", maxIDNumberInput+1)}
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})

	t.Run("non-digit input is left to the decoder", func(t *testing.T) {
		req := &ResolveRequest{IDNumber: "abcdefghijklm"}
		assert.NoError(t, req.Validate())
	})
}
