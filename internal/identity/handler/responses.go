package handler

import (
	"idlookup/internal/holidays"
	"idlookup/internal/identity/models"
)

// HolidayResponse is one holiday on the birth day.
type HolidayResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Date        string `json:"date"`
}

// IdentityResponse is the resolved identity.
type IdentityResponse struct {
	IDNumber       string            `json:"id_number"`
	BirthDate      string            `json:"birth_date"`
	Gender         string            `json:"gender"`
	ResidentStatus string            `json:"resident_status"`
	SearchCount    int64             `json:"search_count"`
	Holidays       []HolidayResponse `json:"holidays"`
}

// ResolveResponse is returned by POST /identities/resolve.
type ResolveResponse struct {
	IdentityResponse
	IsNewUser        bool `json:"is_new_user"`
	HolidaysDegraded bool `json:"holidays_degraded"`
}

// LookupResponse is returned by GET /identities/{idNumber}.
type LookupResponse struct {
	Exists      bool              `json:"exists"`
	Identity    *IdentityResponse `json:"identity,omitempty"`
	SearchCount int64             `json:"search_count"`
	Holidays    []HolidayResponse `json:"holidays"`
}

func toHolidayResponses(hs []holidays.Holiday) []HolidayResponse {
	out := make([]HolidayResponse, 0, len(hs))
	for _, h := range hs {
		out = append(out, HolidayResponse{
			Name:        h.Name,
			Description: h.Description,
			Type:        h.Type,
			Date:        h.Date,
		})
	}
	return out
}

func toIdentityResponse(i *models.Identity) IdentityResponse {
	return IdentityResponse{
		IDNumber:       i.IDNumber.String(),
		BirthDate:      i.BirthDate,
		Gender:         string(i.Gender),
		ResidentStatus: string(i.ResidentStatus),
		SearchCount:    i.SearchCount,
		Holidays:       toHolidayResponses(i.Holidays),
	}
}

// FromOutcome maps a resolution outcome to its response body.
func FromOutcome(o *models.ResolutionOutcome) *ResolveResponse {
	return &ResolveResponse{
		IdentityResponse: toIdentityResponse(&o.Identity),
		IsNewUser:        o.IsNewUser,
		HolidaysDegraded: o.HolidaysDegraded,
	}
}

// FromLookup maps a lookup result to its response body.
func FromLookup(r *models.LookupResult) *LookupResponse {
	resp := &LookupResponse{
		Exists:      r.Exists,
		SearchCount: r.SearchCount,
		Holidays:    toHolidayResponses(r.Holidays),
	}
	if r.Identity != nil {
		identity := toIdentityResponse(r.Identity)
		resp.Identity = &identity
	}
	return resp
}
