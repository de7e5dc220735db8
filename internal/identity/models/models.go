// Package models holds the identity aggregate and resolution results.
package models

import (
	"time"

	"idlookup/internal/holidays"
	"idlookup/pkg/domain"
)

// Fields are the decoded, immutable facts stored with an identity.
type Fields struct {
	BirthDate      string
	Gender         domain.Gender
	ResidentStatus domain.ResidentStatus
}

// FieldsFromDecoded projects a decoded identity number into storable fields.
func FieldsFromDecoded(d domain.DecodedIdentity) Fields {
	return Fields{
		BirthDate:      d.BirthDate.String(),
		Gender:         d.Gender,
		ResidentStatus: d.ResidentStatus,
	}
}

// Identity is one resolved subject. Holidays is owned by the identity and is
// replaced wholesale on every write.
type Identity struct {
	IDNumber domain.IDNumber
	Fields
	SearchCount int64
	Holidays    []holidays.Holiday
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a deep copy so callers never share the holiday slice with a store.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	c := *i
	c.Holidays = append(make([]holidays.Holiday, 0, len(i.Holidays)), i.Holidays...)
	return &c
}

// ResolutionOutcome is the result of a successful resolve.
type ResolutionOutcome struct {
	Identity
	IsNewUser bool

	// HolidaysDegraded is set when the provider fetch fell back to an empty
	// result; the holiday list then means "none available".
	HolidaysDegraded bool
}

// LookupResult is the read-only existence check. SearchCount is zero and
// Holidays is empty when the identity does not exist.
type LookupResult struct {
	Exists      bool
	Identity    *Identity
	SearchCount int64
	Holidays    []holidays.Holiday
}
