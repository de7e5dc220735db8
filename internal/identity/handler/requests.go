package handler

import (
	"strings"

	dErrors "idlookup/pkg/domain-errors"
)

// maxIDNumberInput caps the raw field before it reaches the decoder.
const maxIDNumberInput = 64

// ResolveRequest is the HTTP request body for POST /identities/resolve.
type ResolveRequest struct {
	IDNumber string `json:"id_number"`
}

// Normalize trims surrounding whitespace pasted in with the number.
func (r *ResolveRequest) Normalize() {
	r.IDNumber = strings.TrimSpace(r.IDNumber)
}

// Validate only checks presence and size. Digit, checksum and date rules
// belong to the decoder so every rejection carries the same message.
func (r *ResolveRequest) Validate() error {
	if r.IDNumber == "" {
		return dErrors.New(dErrors.CodeBadRequest, "ID number is required")
	}
	if len(r.IDNumber) > maxIDNumberInput {
		return dErrors.New(dErrors.CodeValidation, "Please enter a valid South African ID number")
	}
	return nil
}
