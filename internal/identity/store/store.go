// Package store persists identities. Every implementation upholds the same
// contract: Upsert changes the search counter and the holiday collection as
// one atomic unit, and Find never observes one without the other.
package store

import (
	"context"

	"idlookup/internal/holidays"
	"idlookup/internal/identity/models"
	"idlookup/pkg/domain"
)

// Store is the identity persistence contract.
type Store interface {
	// Find returns the identity with its full holiday collection, or
	// sentinel.ErrNotFound.
	Find(ctx context.Context, idNumber domain.IDNumber) (*models.Identity, error)

	// Upsert creates the identity with SearchCount 1, or increments
	// SearchCount and replaces the holidays wholesale. Decoded fields of an
	// existing identity are never changed. created reports which branch ran.
	Upsert(ctx context.Context, idNumber domain.IDNumber, fields models.Fields, hs []holidays.Holiday) (identity *models.Identity, created bool, err error)
}
