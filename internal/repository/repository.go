// Package repository defines the persistence boundary of the card builder.
//
// Everything is stored as a JSON document inside a named collection, the
// same shape a hosted document database offers. Two backends implement
// DocumentStore: repository/sqlite (default, embedded) and
// repository/postgres (jsonb).
package repository

import (
	"context"

	"github.com/rs/xid"
)

// Collections.
const (
	CollectionProfiles = "profiles"
	CollectionCards    = "cards"
)

// DocumentStore persists JSON documents.
//
// Create marshals doc, stores it under a fresh ID and returns the ID.
// Get unmarshals the stored body into dst and returns an apperror.NotFound
// error when the collection holds no such ID. Documents are never updated
// or deleted.
type DocumentStore interface {
	Create(ctx context.Context, collection string, doc any) (string, error)
	Get(ctx context.Context, collection, id string, dst any) error
	Close() error
}

// NewID returns a fresh document locator: 20 URL-safe characters, sortable
// by creation time.
func NewID() string {
	return xid.New().String()
}

// ValidID reports whether id has the shape NewID produces. Handlers use it
// to answer obviously bogus locators without a store round trip.
func ValidID(id string) bool {
	_, err := xid.FromString(id)
	return err == nil
}
