package model

import "time"

// SavedCard is the combined document written once by the configurator's save
// and read by the share viewer.
//
// The profile is embedded verbatim (raw contact fields). Links are recomputed
// from it on every render.
type SavedCard struct {
	ID        string        `json:"-"`
	Profile   ProfileRecord `json:"profile"`
	Style     StyleConfig   `json:"style"`
	CreatedAt time.Time     `json:"createdAt"`
}
