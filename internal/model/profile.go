// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data, similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Profile field keys. They double as form input names and JSON keys, so the
// intake form, the JSON API and the persisted document all agree.
const (
	FieldFullName     = "fullName"
	FieldBusinessName = "businessName"
	FieldDescription  = "description"
	FieldEmail        = "email"
	FieldInstagram    = "instagram"
	FieldFacebook     = "facebook"
	FieldWebsite      = "website"
)

// ProfileFields lists every intake field in display order.
var ProfileFields = []ProfileField{
	{Key: FieldFullName, Label: "Full Name", Required: true},
	{Key: FieldBusinessName, Label: "Business Name", Required: true},
	{Key: FieldDescription, Label: "Description", Required: true},
	{Key: FieldEmail, Label: "E-mail"},
	{Key: FieldInstagram, Label: "Instagram"},
	{Key: FieldFacebook, Label: "Facebook"},
	{Key: FieldWebsite, Label: "Website"},
}

// ProfileField describes one input of the intake form.
type ProfileField struct {
	Key      string
	Label    string
	Required bool
}

// ProfileRecord is the identity collected by the intake step.
//
// The contact fields are stored RAW, exactly as the user typed them (after
// trimming). Safe links are derived at render time, never persisted.
//
// ID is assigned by the document store and is not part of the stored body,
// hence `json:"-"`.
type ProfileRecord struct {
	ID           string    `json:"-"`
	FullName     string    `json:"fullName"`
	BusinessName string    `json:"businessName"`
	Description  string    `json:"description"`
	Email        string    `json:"email"`
	Instagram    string    `json:"instagram"`
	Facebook     string    `json:"facebook"`
	Website      string    `json:"website"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Value returns the raw value of a profile field by key.
func (p ProfileRecord) Value(key string) string {
	switch key {
	case FieldFullName:
		return p.FullName
	case FieldBusinessName:
		return p.BusinessName
	case FieldDescription:
		return p.Description
	case FieldEmail:
		return p.Email
	case FieldInstagram:
		return p.Instagram
	case FieldFacebook:
		return p.Facebook
	case FieldWebsite:
		return p.Website
	}
	return ""
}

// ProfileFromFields builds a record from a key→value mapping. Unknown keys
// are ignored; missing keys become empty strings.
func ProfileFromFields(fields map[string]string) ProfileRecord {
	return ProfileRecord{
		FullName:     fields[FieldFullName],
		BusinessName: fields[FieldBusinessName],
		Description:  fields[FieldDescription],
		Email:        fields[FieldEmail],
		Instagram:    fields[FieldInstagram],
		Facebook:     fields[FieldFacebook],
		Website:      fields[FieldWebsite],
	}
}
