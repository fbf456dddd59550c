package domain

import (
	"strings"
	"time"
)

// Destination is a catalog entry. OwnerID and CreatedAt are assigned by the
// server at creation and never change afterwards.
type Destination struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Img         string    `json:"img,omitempty"`
	Location    string    `json:"location,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	Activities  []string  `json:"activities"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Destination field names as exposed to clients. They double as the
// whitelist for sorting and projection.
const (
	FieldID          = "id"
	FieldOwnerID     = "ownerId"
	FieldName        = "name"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldImg         = "img"
	FieldLocation    = "location"
	FieldPrice       = "price"
	FieldRating      = "rating"
	FieldActivities  = "activities"
	FieldCreatedAt   = "createdAt"
)

var destinationFields = map[string]struct{}{
	FieldID: {}, FieldOwnerID: {}, FieldName: {}, FieldCategory: {},
	FieldDescription: {}, FieldImg: {}, FieldLocation: {}, FieldPrice: {},
	FieldRating: {}, FieldActivities: {}, FieldCreatedAt: {},
}

// IsDestinationField reports whether name is a known destination field.
func IsDestinationField(name string) bool {
	_, ok := destinationFields[name]
	return ok
}

// Project returns only the named fields of d, keyed by client field name.
// Unknown names are skipped.
func (d *Destination) Project(fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case FieldID:
			out[f] = d.ID
		case FieldOwnerID:
			out[f] = d.OwnerID
		case FieldName:
			out[f] = d.Name
		case FieldCategory:
			out[f] = d.Category
		case FieldDescription:
			out[f] = d.Description
		case FieldImg:
			out[f] = d.Img
		case FieldLocation:
			out[f] = d.Location
		case FieldPrice:
			out[f] = d.Price
		case FieldRating:
			out[f] = d.Rating
		case FieldActivities:
			out[f] = d.Activities
		case FieldCreatedAt:
			out[f] = d.CreatedAt
		}
	}
	return out
}

// DestinationFields carries the client-settable fields of a Destination.
// A nil pointer means the field was not supplied. Rejected lists supplied
// values the transport could not convert to the field's type; those fields
// are left nil.
type DestinationFields struct {
	Name        *string   `json:"name"        validate:"omitnil,notblank"`
	Category    *string   `json:"category"    validate:"omitnil,notblank"`
	Description *string   `json:"description"`
	Img         *string   `json:"img"`
	Location    *string   `json:"location"`
	Price       *float64  `json:"price"`
	Rating      *float64  `json:"rating"`
	Activities  *[]string `json:"activities"`

	Rejected []FieldError `json:"-" validate:"-"`
}

// Reject records a supplied value that has the wrong type.
func (f *DestinationFields) Reject(field, message string) {
	f.Rejected = append(f.Rejected, FieldError{Field: field, Message: message})
}

// IsRejected reports whether field was supplied with the wrong type.
func (f DestinationFields) IsRejected(field string) bool {
	for _, r := range f.Rejected {
		if r.Field == field {
			return true
		}
	}
	return false
}

// Normalize trims surrounding whitespace from every supplied string.
func (f *DestinationFields) Normalize() {
	for _, s := range []*string{f.Name, f.Category, f.Description, f.Img, f.Location} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if f.Activities != nil && *f.Activities == nil {
		empty := []string{}
		f.Activities = &empty
	}
}

// Empty reports whether no usable field was supplied.
func (f DestinationFields) Empty() bool {
	return f.Name == nil && f.Category == nil && f.Description == nil &&
		f.Img == nil && f.Location == nil && f.Price == nil &&
		f.Rating == nil && f.Activities == nil
}

// ApplyTo copies every supplied field onto d.
func (f DestinationFields) ApplyTo(d *Destination) {
	if f.Name != nil {
		d.Name = *f.Name
	}
	if f.Category != nil {
		d.Category = *f.Category
	}
	if f.Description != nil {
		d.Description = *f.Description
	}
	if f.Img != nil {
		d.Img = *f.Img
	}
	if f.Location != nil {
		d.Location = *f.Location
	}
	if f.Price != nil {
		v := *f.Price
		d.Price = &v
	}
	if f.Rating != nil {
		v := *f.Rating
		d.Rating = &v
	}
	if f.Activities != nil {
		d.Activities = append([]string{}, (*f.Activities)...)
	}
}
