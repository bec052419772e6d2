// Package listing holds the simplified Etsy listing record and its decoder.
package listing

import (
	"errors"
	"fmt"
	"html"

	"github.com/goccy/go-json"
)

// ErrMalformedRecord is returned when a listing record violates the expected schema.
var ErrMalformedRecord = errors.New("malformed listing record")

// EnvelopeIndex is the MalformedRecordError index for fields of the response
// itself rather than of one listing.
const EnvelopeIndex = -1

// MalformedRecordError describes which record and field could not be decoded.
type MalformedRecordError struct {
	Index int
	Field string
	Err   error
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	if e.Index == EnvelopeIndex {
		return fmt.Sprintf("%s: response missing field %q", ErrMalformedRecord, e.Field)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (index %d): %v", ErrMalformedRecord, e.Index, e.Err)
	}
	return fmt.Sprintf("%s (index %d): missing field %q", ErrMalformedRecord, e.Index, e.Field)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// Is matches ErrMalformedRecord.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Listing is an Etsy shop listing reduced to the text used for term extraction.
type Listing struct {
	Title       string
	Description string
}

// Document returns the text analysed for a listing.
func (l Listing) Document() string {
	return l.Title + " " + l.Description
}

type rawListing struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// Decode builds a Listing from one element of a response's results array.
// Etsy returns HTML-encoded text, so both fields are unescaped.
// A missing or null field is an error, never an empty string.
func Decode(raw []byte, index int) (Listing, error) {
	var r rawListing
	if err := json.Unmarshal(raw, &r); err != nil {
		return Listing{}, &MalformedRecordError{Index: index, Err: err}
	}
	if r.Title == nil {
		return Listing{}, &MalformedRecordError{Index: index, Field: "title"}
	}
	if r.Description == nil {
		return Listing{}, &MalformedRecordError{Index: index, Field: "description"}
	}

	return Listing{
		Title:       html.UnescapeString(*r.Title),
		Description: html.UnescapeString(*r.Description),
	}, nil
}

// DecodeAll decodes every record in order and fails on the first malformed one.
func DecodeAll(raws []json.RawMessage) ([]Listing, error) {
	listings := make([]Listing, 0, len(raws))
	for i, raw := range raws {
		l, err := Decode(raw, i)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}
