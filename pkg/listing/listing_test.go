package listing

import (
	"errors"
	"testing"

	"github.com/goccy/go-json"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTitle string
		wantDesc  string
		wantField string
	}{
		{
			name:      "html entities decoded",
			raw:       `{"title":"Rick &amp; Morty Headcover","description":"Pickle Rick &quot;driver&quot; cover&#39;s back","price":"25.00"}`,
			wantTitle: "Rick & Morty Headcover",
			wantDesc:  `Pickle Rick "driver" cover's back`,
		},
		{
			name:      "plain text untouched",
			raw:       `{"title":"Driver Cover","description":"Fits all drivers"}`,
			wantTitle: "Driver Cover",
			wantDesc:  "Fits all drivers",
		},
		{
			name:      "empty strings are allowed",
			raw:       `{"title":"","description":""}`,
			wantTitle: "",
			wantDesc:  "",
		},
		{
			name:      "missing title",
			raw:       `{"description":"no title"}`,
			wantField: "title",
		},
		{
			name:      "missing description",
			raw:       `{"title":"no description"}`,
			wantField: "description",
		},
		{
			name:      "null description",
			raw:       `{"title":"x","description":null}`,
			wantField: "description",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw), 3)

			if tt.wantField != "" {
				if !errors.Is(err, ErrMalformedRecord) {
					t.Fatalf("err = %v, want ErrMalformedRecord", err)
				}
				var mre *MalformedRecordError
				if !errors.As(err, &mre) {
					t.Fatalf("err = %T, want *MalformedRecordError", err)
				}
				if mre.Field != tt.wantField {
					t.Errorf("Field = %q, want %q", mre.Field, tt.wantField)
				}
				if mre.Index != 3 {
					t.Errorf("Index = %d, want 3", mre.Index)
				}
				return
			}

			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got.Title, tt.wantTitle)
			}
			if got.Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDesc)
			}
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`[1,2`), 0)
	if !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("err = %v, want ErrMalformedRecord", err)
	}
}

func TestDecodeAll(t *testing.T) {
	raws := []json.RawMessage{
		json.RawMessage(`{"title":"a","description":"1"}`),
		json.RawMessage(`{"title":"b","description":"2"}`),
	}

	listings, err := DecodeAll(raws)
	if err != nil {
		t.Fatalf("DecodeAll() error = %v", err)
	}
	if len(listings) != 2 || listings[0].Title != "a" || listings[1].Title != "b" {
		t.Errorf("listings = %+v", listings)
	}

	raws = append(raws, json.RawMessage(`{"title":"c"}`))
	if _, err := DecodeAll(raws); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("err = %v, want ErrMalformedRecord", err)
	}
}

func TestMalformedRecordError_Error(t *testing.T) {
	err := &MalformedRecordError{Index: 2, Field: "title"}
	want := `malformed listing record (index 2): missing field "title"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	envelope := &MalformedRecordError{Index: EnvelopeIndex, Field: "pagination"}
	want = `malformed listing record: response missing field "pagination"`
	if envelope.Error() != want {
		t.Errorf("Error() = %q, want %q", envelope.Error(), want)
	}
	if !errors.Is(envelope, ErrMalformedRecord) {
		t.Error("envelope error should match ErrMalformedRecord")
	}
}

func TestListing_Document(t *testing.T) {
	l := Listing{Title: "Rick", Description: "Morty"}
	if l.Document() != "Rick Morty" {
		t.Errorf("Document() = %q", l.Document())
	}
}
