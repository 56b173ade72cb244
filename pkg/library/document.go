package library

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/seagrayinc/access-profiles/pkg/profile"
)

const DocumentVersion = 1

// Document is the exchanged library file format.
type Document struct {
	Version         int               `json:"version"`
	ExportDate      string            `json:"exportDate,omitempty"`
	Library         []profile.Profile `json:"library"`
	SlotAssignments [NumSlots]*int    `json:"slotAssignments"`
}

// rawDocument accepts both the current format and the legacy one, which
// carried up to three profiles keyed "profile1".."profile3".
type rawDocument struct {
	Version         int                         `json:"version"`
	ExportDate      string                      `json:"exportDate"`
	Library         *[]profile.Profile          `json:"library"`
	SlotAssignments []*int                      `json:"slotAssignments"`
	Profiles        map[string]*profile.Profile `json:"profiles"`
}

// ParseDocument reads a library document in either format.
func ParseDocument(r io.Reader) (Document, error) {
	var raw rawDocument
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("parse library document: %w", err)
	}

	doc := Document{Version: raw.Version, ExportDate: raw.ExportDate}
	switch {
	case raw.Library != nil:
		doc.Library = *raw.Library
		for n := 0; n < NumSlots && n < len(raw.SlotAssignments); n++ {
			if i := raw.SlotAssignments[n]; i != nil && *i >= 0 && *i < len(doc.Library) {
				doc.SlotAssignments[n] = intPtr(*i)
			}
		}
	case raw.Profiles != nil:
		for n := 1; n <= NumSlots; n++ {
			p := raw.Profiles[fmt.Sprintf("profile%d", n)]
			if p == nil {
				continue
			}
			doc.Library = append(doc.Library, *p)
			doc.SlotAssignments[n-1] = intPtr(len(doc.Library) - 1)
		}
	default:
		return Document{}, ErrInvalidDocument
	}

	for i := range doc.Library {
		doc.Library[i].Name = profile.TrimName(doc.Library[i].Name)
		if doc.Library[i].Name == "" {
			doc.Library[i].Name = profile.DefaultName
		}
	}
	return doc, nil
}

// WriteDocument writes doc as indented JSON.
func WriteDocument(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Export builds the document describing s.
func (s State) Export(now time.Time) Document {
	doc := Document{
		Version:    DocumentVersion,
		ExportDate: now.UTC().Format(time.RFC3339),
		Library:    s.Profiles(),
	}
	if doc.Library == nil {
		doc.Library = []profile.Profile{}
	}
	for n := 1; n <= NumSlots; n++ {
		if i, ok := s.Slot(n); ok {
			doc.SlotAssignments[n-1] = intPtr(i)
		}
	}
	return doc
}

// FromDocument restores a state exactly as doc describes it, without
// reconciling against anything.
func FromDocument(doc Document) State {
	s := New(doc.Library...)
	s.slots = doc.slots()
	return s
}

// slots converts the nullable assignments to the registry encoding, dropping
// indices that do not refer to a library entry.
func (doc Document) slots() [NumSlots]int {
	var out [NumSlots]int
	for n, i := range doc.SlotAssignments {
		if i != nil && *i >= 0 && *i < len(doc.Library) {
			out[n] = *i + 1
		}
	}
	return out
}

func intPtr(i int) *int { return &i }
