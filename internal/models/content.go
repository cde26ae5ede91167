package models

import (
	"fmt"
	"strings"
)

// ContentType identifies which kind of content piece a reference points at.
// Content lives in its own store, so references carry a type+slug pair
// rather than a foreign key.
type ContentType string

const (
	ContentTypeEssay     ContentType = "essay"
	ContentTypeFieldNote ContentType = "field_note"
	ContentTypeProject   ContentType = "project"
	ContentTypeShelf     ContentType = "shelf"
	ContentTypeToolkit   ContentType = "toolkit"
	ContentTypeNow       ContentType = "now"
)

// ContentTypes lists every valid content type.
var ContentTypes = []ContentType{
	ContentTypeEssay,
	ContentTypeFieldNote,
	ContentTypeProject,
	ContentTypeShelf,
	ContentTypeToolkit,
	ContentTypeNow,
}

// Valid reports whether t is a known content type.
func (t ContentType) Valid() bool {
	switch t {
	case ContentTypeEssay, ContentTypeFieldNote, ContentTypeProject,
		ContentTypeShelf, ContentTypeToolkit, ContentTypeNow:
		return true
	default:
		return false
	}
}

// HasDraftFlag reports whether this content type tracks a draft/published
// flag that the publisher flips on success. Shelf, toolkit, and the Now
// page are published-as-saved and carry no flag.
func (t ContentType) HasDraftFlag() bool {
	switch t {
	case ContentTypeEssay, ContentTypeFieldNote, ContentTypeProject:
		return true
	default:
		return false
	}
}

// ContentRef is a cross-store reference to one content piece.
type ContentRef struct {
	Type ContentType `json:"content_type"`
	Slug string      `json:"content_slug"`
}

// Key returns the wire form "type:slug" used as a map key in the
// backlink graph and in published JSON.
func (r ContentRef) Key() string {
	return string(r.Type) + ":" + r.Slug
}

// ParseContentKey parses a "type:slug" key back into a ContentRef.
func ParseContentKey(key string) (ContentRef, error) {
	typ, slug, ok := strings.Cut(key, ":")
	if !ok {
		return ContentRef{}, fmt.Errorf("invalid content key %q", key)
	}
	ref := ContentRef{Type: ContentType(typ), Slug: slug}
	if !ref.Type.Valid() {
		return ContentRef{}, fmt.Errorf("invalid content type %q in key", typ)
	}
	if ref.Slug == "" {
		return ContentRef{}, fmt.Errorf("empty slug in content key %q", key)
	}
	return ref, nil
}
