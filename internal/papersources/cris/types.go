// Package cris provides a client for the public research API of a CRIS
// (current research information system) installation.
//
// The list endpoint returns publications page by page together with the page
// and record totals; the detail endpoint returns one publication including its
// local authors. Payload fields are loosely typed by the server (a year may be
// a number, a string or missing), so nested values are kept as raw JSON and
// read with the tolerant helpers in this file.
package cris

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/attlih/cris-network-tool/internal/papersources"
)

// ListResponse is the body of the publication list endpoint.
type ListResponse struct {
	Data []Publication `json:"data"`
	Meta Meta          `json:"meta"`
}

// Meta carries pagination totals for a list response.
type Meta = papersources.PageMeta

// Publication is one entry of the list endpoint.
type Publication struct {
	ID   json.RawMessage `json:"id"`
	Data PublicationData `json:"data"`
}

// PublicationData holds the nested publication fields. Each field is kept raw
// because its shape varies between records.
type PublicationData struct {
	TitleOfPublication             json.RawMessage `json:"titleOfPublication"`
	AuthorsOfThePublication        json.RawMessage `json:"authorsOfThePublication"`
	DetailedPublicationInformation json.RawMessage `json:"detailedPublicationInformation"`
}

// DetailResponse is the body of the publication detail endpoint.
type DetailResponse struct {
	ID   json.RawMessage `json:"id"`
	Data DetailData      `json:"data"`
}

// DetailData holds the fields of a publication detail that the tool reads.
type DetailData struct {
	AuthorsOfThePublication json.RawMessage `json:"authorsOfThePublication"`
}

// LocalAuthor is one entry of authorsOfThePublication.localAuthors.
type LocalAuthor struct {
	Author AuthorInfo `json:"author"`
}

// AuthorInfo identifies a local author.
type AuthorInfo struct {
	ID        json.RawMessage `json:"id"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
}

// Scalar renders a raw JSON value as a string. Strings are unquoted, numbers
// and booleans keep their literal text, and null, objects, arrays or invalid
// input yield "".
func Scalar(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '{', '[', 'n':
		return ""
	default:
		var v any
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return ""
		}
		return strings.TrimSpace(string(raw))
	}
}

// Object decodes a raw JSON object. Anything that is not an object yields an
// empty, non-nil map.
func Object(raw json.RawMessage) map[string]json.RawMessage {
	obj := map[string]json.RawMessage{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return obj
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return map[string]json.RawMessage{}
	}
	return obj
}

// Array decodes a raw JSON array. Anything that is not an array yields nil.
func Array(raw json.RawMessage) []json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil
	}
	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil
	}
	return arr
}

// Text reads a field that is either a plain scalar or an object carrying the
// value under key (the list endpoint nests, e.g., the title as
// titleOfPublication.titleOfPublication).
func Text(raw json.RawMessage, key string) string {
	if obj := Object(raw); len(obj) > 0 {
		return Scalar(obj[key])
	}
	return Scalar(raw)
}

// LocalAuthors decodes authorsOfThePublication.localAuthors, skipping
// entries that do not parse.
func LocalAuthors(authorsOfThePublication json.RawMessage) []LocalAuthor {
	entries := Array(Object(authorsOfThePublication)["localAuthors"])
	authors := make([]LocalAuthor, 0, len(entries))
	for _, entry := range entries {
		var la LocalAuthor
		if err := json.Unmarshal(entry, &la); err != nil {
			continue
		}
		authors = append(authors, la)
	}
	return authors
}
