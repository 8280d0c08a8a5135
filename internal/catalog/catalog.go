// Package catalog holds the lecture catalog decoded from the published JSON
// document: lecture ids mapped to ordered transcript sections.
package catalog

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/zeebo/blake3"
)

// ErrDecode is returned when the document does not have the
// {lecture: {section: markdown}} shape.
var ErrDecode = errors.New("catalog: malformed document")

// Section is one transcript chunk of a lecture.
type Section struct {
	Key     string
	Content string
}

// Lecture is a titled, ordered list of sections.
type Lecture struct {
	ID       string
	Name     string
	Sections []Section
}

// Catalog is the ordered set of lectures.
type Catalog struct {
	Lectures []Lecture
	index    map[string]int
}

// New builds a catalog from lectures, keeping their order.
func New(lectures []Lecture) *Catalog {
	c := &Catalog{Lectures: lectures}
	c.reindex()
	return c
}

func (c *Catalog) reindex() {
	c.index = make(map[string]int, len(c.Lectures))
	for i, l := range c.Lectures {
		c.index[l.ID] = i
	}
}

// Parse decodes the published document. Keys are ordered the way a browser
// enumerates object properties: integer-like keys ascending, then the rest in
// document order. names maps lecture ids to display names; ids without an
// entry are displayed as-is.
func Parse(data []byte, names map[string]string) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	type rawLecture struct {
		id       string
		sections []Section
	}
	var lectures []rawLecture
	seen := make(map[string]int)

	for dec.More() {
		id, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		sections, err := readSections(dec, id)
		if err != nil {
			return nil, err
		}
		if i, ok := seen[id]; ok {
			lectures[i].sections = sections
			continue
		}
		seen[id] = len(lectures)
		lectures = append(lectures, rawLecture{id: id, sections: sections})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrDecode)
	}

	ids := make([]string, len(lectures))
	for i, l := range lectures {
		ids[i] = l.id
	}
	ordered := make([]Lecture, 0, len(lectures))
	for _, id := range orderKeys(ids) {
		l := lectures[seen[id]]
		ordered = append(ordered, Lecture{
			ID:       l.id,
			Name:     displayName(names, l.id),
			Sections: l.sections,
		})
	}
	return New(ordered), nil
}

func readSections(dec *json.Decoder, lectureID string) ([]Section, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("lecture %q: %w", lectureID, err)
	}

	var sections []Section
	seen := make(map[string]int)
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		content, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: section %q of lecture %q is not a string", ErrDecode, key, lectureID)
		}
		if i, ok := seen[key]; ok {
			sections[i].Content = content
			continue
		}
		seen[key] = len(sections)
		sections = append(sections, Section{Key: key, Content: content})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	keys := make([]string, len(sections))
	for i, s := range sections {
		keys[i] = s.Key
	}
	ordered := make([]Section, 0, len(sections))
	for _, k := range orderKeys(keys) {
		ordered = append(ordered, sections[seen[k]])
	}
	return ordered, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("%w: expected %q", ErrDecode, want)
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key", ErrDecode)
	}
	return key, nil
}

// orderKeys returns keys in property enumeration order.
func orderKeys(keys []string) []string {
	var indices []string
	var rest []string
	for _, k := range keys {
		if isArrayIndex(k) {
			indices = append(indices, k)
		} else {
			rest = append(rest, k)
		}
	}
	// Insertion sort; catalogs are small and mostly sorted already.
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && indexLess(indices[j], indices[j-1]); j-- {
			indices[j], indices[j-1] = indices[j-1], indices[j]
		}
	}
	return append(indices, rest...)
}

func isArrayIndex(k string) bool {
	if k == "" || (len(k) > 1 && k[0] == '0') {
		return false
	}
	n, err := strconv.ParseUint(k, 10, 64)
	if err != nil {
		return false
	}
	return n < 1<<32-1
}

func indexLess(a, b string) bool {
	x, _ := strconv.ParseUint(a, 10, 64)
	y, _ := strconv.ParseUint(b, 10, 64)
	return x < y
}

func displayName(names map[string]string, id string) string {
	if n := strings.TrimSpace(names[id]); n != "" {
		return n
	}
	return id
}

// Len returns the number of lectures.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Lectures)
}

// IDs returns lecture ids in display order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, c.Len())
	if c == nil {
		return ids
	}
	for _, l := range c.Lectures {
		ids = append(ids, l.ID)
	}
	return ids
}

// First returns the id of the first lecture.
func (c *Catalog) First() (string, bool) {
	if c.Len() == 0 {
		return "", false
	}
	return c.Lectures[0].ID, true
}

// Lookup finds a lecture by id.
func (c *Catalog) Lookup(id string) (*Lecture, bool) {
	if c == nil {
		return nil, false
	}
	if c.index == nil {
		c.reindex()
	}
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return &c.Lectures[i], true
}

// Fingerprint is a BLAKE3 digest of the source content. Display names are
// not part of it; renderers key cached pages on them separately.
func (c *Catalog) Fingerprint() string {
	h := blake3.New()
	if c != nil {
		for _, l := range c.Lectures {
			h.Write([]byte(l.ID))
			h.Write([]byte{0})
			for _, s := range l.Sections {
				h.Write([]byte(s.Key))
				h.Write([]byte{0})
				h.Write([]byte(s.Content))
				h.Write([]byte{0})
			}
			h.Write([]byte{1})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Filter keeps lectures whose id matches any include pattern (all when
// include is empty) and no exclude pattern.
func (c *Catalog) Filter(include, exclude []string) (*Catalog, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return c, nil
	}
	for _, p := range append(append([]string{}, include...), exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid lecture pattern %q", p)
		}
	}

	var kept []Lecture
	for _, l := range c.Lectures {
		if len(include) > 0 && !matchAny(include, l.ID) {
			continue
		}
		if matchAny(exclude, l.ID) {
			continue
		}
		kept = append(kept, l)
	}
	return New(kept), nil
}

func matchAny(patterns []string, id string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, id); ok {
			return true
		}
	}
	return false
}

// MarshalJSON writes the catalog back in its published shape, preserving order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, l := range c.Lectures {
		if i > 0 {
			b.WriteByte(',')
		}
		writeString(&b, l.ID)
		b.WriteString(":{")
		for j, s := range l.Sections {
			if j > 0 {
				b.WriteByte(',')
			}
			writeString(&b, s.Key)
			b.WriteByte(':')
			writeString(&b, s.Content)
		}
		b.WriteByte('}')
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func writeString(b *bytes.Buffer, s string) {
	data, _ := json.Marshal(s)
	b.Write(data)
}

// Heading is the sidebar label of a section: its first line without the
// leading heading marks, or the first 24 characters of the key.
func (s Section) Heading() string {
	line, _, _ := strings.Cut(s.Content, "\n")
	line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
	if line != "" {
		return line
	}
	return truncateRunes(s.Key, 24)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ToID turns a key into an HTML id: every character outside [a-zA-Z0-9]
// becomes '-', and the result is lowercased.
func ToID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}
