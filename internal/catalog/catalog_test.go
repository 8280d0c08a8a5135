package catalog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `{
  "2761974": {"12": "# Third\nbody", "3": "## Second"},
  "2657588": {"b": "no heading line", "a": "# First\n$x$"},
  "notes": {"x": ""}
}`

func TestParseOrdersKeysLikeObjectEnumeration(t *testing.T) {
	c, err := Parse([]byte(sampleDoc), map[string]string{"2657588": "Grundzüge digitaler Systeme"})
	require.NoError(t, err)

	assert.Equal(t, []string{"2657588", "2761974", "notes"}, c.IDs())

	l, ok := c.Lookup("2761974")
	require.True(t, ok)
	require.Len(t, l.Sections, 2)
	assert.Equal(t, "3", l.Sections[0].Key)
	assert.Equal(t, "12", l.Sections[1].Key)

	l, ok = c.Lookup("2657588")
	require.True(t, ok)
	assert.Equal(t, "Grundzüge digitaler Systeme", l.Name)
	assert.Equal(t, "b", l.Sections[0].Key, "non-index keys keep document order")

	l, _ = c.Lookup("notes")
	assert.Equal(t, "notes", l.Name, "unknown ids display as themselves")
}

func TestParseRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"array root":         `[]`,
		"string section map": `{"1": "text"}`,
		"number section":     `{"1": {"a": 3}}`,
		"trailing data":      `{"1": {}} {}`,
		"truncated":          `{"1": {"a": "b"`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc), nil)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestParseDuplicateKeysLastWins(t *testing.T) {
	c, err := Parse([]byte(`{"1": {"a": "old", "b": "x", "a": "new"}}`), nil)
	require.NoError(t, err)
	l, _ := c.Lookup("1")
	require.Len(t, l.Sections, 2)
	assert.Equal(t, "new", l.Sections[0].Content)
}

func TestIsArrayIndex(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"0", true},
		{"2657588", true},
		{"4294967294", true},
		{"4294967295", false},
		{"01", false},
		{"-1", false},
		{"+1", false},
		{"1.5", false},
		{"", false},
		{"abc", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isArrayIndex(tt.key), "isArrayIndex(%q)", tt.key)
	}
}

func TestFingerprint(t *testing.T) {
	a, err := Parse([]byte(sampleDoc), nil)
	require.NoError(t, err)
	b, err := Parse([]byte(sampleDoc), map[string]string{"notes": "Renamed"})
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "display names do not change the fingerprint")
	assert.Len(t, a.Fingerprint(), 64)

	changed, err := Parse([]byte(`{"2657588": {"a": "# First\n$y$"}}`), nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), changed.Fingerprint())

	// Moving a boundary between key and content must change the digest.
	x := New([]Lecture{{ID: "1", Sections: []Section{{Key: "ab", Content: "c"}}}})
	y := New([]Lecture{{ID: "1", Sections: []Section{{Key: "a", Content: "bc"}}}})
	assert.NotEqual(t, x.Fingerprint(), y.Fingerprint())
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	c, err := Parse([]byte(sampleDoc), nil)
	require.NoError(t, err)

	data, err := json.Marshal(c)
	require.NoError(t, err)

	again, err := Parse(data, nil)
	require.NoError(t, err)
	assert.Equal(t, c.IDs(), again.IDs())
	assert.Equal(t, c.Fingerprint(), again.Fingerprint())
}

func TestFilter(t *testing.T) {
	c, err := Parse([]byte(sampleDoc), nil)
	require.NoError(t, err)

	got, err := c.Filter([]string{"26*", "27*"}, []string{"2761974"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2657588"}, got.IDs())

	got, err = c.Filter(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, c.IDs(), got.IDs())

	_, err = c.Filter([]string{"[unclosed"}, nil)
	assert.Error(t, err)
}

func TestSectionHeading(t *testing.T) {
	tests := []struct {
		section Section
		want    string
	}{
		{Section{Key: "1", Content: "# Boolean algebra\nmore"}, "Boolean algebra"},
		{Section{Key: "1", Content: "## Nested"}, "Nested"},
		{Section{Key: "1", Content: "Plain first line"}, "Plain first line"},
		{Section{Key: "abcdefghijklmnopqrstuvwxyz", Content: ""}, "abcdefghijklmnopqrstuvwx"},
		{Section{Key: "short", Content: "#\nbody"}, "short"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.section.Heading())
	}
}

func TestToID(t *testing.T) {
	tests := map[string]string{
		"Section 1":   "section-1",
		"ABC_def.ghi": "abc-def-ghi",
		"12345":       "12345",
		"Grundzüge":   "grundz-ge",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToID(in), "ToID(%q)", in)
	}
}

func TestEmptyCatalog(t *testing.T) {
	c, err := Parse([]byte(`{}`), nil)
	require.NoError(t, err)
	_, ok := c.First()
	assert.False(t, ok)
	assert.Empty(t, c.IDs())
}
