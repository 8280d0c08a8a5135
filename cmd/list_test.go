package cmd

import (
	"strings"
	"testing"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
)

func TestLectureTable(t *testing.T) {
	cat := catalog.New([]catalog.Lecture{
		{ID: "1", Name: "Algebra", Sections: []catalog.Section{{Key: "a", Content: "# Sets"}, {Key: "b", Content: "# Maps"}}},
		{ID: "2", Name: "Logic", Sections: []catalog.Section{{Key: "c", Content: "# Truth"}}},
	})

	out := lectureTable(cat, false)
	for _, want := range []string{"ID", "LECTURE", "SECTIONS", "Algebra", "Logic"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Sets") {
		t.Error("section headings should be hidden by default")
	}

	out = lectureTable(cat, true)
	if !strings.Contains(out, "1. Sets") || !strings.Contains(out, "2. Maps") {
		t.Errorf("table missing section headings:\n%s", out)
	}
}

func TestShortFingerprint(t *testing.T) {
	if got := shortFingerprint("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("got %q", got)
	}
	if got := shortFingerprint("abc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}
