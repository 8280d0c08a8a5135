package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
)

const testLink = "https://example.org/view.php?id={lecture}&e={section}"

func mustCatalog(t *testing.T, doc string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(doc), map[string]string{"1": "Algebra <I>", "2": "Analysis"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return cat
}

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"timestamps removed", "{ts}00:01:02.50{/ts}Hello {ts}1:02{/ts}world", "Hello world"},
		{"timestamp with letters kept", "{ts}abc{/ts}", "{ts}abc{/ts}"},
		{"inline math escaped", "see $a*b_c$ here", `see $a\*b\_c$ here`},
		{"block math escaped", "$$\n\\frac{1}{2}\n$$", "$$\n\\\\frac\\{1\\}\\{2\\}\n$$"},
		{"inline math does not span lines", "$a_b\nc$", "$a_b\nc$"},
		{"block before inline", "$$x_1$$ and $y_2$", `$$x\_1$$ and $y\_2$`},
		{"lone dollar", "costs 5$", "costs 5$"},
		{"adjacent dollars are not inline", "$$$", "$$$"},
		{"plain text untouched", "# Title\n\n*emph*", "# Title\n\n*emph*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Preprocess(tt.in); got != tt.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSectionURL(t *testing.T) {
	r := NewRenderer(testLink)
	got := r.SectionURL("2657588", "Part 1/2")
	want := "https://example.org/view.php?id=2657588&e=Part+1%2F2"
	if got != want {
		t.Errorf("SectionURL = %q, want %q", got, want)
	}

	if got := NewRenderer("").SectionURL("1", "a"); got != "" {
		t.Errorf("empty template should give empty link, got %q", got)
	}
}

func TestSectionLinksFirstBlock(t *testing.T) {
	r := NewRenderer(testLink)
	out, err := r.Section("1", catalog.Section{Key: "Week 1", Content: "# Intro\n\nBody with $a_b$."})
	if err != nil {
		t.Fatalf("Section: %v", err)
	}

	for _, want := range []string{
		`<div class="section" id="week-1">`,
		`<div class="prose">`,
		`<a class="recording-link" href="https://example.org/view.php?id=1&amp;e=Week+1">Intro</a></h1>`,
		`$a_b$`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("section output missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "recording-link") != 1 {
		t.Errorf("expected exactly one link, got:\n%s", out)
	}
}

func TestSectionLinksVoidFirstElement(t *testing.T) {
	r := NewRenderer(testLink)
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"thematic break", "---\n\nSome text", `<a class="recording-link" href="https://example.org/view.php?id=1&amp;e=k"><hr/></a>`},
		{"line break", "<br>\nline", `<a class="recording-link" href="https://example.org/view.php?id=1&amp;e=k"><br/></a>`},
		{"image", `<img src="x.png">`, `<a class="recording-link" href="https://example.org/view.php?id=1&amp;e=k"><img src="x.png"/></a>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Section("1", catalog.Section{Key: "k", Content: tt.content})
			if err != nil {
				t.Fatalf("Section: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("section output missing %q:\n%s", tt.want, out)
			}
		})
	}
}

func TestStaticLinksColonID(t *testing.T) {
	if got := StaticLinks("a:b", NavState{}); got != "./a:b.html" {
		t.Errorf("StaticLinks(a:b) = %q", got)
	}
}

func TestSectionWithoutLink(t *testing.T) {
	r := NewRenderer("")
	out, err := r.Section("1", catalog.Section{Key: "k", Content: "plain"})
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if strings.Contains(out, "<a ") {
		t.Errorf("no link expected:\n%s", out)
	}
	if !strings.Contains(out, "<p>plain</p>") {
		t.Errorf("missing paragraph:\n%s", out)
	}
}

func TestSectionEmptyContent(t *testing.T) {
	r := NewRenderer(testLink)
	out, err := r.Section("1", catalog.Section{Key: "empty", Content: ""})
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if !strings.Contains(out, `id="empty"`) {
		t.Errorf("missing container:\n%s", out)
	}
}

func TestLecture(t *testing.T) {
	cat := mustCatalog(t, `{"1":{"a":"# A","b":"# B"},"2":{"only":"# Only"}}`)
	r := NewRenderer(testLink)

	l, _ := cat.Lookup("1")
	out, err := r.Lecture(l)
	if err != nil {
		t.Fatalf("Lecture: %v", err)
	}
	if !strings.Contains(out, `<h2 class="post-title">Algebra &lt;I&gt;</h2>`) {
		t.Errorf("title not escaped:\n%s", out)
	}
	if !strings.Contains(out, `<p class="section-count">2 sections</p>`) {
		t.Errorf("missing section count:\n%s", out)
	}
	if strings.Index(out, `id="a"`) > strings.Index(out, `id="b"`) {
		t.Errorf("sections out of order:\n%s", out)
	}

	single, _ := cat.Lookup("2")
	out, err = r.Lecture(single)
	if err != nil {
		t.Fatalf("Lecture: %v", err)
	}
	if strings.Contains(out, "section-count") {
		t.Errorf("single section lecture should not show a count:\n%s", out)
	}
	if !strings.HasPrefix(out, `<div class="fade-in">`) {
		t.Errorf("missing fade-in wrapper:\n%s", out)
	}
}

func TestNavState(t *testing.T) {
	s := NavState{Selected: "1", Expanded: "1"}
	if got := s.Toggle("1"); got != (NavState{Selected: "1"}) {
		t.Errorf("toggling expanded lecture = %+v", got)
	}
	if got := s.Toggle("2"); got != (NavState{Selected: "2", Expanded: "2"}) {
		t.Errorf("toggling other lecture = %+v", got)
	}
}

func TestNav(t *testing.T) {
	cat := mustCatalog(t, `{"1":{"Intro part":"# Welcome\nmore","second":""},"2":{"x":"y"}}`)

	out, err := Nav(cat, NavState{Selected: "1", Expanded: "1"}, ServerLinks)
	if err != nil {
		t.Fatalf("Nav: %v", err)
	}
	for _, want := range []string{
		`class="post-btn active expanded" href="/lectures/1?expanded=none"`,
		`class="post-btn" href="/lectures/2"`,
		`href="/lectures/1#intro-part" title="Intro part">1. Welcome</a>`,
		`>2. second</a>`,
		`Algebra &lt;I&gt;`,
		`<svg`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("nav missing %q:\n%s", want, out)
		}
	}

	collapsed, err := Nav(cat, NavState{Selected: "1"}, ServerLinks)
	if err != nil {
		t.Fatalf("Nav: %v", err)
	}
	if strings.Contains(collapsed, "subsections") {
		t.Errorf("collapsed nav should not list sections:\n%s", collapsed)
	}
	if !strings.Contains(collapsed, `class="post-btn active" href="/lectures/1"`) {
		t.Errorf("collapsed active lecture should link to expand:\n%s", collapsed)
	}
}

func TestNavStaticLinks(t *testing.T) {
	cat := mustCatalog(t, `{"1":{"a":"# A"},"2":{"b":"# B"}}`)
	items := NavItems(cat, NavState{Selected: "2", Expanded: "2"}, StaticLinks)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Href != "./1.html" {
		t.Errorf("href = %q", items[0].Href)
	}
	if len(items[1].Sections) != 1 || items[1].Sections[0].Href != "./2.html#b" {
		t.Errorf("sections = %+v", items[1].Sections)
	}
}

func TestPage(t *testing.T) {
	out, err := Page(PageData{
		Title:      "Algebra",
		Stylesheet: "/style.css",
		Nav:        "<li>nav</li>",
		Article:    "<div>article</div>",
		LiveReload: true,
	})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	for _, want := range []string{
		"<title>Algebra | Lecture Notes</title>",
		`href="/style.css"`,
		"<li>nav</li>",
		"<div>article</div>",
		"renderMathInElement",
		"throwOnError: false",
		`"/ws"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("page missing %q", want)
		}
	}

	static, err := Page(PageData{Article: "x"})
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if strings.Contains(static, "WebSocket") {
		t.Error("live reload script should be omitted")
	}
}

func TestErrorHTML(t *testing.T) {
	out := ErrorHTML(errors.New("boom <b>"))
	if !strings.Contains(out, `<div class="error">`) || !strings.Contains(out, "<p>Error loading data</p>") {
		t.Errorf("unexpected error html:\n%s", out)
	}
	if !strings.Contains(out, "<p>boom &lt;b&gt;</p>") {
		t.Errorf("message not escaped:\n%s", out)
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<h1>Title</h1>\n<p>Some   <em>text</em></p>")
	if got != "Title Some text" {
		t.Errorf("PlainText = %q", got)
	}
}

func TestTerminal(t *testing.T) {
	cat := mustCatalog(t, `{"1":{"a":"{ts}00:01{/ts}Hello","b":"World"}}`)
	l, _ := cat.Lookup("1")

	md := TerminalMarkdown(l)
	if strings.Contains(md, "{ts}") {
		t.Errorf("timestamps not stripped:\n%s", md)
	}
	if !strings.Contains(md, "> 2 sections") {
		t.Errorf("missing count:\n%s", md)
	}

	var buf bytes.Buffer
	if err := WriteTerminal(&buf, l, 60); err != nil {
		t.Fatalf("WriteTerminal: %v", err)
	}
	if !strings.Contains(buf.String(), "Hello") {
		t.Errorf("rendered output missing content:\n%s", buf.String())
	}
}
