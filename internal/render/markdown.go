// Package render turns catalog content into HTML articles, the sidebar, and
// full viewer pages.
package render

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/zeebo/blake3"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
)

// Renderer converts lectures to article HTML.
type Renderer struct {
	md          goldmark.Markdown
	sectionLink string
	article     *template.Template
}

// NewRenderer creates a Renderer. sectionLink is a URL template where
// {lecture} and {section} are replaced by the ids of the section being
// rendered; an empty template disables heading links.
func NewRenderer(sectionLink string) *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)

	return &Renderer{
		md:          md,
		sectionLink: sectionLink,
		article:     template.Must(template.New("article").Parse(articleTemplate)),
	}
}

// SectionURL fills the section link template.
func (r *Renderer) SectionURL(lectureID, sectionKey string) string {
	if r.sectionLink == "" {
		return ""
	}
	return strings.NewReplacer(
		"{lecture}", url.QueryEscape(lectureID),
		"{section}", url.QueryEscape(sectionKey),
	).Replace(r.sectionLink)
}

// Settings returns a key for everything besides section content that shows
// up in a lecture's article: its display name and the section link template.
// Cached articles are only valid for the key they were rendered with.
func (r *Renderer) Settings(l *catalog.Lecture) string {
	h := blake3.New()
	h.WriteString(r.sectionLink)
	h.WriteString("\x00")
	h.WriteString(l.Name)
	return hex.EncodeToString(h.Sum(nil))
}

// Markdown converts preprocessed markdown to HTML.
func (r *Renderer) Markdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(Preprocess(md)), &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return buf.String(), nil
}

// Section renders one section: markdown to HTML, the first block linked to
// the section's recording, wrapped in an anchorable container.
func (r *Renderer) Section(lectureID string, s catalog.Section) (string, error) {
	body, err := r.Markdown(s.Content)
	if err != nil {
		return "", fmt.Errorf("section %s: %w", s.Key, err)
	}

	if link := r.SectionURL(lectureID, s.Key); link != "" {
		body, err = linkFirstBlock(body, link)
		if err != nil {
			return "", fmt.Errorf("section %s: %w", s.Key, err)
		}
	}

	return fmt.Sprintf(`<div class="section" id="%s">
      <div class="prose">%s</div>
    </div>`, catalog.ToID(s.Key), body), nil
}

// voidElements cannot hold children, so they are wrapped by the link instead.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// linkFirstBlock wraps the content of the first top-level element in a link.
// A void element is wrapped as a whole.
func linkFirstBlock(fragment, link string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("parsing rendered html: %w", err)
	}
	body := doc.Find("body")
	first := body.Children().First()
	if first.Length() == 0 {
		return fragment, nil
	}
	anchor := `<a class="recording-link" href="` + html.EscapeString(link) + `"></a>`
	if voidElements[goquery.NodeName(first)] {
		first.WrapHtml(anchor)
	} else {
		first.WrapInnerHtml(anchor)
	}
	return body.Html()
}

type articleData struct {
	Name     string
	Count    int
	Sections []template.HTML
}

const articleTemplate = `<div class="fade-in">
  <h2 class="post-title">{{.Name}}</h2>
  {{if gt .Count 1}}<p class="section-count">{{.Count}} sections</p>{{end}}
  {{range .Sections}}{{.}}
  {{end}}
</div>`

// Lecture renders the article for a whole lecture.
func (r *Renderer) Lecture(l *catalog.Lecture) (string, error) {
	data := articleData{Name: l.Name, Count: len(l.Sections)}
	for _, s := range l.Sections {
		sec, err := r.Section(l.ID, s)
		if err != nil {
			return "", fmt.Errorf("lecture %s: %w", l.ID, err)
		}
		data.Sections = append(data.Sections, template.HTML(sec))
	}

	var buf bytes.Buffer
	if err := r.article.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing article template: %w", err)
	}
	return buf.String(), nil
}

// PlainText extracts the visible text of rendered HTML, used for search
// documents and previews.
func PlainText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// ErrorHTML is the article shown when loading fails.
func ErrorHTML(err error) string {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return fmt.Sprintf(`<div class="error">
  <p>Error loading data</p>
  <p>%s</p>
</div>`, html.EscapeString(msg))
}
