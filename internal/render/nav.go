package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
)

// NavState is the sidebar selection: the lecture shown in the article and
// the lecture whose sections are listed. At most one lecture is expanded.
type NavState struct {
	Selected string
	Expanded string
}

// Toggle returns the state after clicking a lecture. Clicking the expanded
// lecture collapses it and keeps the article; any other lecture becomes both
// selected and expanded.
func (s NavState) Toggle(id string) NavState {
	if s.Expanded == id {
		return NavState{Selected: s.Selected}
	}
	return NavState{Selected: id, Expanded: id}
}

// LinkFunc builds the href of a lecture page for the given state.
type LinkFunc func(lectureID string, state NavState) string

// ServerLinks addresses pages of the live viewer.
func ServerLinks(lectureID string, state NavState) string {
	href := "/lectures/" + url.PathEscape(lectureID)
	if state.Expanded == "" {
		href += "?expanded=none"
	}
	return href
}

// StaticLinks addresses pages of an exported site, where every page shows
// its own lecture expanded. The "./" prefix keeps ids containing a colon
// from reading as a URL scheme.
func StaticLinks(lectureID string, _ NavState) string {
	return "./" + url.PathEscape(lectureID) + ".html"
}

// NavItem is one lecture in the sidebar.
type NavItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Href     string          `json:"href"`
	Active   bool            `json:"active"`
	Expanded bool            `json:"expanded"`
	Sections []NavSubsection `json:"sections,omitempty"`
}

// NavSubsection links to a section anchor on its lecture's page.
type NavSubsection struct {
	Index int    `json:"index"`
	Key   string `json:"key"`
	Label string `json:"label"`
	Href  string `json:"href"`
}

// NavItems builds the sidebar model. Sections are listed only for the
// expanded lecture.
func NavItems(cat *catalog.Catalog, state NavState, link LinkFunc) []NavItem {
	if link == nil {
		link = ServerLinks
	}
	items := make([]NavItem, 0, cat.Len())
	if cat == nil {
		return items
	}
	for _, l := range cat.Lectures {
		item := NavItem{
			ID:       l.ID,
			Name:     l.Name,
			Href:     link(l.ID, state.Toggle(l.ID)),
			Active:   l.ID == state.Selected,
			Expanded: l.ID == state.Expanded,
		}
		if item.Expanded {
			page := link(l.ID, NavState{Selected: l.ID, Expanded: l.ID})
			for i, s := range l.Sections {
				item.Sections = append(item.Sections, NavSubsection{
					Index: i + 1,
					Key:   s.Key,
					Label: fmt.Sprintf("%d. %s", i+1, s.Heading()),
					Href:  page + "#" + catalog.ToID(s.Key),
				})
			}
		}
		items = append(items, item)
	}
	return items
}

const navTemplate = `{{range .}}
<li>
  <a class="post-btn{{if .Active}} active{{end}}{{if .Expanded}} expanded{{end}}" href="{{.Href}}">
    <svg fill="none" stroke="currentColor" viewBox="0 0 24 24">
      <path stroke-linecap="round" stroke-linejoin="round" stroke-width="2" d="M9 5l7 7-7 7"/>
    </svg>
    {{.Name}}
  </a>
  {{- if .Sections}}
  <ul class="subsections">
    {{- range .Sections}}
    <li><a class="sub-btn" href="{{.Href}}" title="{{.Key}}">{{.Label}}</a></li>
    {{- end}}
  </ul>
  {{- end}}
</li>
{{- end}}`

var navTmpl = template.Must(template.New("nav").Parse(navTemplate))

// Nav renders the sidebar list items.
func Nav(cat *catalog.Catalog, state NavState, link LinkFunc) (string, error) {
	var buf bytes.Buffer
	if err := navTmpl.Execute(&buf, NavItems(cat, state, link)); err != nil {
		return "", fmt.Errorf("executing nav template: %w", err)
	}
	return buf.String(), nil
}
