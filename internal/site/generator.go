// Package site exports the lecture viewer as a static HTML site.
package site

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/lecturedoc/internal/catalog"
	"github.com/ziadkadry99/lecturedoc/internal/progress"
	"github.com/ziadkadry99/lecturedoc/internal/render"
	"github.com/ziadkadry99/lecturedoc/internal/viewer"
)

// Generator writes one page per lecture. Pages are rendered through the
// viewer, so lectures already in the cache are not rendered again.
type Generator struct {
	viewer    *viewer.Viewer
	outputDir string
	siteName  string
	reporter  progress.Reporter
}

// NewGenerator creates a Generator writing into outputDir.
func NewGenerator(v *viewer.Viewer, outputDir, siteName string, rep progress.Reporter) *Generator {
	if rep == nil {
		rep = progress.Discard{}
	}
	return &Generator{viewer: v, outputDir: outputDir, siteName: siteName, reporter: rep}
}

// Result summarizes an export.
type Result struct {
	Pages  int
	Cached int
}

// Generate builds the site and returns how many lecture pages were written.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	cat := g.viewer.Catalog()
	if cat == nil {
		return nil, viewer.ErrNoSnapshot
	}
	if cat.Len() == 0 {
		return nil, fmt.Errorf("the catalog has no lectures")
	}
	for _, id := range cat.IDs() {
		if err := checkFileName(id); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return nil, err
	}
	if err := g.write("style.css", render.Stylesheet); err != nil {
		return nil, err
	}
	if err := g.writeManifest(cat); err != nil {
		return nil, err
	}
	first, _ := cat.First()
	if err := g.write("index.html", redirectPage(render.StaticLinks(first, render.NavState{}))); err != nil {
		return nil, err
	}

	res := &Result{}
	g.reporter.Start(cat.Len())
	for i, l := range cat.Lectures {
		article, err := g.viewer.Select(ctx, l.ID)
		if err != nil {
			return nil, fmt.Errorf("rendering lecture %s: %w", l.ID, err)
		}
		if article.FromCache {
			res.Cached++
		}

		state := render.NavState{Selected: l.ID, Expanded: l.ID}
		nav, err := g.viewer.Nav(state, render.StaticLinks)
		if err != nil {
			return nil, err
		}
		page, err := render.Page(render.PageData{
			Title:      l.Name,
			SiteName:   g.siteName,
			Stylesheet: "style.css",
			Nav:        template.HTML(nav),
			Article:    template.HTML(article.HTML),
		})
		if err != nil {
			return nil, err
		}
		if err := g.write(l.ID+".html", page); err != nil {
			return nil, err
		}
		res.Pages++
		g.reporter.Update(i+1, l.Name)
	}
	g.reporter.Finish()

	return res, nil
}

func (g *Generator) write(name, content string) error {
	if err := os.WriteFile(filepath.Join(g.outputDir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// manifestLecture is one entry of lectures.json.
type manifestLecture struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Page     string            `json:"page"`
	Sections []manifestSection `json:"sections"`
}

type manifestSection struct {
	Key     string `json:"key"`
	Heading string `json:"heading"`
	Anchor  string `json:"anchor"`
}

func (g *Generator) writeManifest(cat *catalog.Catalog) error {
	lectures := make([]manifestLecture, 0, cat.Len())
	for _, l := range cat.Lectures {
		ml := manifestLecture{
			ID:       l.ID,
			Name:     l.Name,
			Page:     render.StaticLinks(l.ID, render.NavState{}),
			Sections: make([]manifestSection, 0, len(l.Sections)),
		}
		for _, s := range l.Sections {
			ml.Sections = append(ml.Sections, manifestSection{
				Key:     s.Key,
				Heading: s.Heading(),
				Anchor:  catalog.ToID(s.Key),
			})
		}
		lectures = append(lectures, ml)
	}

	data, err := json.MarshalIndent(lectures, "", "  ")
	if err != nil {
		return err
	}
	return g.write("lectures.json", string(data))
}

// checkFileName rejects lecture ids that cannot be used as file names.
func checkFileName(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("lecture id %q cannot be used as a file name", id)
	}
	return nil
}

func redirectPage(target string) string {
	esc := template.HTMLEscapeString(target)
	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta http-equiv="refresh" content="0; url=` + esc + `">
  <title>Redirecting</title>
</head>
<body>
  <p><a href="` + esc + `">Continue to the lecture notes</a></p>
</body>
</html>
`
}
