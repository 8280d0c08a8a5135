package render

import (
	"bytes"
	"fmt"
	"html/template"
)

// PageData holds the data for a full viewer document.
type PageData struct {
	Title      string
	SiteName   string
	Stylesheet string // href of the stylesheet
	Nav        template.HTML
	Article    template.HTML
	// LiveReload adds the websocket client that reloads on catalog changes.
	LiveReload bool
}

var pageTmpl = template.Must(template.New("page").Parse(pageTemplate))

// Page renders a complete HTML document.
func Page(data PageData) (string, error) {
	if data.SiteName == "" {
		data.SiteName = "Lecture Notes"
	}
	if data.Stylesheet == "" {
		data.Stylesheet = "style.css"
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing page template: %w", err)
	}
	return buf.String(), nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{if .Title}}{{.Title}} | {{end}}{{.SiteName}}</title>
  <link rel="stylesheet" href="{{.Stylesheet}}">
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/katex.min.css">
  <script defer src="https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/katex.min.js"></script>
  <script defer src="https://cdn.jsdelivr.net/npm/katex@0.16.11/dist/contrib/auto-render.min.js"></script>
</head>
<body>
  <header>
    <button class="menu-toggle" id="menu-toggle" aria-label="Toggle sidebar">
      <svg width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2">
        <line x1="3" y1="6" x2="21" y2="6"/><line x1="3" y1="12" x2="21" y2="12"/><line x1="3" y1="18" x2="21" y2="18"/>
      </svg>
    </button>
    <h1>{{.SiteName}}</h1>
  </header>
  <div class="layout">
    <nav class="sidebar" id="sidebar">
      <ul id="nav">{{.Nav}}</ul>
    </nav>
    <main class="content">
      <article id="article">{{.Article}}</article>
    </main>
  </div>
  <script>
    document.addEventListener("DOMContentLoaded", function () {
      if (window.renderMathInElement) {
        renderMathInElement(document.getElementById("article"), {
          delimiters: [
            { left: "$$", right: "$$", display: true },
            { left: "$", right: "$", display: false },
            { left: "\\(", right: "\\)", display: false },
            { left: "\\[", right: "\\]", display: true }
          ],
          throwOnError: false
        });
      }
      var sidebar = document.getElementById("sidebar");
      document.getElementById("menu-toggle").addEventListener("click", function () {
        sidebar.style.top = document.querySelector("header").offsetHeight + "px";
        sidebar.classList.toggle("open");
      });
    });
  </script>
  {{- if .LiveReload}}
  <script>
    (function () {
      var proto = location.protocol === "https:" ? "wss://" : "ws://";
      var ws = new WebSocket(proto + location.host + "/ws");
      ws.onmessage = function (ev) {
        try {
          if (JSON.parse(ev.data).type === "changed") location.reload();
        } catch (e) {}
      };
    })();
  </script>
  {{- end}}
</body>
</html>`

// Stylesheet is the viewer CSS, served as style.css.
const Stylesheet = `:root {
  --bg: #ffffff;
  --fg: #1f2328;
  --muted: #656d76;
  --border: #d0d7de;
  --accent: #0969da;
  --sidebar-bg: #f6f8fa;
  --active-bg: #ddf4ff;
  --code-bg: #f6f8fa;
}

* { box-sizing: border-box; }

body {
  margin: 0;
  font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Helvetica, Arial, sans-serif;
  color: var(--fg);
  background: var(--bg);
  line-height: 1.6;
}

header {
  display: flex;
  align-items: center;
  gap: 0.75rem;
  padding: 0.75rem 1.25rem;
  border-bottom: 1px solid var(--border);
  position: sticky;
  top: 0;
  background: var(--bg);
  z-index: 20;
}

header h1 { font-size: 1.1rem; margin: 0; }

.menu-toggle {
  display: none;
  background: none;
  border: none;
  color: var(--fg);
  cursor: pointer;
}

.layout { display: flex; min-height: calc(100vh - 3.5rem); }

.sidebar {
  width: 280px;
  flex-shrink: 0;
  background: var(--sidebar-bg);
  border-right: 1px solid var(--border);
  overflow-y: auto;
  padding: 1rem 0.5rem;
}

.sidebar ul { list-style: none; margin: 0; padding: 0; }

.post-btn, .sub-btn {
  display: flex;
  align-items: center;
  gap: 0.4rem;
  width: 100%;
  padding: 0.4rem 0.6rem;
  border-radius: 6px;
  color: var(--fg);
  text-decoration: none;
}

.post-btn svg {
  width: 14px;
  height: 14px;
  flex-shrink: 0;
  transition: transform 0.15s;
}

.post-btn.expanded svg { transform: rotate(90deg); }
.post-btn:hover, .sub-btn:hover { background: var(--border); }
.post-btn.active { background: var(--active-bg); font-weight: 600; }

.subsections { padding-left: 1.4rem !important; }

.sub-btn {
  font-size: 0.875rem;
  color: var(--muted);
  white-space: nowrap;
  overflow: hidden;
  text-overflow: ellipsis;
  display: block;
}

.content {
  flex: 1;
  min-width: 0;
  padding: 2rem 3rem;
  max-width: 960px;
}

.post-title { margin-top: 0; }
.section-count { color: var(--muted); margin-top: -0.5rem; }

.section {
  padding: 1.25rem 0;
  border-bottom: 1px solid var(--border);
  scroll-margin-top: 4rem;
}

.prose a.recording-link { color: inherit; text-decoration: none; }
.prose a.recording-link:hover { color: var(--accent); }

.prose pre {
  background: var(--code-bg);
  padding: 0.75rem 1rem;
  border-radius: 6px;
  overflow-x: auto;
}

.prose code { font-size: 0.875em; }
.prose table { border-collapse: collapse; }
.prose th, .prose td { border: 1px solid var(--border); padding: 0.3rem 0.6rem; }

.error {
  border: 1px solid #ff8182;
  background: #ffebe9;
  color: #82071e;
  padding: 1rem 1.25rem;
  border-radius: 6px;
}

.error p:first-child { font-weight: 600; }

.fade-in { animation: fadeIn 0.25s ease-in; }

@keyframes fadeIn {
  from { opacity: 0; }
  to { opacity: 1; }
}

@media (max-width: 768px) {
  .menu-toggle { display: block; }
  .sidebar {
    position: fixed;
    left: 0;
    bottom: 0;
    width: 0;
    padding: 0;
    z-index: 10;
    transition: width 0.2s;
  }
  .sidebar.open { width: 280px; padding: 1rem 0.5rem; }
  .content { padding: 1.25rem; }
}
`
