// Package style turns the active branding into presentation state: theme
// CSS variables, favicon and document title.
package style

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fekuna/omnipos-menu-service/internal/branding"
	"github.com/fekuna/omnipos-menu-service/internal/theme"
)

const StylesheetID = "dynamic-theme-styles"

// Document is the presentation surface the Applier writes to.
type Document interface {
	SetStylesheet(id, css string)
	SetFavicon(href string)
	SetTitle(title string)
}

// RenderCSS returns the light and dark variable blocks for t.
func RenderCSS(t theme.Theme) string {
	var b strings.Builder
	writeBlock(&b, `:root, :root[data-theme="light"]`, t.Light)
	writeBlock(&b, `:root[data-theme="dark"]`, t.Dark)
	return b.String()
}

func writeBlock(b *strings.Builder, selector string, p theme.PaletteSet) {
	fmt.Fprintf(b, "%s {\n", selector)
	vars := [][2]string{
		{"--color-primary", p.Primary},
		{"--color-background", p.Background},
		{"--color-surface", p.Surface},
		{"--color-text", p.Text},
		{"--color-brand-brown", p.Primary},
		{"--color-brand-cream", p.Background},
		{"--color-text-muted", p.Secondary},
		{"--color-secondary", p.Secondary},
	}
	for _, v := range vars {
		fmt.Fprintf(b, "  %s: %s;\n", v[0], v[1])
	}
	b.WriteString("}\n")
}

type Applier struct {
	doc Document
}

func NewApplier(doc Document) *Applier {
	return &Applier{doc: doc}
}

// Apply pushes snap to the document. Without a logo the favicon href is
// cleared so the page falls back to its static icon.
func (a *Applier) Apply(snap branding.Snapshot) {
	a.doc.SetStylesheet(StylesheetID, RenderCSS(snap.Theme))
	favicon := ""
	if snap.Config.LogoURL != nil {
		favicon = *snap.Config.LogoURL
	}
	a.doc.SetFavicon(favicon)
	a.doc.SetTitle(snap.Title())
}

// Attach applies the current snapshot and then every later change.
func (a *Applier) Attach(store branding.Store) (detach func()) {
	a.Apply(store.Snapshot())
	return store.OnChange(a.Apply)
}

// Head is an in-memory Document. The HTTP adapter serves its contents.
type Head struct {
	mu          sync.RWMutex
	stylesheets map[string]string
	favicon     string
	title       string
}

func NewHead() *Head {
	return &Head{stylesheets: map[string]string{}}
}

func (h *Head) SetStylesheet(id, css string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stylesheets[id] = css
}

func (h *Head) SetFavicon(href string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.favicon = href
}

func (h *Head) SetTitle(title string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.title = title
}

func (h *Head) Stylesheet(id string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stylesheets[id]
}

func (h *Head) Favicon() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.favicon
}

func (h *Head) Title() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.title
}
