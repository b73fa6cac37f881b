package style

import (
	"strings"
	"testing"

	"github.com/fekuna/omnipos-menu-service/internal/branding"
	"github.com/fekuna/omnipos-menu-service/internal/model"
	"github.com/fekuna/omnipos-menu-service/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCSS(t *testing.T) {
	ocean := theme.GetThemeByID("ocean")
	css := RenderCSS(ocean)

	blocks := strings.Split(css, "}\n")
	require.Len(t, blocks, 3)
	assert.True(t, strings.HasPrefix(blocks[0], `:root, :root[data-theme="light"] {`))
	assert.True(t, strings.HasPrefix(blocks[1], `:root[data-theme="dark"] {`))

	assert.Contains(t, blocks[0], "--color-primary: "+ocean.Light.Primary+";")
	assert.Contains(t, blocks[0], "--color-brand-cream: "+ocean.Light.Background+";")
	assert.Contains(t, blocks[0], "--color-text-muted: "+ocean.Light.Secondary+";")
	assert.Contains(t, blocks[1], "--color-surface: "+ocean.Dark.Surface+";")
	assert.Equal(t, 8, strings.Count(blocks[1], "--color-"))
}

type fakeStore struct {
	branding.Store
	snap      branding.Snapshot
	listeners []func(branding.Snapshot)
}

func (f *fakeStore) Snapshot() branding.Snapshot { return f.snap }

func (f *fakeStore) OnChange(fn func(branding.Snapshot)) func() {
	f.listeners = append(f.listeners, fn)
	return func() { f.listeners = nil }
}

func (f *fakeStore) emit(s branding.Snapshot) {
	f.snap = s
	for _, fn := range f.listeners {
		fn(s)
	}
}

func snapshot(name, themeID string, logo *string) branding.Snapshot {
	cfg := branding.DefaultConfig()
	cfg.RestaurantName = name
	cfg.ThemeID = themeID
	cfg.LogoURL = logo
	return branding.Snapshot{Config: cfg, Theme: theme.GetThemeByID(themeID)}
}

func TestApplierFollowsStore(t *testing.T) {
	head := NewHead()
	store := &fakeStore{snap: snapshot("A Chabola", "classic", model.StringPtr("/achabola.png"))}

	detach := NewApplier(head).Attach(store)

	assert.Equal(t, "A Chabola", head.Title())
	assert.Equal(t, "/achabola.png", head.Favicon())
	assert.Equal(t, RenderCSS(theme.Default()), head.Stylesheet(StylesheetID))

	store.emit(snapshot("Casa Pepe", "forest", nil))
	assert.Equal(t, "Casa Pepe", head.Title())
	assert.Equal(t, "", head.Favicon(), "favicon cleared with the logo")
	assert.Equal(t, RenderCSS(theme.GetThemeByID("forest")), head.Stylesheet(StylesheetID))

	store.emit(snapshot("Casa Pepe", "forest", model.StringPtr("https://cdn.test/pepe.png")))
	assert.Equal(t, "https://cdn.test/pepe.png", head.Favicon())

	detach()
	store.emit(snapshot("Ignored", "ocean", nil))
	assert.Equal(t, "Casa Pepe", head.Title())
}
