package ui

import (
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// Surfaces draw their own chrome; the native window only frames them.
// Colors come from the libadwaita palette so forced schemes apply.
const appCSS = `
window.surface {
    background-color: @window_bg_color;
    border-radius: 12px;
    border: 1px solid alpha(currentColor, 0.15);
}

window.surface.maximized {
    border-radius: 0;
    border: none;
}

window.surface-dialog {
    border-radius: 16px;
}

.surface-placeholder {
    color: alpha(@window_fg_color, 0.4);
    font-size: 13px;
    letter-spacing: 1px;
}
`

// LoadStyles loads the custom CSS styles for the application.
// Should be called during application startup.
func LoadStyles() {
	display := gdk.DisplayGetDefault()
	if display == nil {
		return
	}

	provider := gtk.NewCSSProvider()
	provider.LoadFromString(appCSS)

	gtk.StyleContextAddProviderForDisplay(
		display,
		provider,
		gtk.STYLE_PROVIDER_PRIORITY_APPLICATION,
	)
}
