package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/yllada/deskshell/common"
)

// IconConfig defines the configuration for icon generation.
type IconConfig struct {
	Size        int
	FrameColor  color.RGBA
	TitleColor  color.RGBA
	PaneColor   color.RGBA
	ButtonColor color.RGBA
}

// DarkIconConfig returns the palette used while the shell is dark.
func DarkIconConfig() IconConfig {
	return IconConfig{
		Size:        common.TrayIconSize,
		FrameColor:  color.RGBA{222, 221, 218, 255}, // Light gray
		TitleColor:  color.RGBA{153, 193, 241, 255}, // Light blue
		PaneColor:   color.RGBA{36, 36, 36, 255},    // Near black
		ButtonColor: color.RGBA{246, 97, 81, 255},   // Red
	}
}

// LightIconConfig returns the palette used while the shell is light.
func LightIconConfig() IconConfig {
	return IconConfig{
		Size:        common.TrayIconSize,
		FrameColor:  color.RGBA{61, 56, 70, 255},    // Dark slate
		TitleColor:  color.RGBA{53, 132, 228, 255},  // Blue
		PaneColor:   color.RGBA{250, 250, 250, 255}, // Near white
		ButtonColor: color.RGBA{224, 27, 36, 255},   // Red
	}
}

// IconGenerator generates PNG icons for the system tray.
type IconGenerator struct {
	config IconConfig
}

// NewIconGenerator creates a new icon generator with the given config.
func NewIconGenerator(config IconConfig) *IconGenerator {
	return &IconGenerator{config: config}
}

// Generate draws a window glyph with a title bar and returns PNG bytes.
func (g *IconGenerator) Generate() []byte {
	size := g.config.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	left, top := 2, 3
	right, bottom := size-3, size-4
	titleBottom := top + size/5

	for y := top; y <= bottom; y++ {
		for x := left; x <= right; x++ {
			// Rounded corners.
			if (x == left || x == right) && (y == top || y == bottom) {
				continue
			}
			switch {
			case x == left || x == right || y == top || y == bottom:
				img.Set(x, y, g.config.FrameColor)
			case y <= titleBottom:
				img.Set(x, y, g.config.TitleColor)
			default:
				img.Set(x, y, g.config.PaneColor)
			}
		}
	}

	// Close button in the title bar.
	for y := top + 2; y < titleBottom; y++ {
		for x := right - 4; x < right-1; x++ {
			img.Set(x, y, g.config.ButtonColor)
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

// GenerateDarkIcon generates the tray icon for dark mode.
func GenerateDarkIcon() []byte {
	return NewIconGenerator(DarkIconConfig()).Generate()
}

// GenerateLightIcon generates the tray icon for light mode.
func GenerateLightIcon() []byte {
	return NewIconGenerator(LightIconConfig()).Generate()
}
