package ui

import (
	"fmt"

	"github.com/veandco/go-sdl2/ttf"
)

// Fonts holds the two sizes the feed draws with.
type Fonts struct {
	Title *ttf.Font // item titles
	Small *ttf.Font // state and position overlays
}

var fontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/TTF/DejaVuSans-Bold.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Bold.ttf",
}

// LoadFonts initialises TTF and opens the first system font that exists.
// Missing fonts are not an error; text drawing then returns ErrNoFont.
func LoadFonts() (*Fonts, error) {
	if err := ttf.Init(); err != nil {
		return nil, fmt.Errorf("ui: ttf init: %w", err)
	}
	return &Fonts{Title: openFirst(28), Small: openFirst(16)}, nil
}

func openFirst(size int) *ttf.Font {
	for _, path := range fontPaths {
		if f, err := ttf.OpenFont(path, size); err == nil {
			return f
		}
	}
	return nil
}

func (f *Fonts) Close() {
	if f == nil {
		return
	}
	if f.Title != nil {
		f.Title.Close()
	}
	if f.Small != nil {
		f.Small.Close()
	}
	ttf.Quit()
}
