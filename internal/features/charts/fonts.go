package charts

import (
	"os"
	"path/filepath"

	logging "sales-analysis/internal/infra/log"

	"github.com/fogleman/gg"
	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Font candidates, first match wins. TTF only, gg cannot parse OTF.
var defaultFontPaths = []string{
	"etc/fonts/Inter-Regular.ttf",
	"etc/fonts/InterVariable.ttf",
	"~/Library/Fonts/Inter-Regular.ttf",
	"/Library/Fonts/Inter-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// fonts resolves a TrueType file once and hands out faces per size.
// Without a usable file every face is basicfont.Face7x13.
type fonts struct {
	path  string
	faces map[float64]font.Face
}

func newFonts(paths []string) *fonts {
	f := &fonts{faces: make(map[float64]font.Face)}

	expandPath := func(path string) string {
		if len(path) > 0 && path[0] == '~' {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				return filepath.Join(homeDir, path[1:])
			}
		}
		return path
	}

	for _, p := range paths {
		expanded := expandPath(p)
		if _, err := os.Stat(expanded); err != nil {
			continue
		}
		if _, err := gg.LoadFontFace(expanded, 12); err != nil {
			logging.LogWarn("Font file exists but failed to load", zap.String("path", expanded), zap.Error(err))
			continue
		}
		f.path = expanded
		logging.LogDebug("Loaded chart font", zap.String("path", expanded))
		return f
	}

	logging.LogWarn("No TrueType font found, using basic bitmap font", zap.Int("paths_checked", len(paths)))
	return f
}

func (f *fonts) face(size float64) font.Face {
	if f.path == "" {
		return basicfont.Face7x13
	}
	if face, ok := f.faces[size]; ok {
		return face
	}
	face, err := gg.LoadFontFace(f.path, size)
	if err != nil {
		return basicfont.Face7x13
	}
	f.faces[size] = face
	return face
}
