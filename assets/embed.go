package assets

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
)

//go:embed narration images
var assetsFS embed.FS

// NarrationDir is where narration tracks live, relative to the asset root.
const NarrationDir = "narration"

// Root is the on-disk asset directory consulted before the embedded copy.
var Root = "assets"

// NarrationPath maps an audio reference to its asset path. References are
// always resolved locally, never fetched.
func NarrationPath(ref string) string {
	ref = strings.TrimPrefix(filepath.ToSlash(ref), "/")
	ref = strings.TrimPrefix(ref, "audio/")
	ref = strings.TrimPrefix(ref, NarrationDir+"/")
	return path.Join(NarrationDir, path.Clean("/" + ref)[1:])
}

// LoadFile reads an asset by assets-relative path, preferring a copy on disk.
func LoadFile(p string) ([]byte, error) {
	clean := cleanAssetPath(p)
	if clean == "" {
		return nil, fmt.Errorf("asset: empty path")
	}
	if Root != "" {
		if data, err := os.ReadFile(filepath.Join(Root, filepath.FromSlash(clean))); err == nil {
			return data, nil
		}
	}
	return assetsFS.ReadFile(clean)
}

// LoadAudio reads an encoded audio asset.
func LoadAudio(p string) ([]byte, error) {
	return LoadFile(p)
}

// DecodeImage reads and decodes an image asset.
func DecodeImage(p string) (image.Image, error) {
	b, err := LoadFile(p)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode image %q: %w", p, err)
	}
	return img, nil
}

// LoadImage loads an image asset as an *ebiten.Image.
func LoadImage(p string) (*ebiten.Image, error) {
	img, err := DecodeImage(p)
	if err != nil {
		return nil, err
	}
	return ebiten.NewImageFromImage(img), nil
}

func cleanAssetPath(p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		s := filepath.ToSlash(p)
		if idx := strings.LastIndex(s, "/assets/"); idx >= 0 {
			return s[idx+len("/assets/"):]
		}
		return filepath.Base(p)
	}
	s := path.Clean(filepath.ToSlash(p))
	if strings.HasPrefix(s, "../") || s == ".." {
		return ""
	}
	return strings.TrimPrefix(s, "assets/")
}
