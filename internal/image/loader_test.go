package image

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	httputil "github.com/jmylchreest/pokepalette/internal/util/http"
)

// spritePNG encodes a small two-colour sprite.
func spritePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for x := 0; x < 4; x++ {
		img.SetNRGBA(x, 0, color.NRGBA{R: 255, A: 255})
		img.SetNRGBA(x, 1, color.NRGBA{B: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error: %v", err)
	}
	return buf.Bytes()
}

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz.NewWriter() error: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("xz write error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("xz close error: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func checkSprite(t *testing.T, img image.Image) {
	t.Helper()
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("decoded bounds = %v, want 4x2", b)
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r>>8 != 255 {
		t.Errorf("pixel (0,0) red = %d, want 255", r>>8)
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	sprite := spritePNG(t)
	plain := writeFile(t, dir, "25.png", sprite)
	compressed := writeFile(t, dir, "25.png.xz", compress(t, sprite))
	garbage := writeFile(t, dir, "broken.png", []byte("not an image"))

	loader := NewFileLoader()
	ctx := context.Background()

	for _, path := range []string{plain, compressed} {
		img, err := loader.Load(ctx, path)
		if err != nil {
			t.Fatalf("Load(%s) error: %v", path, err)
		}
		checkSprite(t, img)
	}

	tests := []struct {
		name string
		path string
	}{
		{name: "empty path", path: ""},
		{name: "missing", path: filepath.Join(dir, "missing.png")},
		{name: "directory", path: dir},
		{name: "undecodable", path: garbage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loader.Load(ctx, tt.path); err == nil {
				t.Errorf("Load(%q) expected error", tt.path)
			}
		})
	}
}

func TestDecodeCorruptXZ(t *testing.T) {
	if _, err := Decode(strings.NewReader("not xz"), "sprite.png.xz"); err == nil {
		t.Error("Decode() expected error for corrupt xz data")
	}
}

func TestValidateImagePath(t *testing.T) {
	dir := t.TempDir()
	sprite := writeFile(t, dir, "1.png", spritePNG(t))
	compressed := writeFile(t, dir, "1.png.xz", []byte("checked on decode"))
	text := writeFile(t, dir, "notes.txt.xz", []byte("x"))
	garbage := writeFile(t, dir, "bad.png", []byte("x"))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "image", path: sprite},
		{name: "compressed image", path: compressed},
		{name: "directory", path: dir},
		{name: "url", path: "https://example.com/1.png"},
		{name: "empty", path: "", wantErr: true},
		{name: "missing", path: filepath.Join(dir, "nope.png"), wantErr: true},
		{name: "compressed non-image", path: text, wantErr: true},
		{name: "undecodable", path: garbage, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImagePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImagePath() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScanDirectoryForImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"1.png", "2.webp", "3.PNG", "4.gif.xz", "readme.md", "5.bmp"} {
		writeFile(t, dir, name, []byte("x"))
	}
	if err := os.Mkdir(filepath.Join(dir, "shiny.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ScanDirectoryForImages(dir)
	if err != nil {
		t.Fatalf("ScanDirectoryForImages() error: %v", err)
	}
	var names []string
	for _, p := range got {
		names = append(names, filepath.Base(p))
	}
	slices.Sort(names)
	want := []string{"1.png", "2.webp", "3.PNG", "4.gif.xz", "5.bmp"}
	if !slices.Equal(names, want) {
		t.Errorf("ScanDirectoryForImages() = %v, want %v", names, want)
	}

	if _, err := ScanDirectoryForImages(t.TempDir()); err == nil {
		t.Error("expected error for directory without images")
	}
}

func TestResolveImagePath(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.png", []byte("x"))
	b := writeFile(t, dir, "b.png", []byte("x"))

	got, err := ResolveImagePath(dir)
	if err != nil {
		t.Fatalf("ResolveImagePath(dir) error: %v", err)
	}
	if got != a && got != b {
		t.Errorf("ResolveImagePath(dir) = %s, want one of the sprites", got)
	}

	if got, _ := ResolveImagePath(a); got != a {
		t.Errorf("ResolveImagePath(file) = %s, want %s", got, a)
	}
	if got, _ := ResolveImagePath("https://example.com/x.png"); got != "https://example.com/x.png" {
		t.Errorf("ResolveImagePath(url) = %s", got)
	}
	if _, err := ResolveImagePath(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing path")
	}
	if _, err := SelectRandomImage(nil); err == nil {
		t.Error("expected error for empty list")
	}
}

func TestSmartLoaderURL(t *testing.T) {
	sprite := spritePNG(t)
	compressed := compress(t, sprite)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/25.png":
			_, _ = w.Write(sprite)
		case "/25.png.xz":
			_, _ = w.Write(compressed)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	loader := NewSmartLoader(httputil.FetchOptions{})
	ctx := context.Background()

	for _, path := range []string{"/25.png", "/25.png.xz?v=2"} {
		img, err := loader.Load(ctx, srv.URL+path)
		if err != nil {
			t.Fatalf("Load(%s) error: %v", path, err)
		}
		checkSprite(t, img)
	}

	if _, err := loader.Load(ctx, srv.URL+"/missing.png"); err == nil {
		t.Error("expected error for missing URL")
	}
}
