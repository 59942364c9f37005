package cli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmylchreest/pokepalette/internal/cli"
	"github.com/jmylchreest/pokepalette/internal/palette"
	"github.com/jmylchreest/pokepalette/internal/server"
)

// isolate keeps user and working-directory config files out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("HOME", dir)
	return dir
}

// writeSprite writes a 50x39 sprite: 1000 red, 900 blue and 50 green pixels.
func writeSprite(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 50, 39))
	for i := 0; i < 50*39; i++ {
		c := color.NRGBA{G: 255, A: 255}
		switch {
		case i < 1000:
			c = color.NRGBA{R: 255, A: 255}
		case i < 1900:
			c = color.NRGBA{B: 255, A: 255}
		}
		img.SetNRGBA(i%50, i/50, c)
	}
	return writePNG(t, filepath.Join(dir, name), img)
}

func writePNG(t *testing.T, path string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("failed to write sprite: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	rootCmd := cli.NewRootCmd()
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func TestExtractCommand(t *testing.T) {
	dir := isolate(t)
	sprite := writeSprite(t, dir, "6.png")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "hex by default",
			args: []string{"extract", sprite},
			want: "#ff0000\n#0000ff\n#00ff00\n",
		},
		{
			name: "limited",
			args: []string{"extract", "--colours", "2", sprite},
			want: "#ff0000\n#0000ff\n",
		},
		{
			name: "frequency",
			args: []string{"extract", "-a", "frequency", "-c", "1", sprite},
			want: "#ff0000\n",
		},
		{
			name: "preview ignored when not a terminal",
			args: []string{"extract", "--preview", "-c", "1", sprite},
			want: "#ff0000\n",
		},
		{
			name: "directory picks a sprite",
			args: []string{"extract", "-c", "1", dir},
			want: "#ff0000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stderr, err := run(t, tt.args...)
			if err != nil {
				t.Fatalf("Execute() error: %v\n%s", err, stderr)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	dir := isolate(t)
	sprite := writeSprite(t, dir, "1.png")

	out, _, err := run(t, "extract", "--id", "7", "--format", "json", "-a", "frequency", sprite)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	var resp server.PaletteResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if resp.ID != 7 || resp.Algorithm != palette.AlgorithmFrequency {
		t.Errorf("response header = %d/%s, want 7/frequency", resp.ID, resp.Algorithm)
	}
	if got := strings.Join(resp.Palette.Hex(), ","); got != "#ff0000,#0000ff,#00ff00" {
		t.Errorf("palette = %s", got)
	}
}

func TestExtractTable(t *testing.T) {
	dir := isolate(t)
	sprite := writeSprite(t, dir, "4.png")

	out, _, err := run(t, "extract", "-f", "table", sprite)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	for _, want := range []string{"Hex", "Share", "#ff0000", "rgb(255, 0, 0)", "51.28%", "2.56%"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("table should not contain colour codes when previews are off")
	}
}

func TestExtractToFile(t *testing.T) {
	dir := isolate(t)
	sprite := writeSprite(t, dir, "7.png")
	outPath := filepath.Join(dir, "palette.txt")

	out, _, err := run(t, "extract", "-o", outPath, sprite)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out != "" {
		t.Errorf("stdout should be empty when writing to a file, got %q", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.HasPrefix(string(data), "#ff0000\n") {
		t.Errorf("file content = %q", data)
	}
}

func TestExtractTransparentSprite(t *testing.T) {
	dir := isolate(t)
	sprite := writePNG(t, filepath.Join(dir, "0.png"), image.NewNRGBA(image.Rect(0, 0, 8, 8)))

	out, stderr, err := run(t, "extract", sprite)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
	if !strings.Contains(stderr, "no colours survived filtering") {
		t.Errorf("expected a warning, got %q", stderr)
	}

	out, _, err = run(t, "extract", "-f", "json", sprite)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(out, `"palette": []`) {
		t.Errorf("expected an empty palette array, got %s", out)
	}
}

func TestExtractErrors(t *testing.T) {
	dir := isolate(t)
	sprite := writeSprite(t, dir, "9.png")
	bogus := filepath.Join(dir, "bogus.png")
	if err := os.WriteFile(bogus, []byte("dummy image data"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "invalid format", args: []string{"extract", "-f", "yaml", sprite}, wantErr: "unsupported format"},
		{name: "negative colours", args: []string{"extract", "-c", "-1", sprite}, wantErr: "--colours cannot be negative"},
		{name: "negative id", args: []string{"extract", "--id", "-3", sprite}, wantErr: "--id cannot be negative"},
		{name: "missing file", args: []string{"extract", filepath.Join(dir, "missing.png")}, wantErr: "invalid sprite path"},
		{name: "unsupported extension", args: []string{"extract", filepath.Join(dir, "notes.txt")}, wantErr: "invalid sprite path"},
		{name: "undecodable", args: []string{"extract", bogus}, wantErr: "failed to load sprite"},
		{name: "no arguments", args: []string{"extract"}, wantErr: "accepts 1 arg"},
		{name: "verbose and quiet", args: []string{"-v", "-q", "extract", sprite}, wantErr: "mutually exclusive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Execute() error = %v, want %q", err, tt.wantErr)
			}
		})
	}

	t.Run("unknown algorithm", func(t *testing.T) {
		_, _, err := run(t, "extract", "-a", "magic", sprite)
		if !errors.Is(err, palette.ErrUnknownAlgorithm) {
			t.Errorf("Execute() error = %v, want ErrUnknownAlgorithm", err)
		}
	})
}

const rulesConfig = `log_level: error
special_cases:
  "25":
    mode: mostFrequent
    value: 10
  "151":
    mode: handPickedColors
    colours: ["#f8b8d0", "#6890c8"]
`

func TestRulesCommand(t *testing.T) {
	dir := isolate(t)

	out, _, err := run(t, "rules")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.Contains(out, "No special cases configured") {
		t.Errorf("unexpected output without config: %q", out)
	}

	cfgPath := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(cfgPath, []byte(rulesConfig), 0o600); err != nil {
		t.Fatal(err)
	}
	out, _, err = run(t, "--config", cfgPath, "rules")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rules, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[2], "25 ") || !strings.Contains(lines[2], "mostFrequent") || !strings.Contains(lines[2], "10") {
		t.Errorf("first rule row = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "151") || !strings.Contains(lines[3], "#f8b8d0 #6890c8") {
		t.Errorf("second rule row = %q", lines[3])
	}
}

func TestSpecialCaseAppliesToExtract(t *testing.T) {
	dir := isolate(t)

	// 1000 red, 900 blue, 80 green and 20 grey pixels.
	img := image.NewNRGBA(image.Rect(0, 0, 50, 40))
	for i := 0; i < 50*40; i++ {
		c := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
		switch {
		case i < 1000:
			c = color.NRGBA{R: 255, A: 255}
		case i < 1900:
			c = color.NRGBA{B: 255, A: 255}
		case i < 1980:
			c = color.NRGBA{G: 255, A: 255}
		}
		img.SetNRGBA(i%50, i/50, c)
	}
	sprite := writePNG(t, filepath.Join(dir, "132.png"), img)

	cfgPath := filepath.Join(dir, "pinned.yaml")
	cfg := "special_cases:\n  \"132\":\n    mode: handPickedColors\n    colours: [\"#808080\"]\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o600); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "--config", cfgPath, "extract", "--id", "132", sprite)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if out != "#ff0000\n#0000ff\n#808080\n#00ff00\n" {
		t.Errorf("output = %q, want the pinned grey in the selection", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := isolate(t)

	tests := []struct {
		name    string
		content string
	}{
		{name: "log level", content: "log_level: loud\n"},
		{name: "algorithm", content: "engine:\n  algorithm: magic\n"},
		{name: "special case mode", content: "special_cases:\n  \"1\":\n    mode: sparkle\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgPath := filepath.Join(dir, "bad.yaml")
			if err := os.WriteFile(cfgPath, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			_, _, err := run(t, "--config", cfgPath, "rules")
			if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
				t.Errorf("Execute() error = %v, want invalid configuration", err)
			}
		})
	}
}

func TestServeRejectsUnknownCache(t *testing.T) {
	isolate(t)

	_, _, err := run(t, "serve", "--cache", "memcached")
	if err == nil || !strings.Contains(err.Error(), "cache.backend") {
		t.Errorf("Execute() error = %v, want cache backend error", err)
	}
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	out, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.HasPrefix(out, "pokepalette version ") {
		t.Errorf("version output = %q", out)
	}
}
