package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/pokepalette/internal/colour"
	"github.com/jmylchreest/pokepalette/internal/config"
	"github.com/jmylchreest/pokepalette/internal/image"
	"github.com/jmylchreest/pokepalette/internal/palette"
	"github.com/jmylchreest/pokepalette/internal/server"
	httputil "github.com/jmylchreest/pokepalette/internal/util/http"
)

// Output formats.
const (
	FormatHex   = "hex"
	FormatJSON  = "json"
	FormatTable = "table"
)

type extractOptions struct {
	id        int
	colours   int
	algorithm string
	format    string
	output    string
	preview   bool
}

func newExtractCmd(a *app) *cobra.Command {
	o := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <sprite>",
		Short: "Extract a colour palette from a sprite",
		Long: `Extract a colour palette from a sprite file, a directory of sprites (one is
picked at random) or an HTTP(S) URL.

Supported image formats: PNG, GIF, JPEG, WebP, BMP, each optionally xz-compressed.

Examples:
  # Palette of Pikachu, applying its special case
  pokepalette extract --id 25 sprites/25.png

  # Top three colours with terminal previews
  pokepalette extract --colours 3 --preview sprites/6.png

  # JSON output, as served by the HTTP API
  pokepalette extract --format json https://example.com/sprites/1.png

  # Plain frequency ranking
  pokepalette extract --algorithm frequency sprites/`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.cfg.BindFlag(config.KeyAlgorithm, cmd.Flags().Lookup("algorithm"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			o.algorithm = a.cfg.GetString(config.KeyAlgorithm)
			return runExtract(cmd, a, o, args[0])
		},
	}

	cmd.Flags().IntVar(&o.id, "id", 0, "sprite identifier used to select a special case")
	cmd.Flags().IntVarP(&o.colours, "colours", "c", 0, "maximum number of colours to print (0 = all)")
	cmd.Flags().StringVarP(&o.algorithm, "algorithm", "a", string(palette.AlgorithmSprite), "extraction algorithm (sprite, frequency, kmeans)")
	cmd.Flags().StringVarP(&o.format, "format", "f", FormatHex, "output format (hex, json, table)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&o.preview, "preview", false, "show colour previews when writing to a terminal")

	return cmd
}

func runExtract(cmd *cobra.Command, a *app, o *extractOptions, input string) error {
	if o.colours < 0 {
		return fmt.Errorf("--colours cannot be negative, got %d", o.colours)
	}
	if o.id < 0 {
		return fmt.Errorf("--id cannot be negative, got %d", o.id)
	}
	switch o.format {
	case FormatHex, FormatJSON, FormatTable:
	default:
		return fmt.Errorf("unsupported format: %s (supported: hex, json, table)", o.format)
	}

	path, err := image.ResolveImagePath(input)
	if err != nil {
		return fmt.Errorf("invalid sprite path: %w", err)
	}
	if err := image.ValidateImagePath(path); err != nil {
		return fmt.Errorf("invalid sprite path: %w", err)
	}
	if path != input {
		a.logger.Info("selected sprite", "path", path)
	}

	opts, err := a.cfg.Options(a.logger.Named("engine"))
	if err != nil {
		return err
	}
	opts.Limit = o.colours

	extractor, err := palette.NewExtractor(palette.Algorithm(o.algorithm), opts)
	if err != nil {
		return err
	}

	img, err := image.NewSmartLoader(httputil.FetchOptions{}).Load(cmd.Context(), path)
	if err != nil {
		return fmt.Errorf("failed to load sprite: %w", err)
	}
	a.logger.Debug("loaded sprite", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())

	result, err := extractor.Extract(img, o.id)
	if err != nil {
		return fmt.Errorf("failed to extract palette: %w", err)
	}
	if result.Empty() {
		a.logger.Warn("no colours survived filtering", "path", path)
	}

	var out io.Writer = cmd.OutOrStdout()
	if o.output != "" {
		f, err := os.Create(o.output) // #nosec G304 - User-specified output path
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	preview := o.preview && isTerminal(out)
	if o.preview && !preview {
		a.logger.Debug("output is not a terminal, previews disabled")
	}

	text, err := formatPalette(result, o.id, palette.Algorithm(o.algorithm), o.format, preview)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, text); err != nil {
		return fmt.Errorf("failed to write palette: %w", err)
	}
	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) // #nosec G115 - File descriptors fit in int
}

// formatPalette renders a result in the requested format. An empty result renders
// as nothing, except in JSON where it is an empty palette array.
func formatPalette(result palette.Result, id int, alg palette.Algorithm, format string, preview bool) (string, error) {
	switch format {
	case FormatHex:
		return formatHex(result, preview), nil
	case FormatJSON:
		if result == nil {
			result = palette.Result{}
		}
		data, err := json.MarshalIndent(server.PaletteResponse{ID: id, Algorithm: alg, Palette: result}, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(data) + "\n", nil
	case FormatTable:
		return formatTable(result, preview), nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: hex, json, table)", format)
	}
}

func formatHex(result palette.Result, preview bool) string {
	var b strings.Builder
	for _, s := range result {
		if preview {
			if rgb, err := colour.ParseHex(s.Hex); err == nil {
				b.WriteString(colour.FormatColourWithPreview(rgb, 8))
				b.WriteString("\n")
				continue
			}
		}
		b.WriteString(s.Hex)
		b.WriteString("\n")
	}
	return b.String()
}

func formatTable(result palette.Result, preview bool) string {
	if result.Empty() {
		return ""
	}

	headers := []string{"#", "Hex", "RGB", "Share"}
	if preview {
		headers = append(headers, "Preview")
	}
	table := NewTable(headers)
	for i, s := range result {
		rgb, err := colour.ParseHex(s.Hex)
		if err != nil {
			continue
		}
		row := []string{
			strconv.Itoa(i + 1),
			s.Hex,
			rgb.String(),
			strconv.FormatFloat(s.Percentage, 'f', 2, 64) + "%",
		}
		if preview {
			row = append(row, colour.ColourPreviewWithText(rgb, s.Hex, 9))
		}
		table.AddRow(row)
	}
	return table.Render()
}
