package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nvandessel/desirepath/internal/constants"
	"github.com/nvandessel/desirepath/internal/visualization"
	"github.com/nvandessel/desirepath/internal/world"
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Run a simulation and render one layer of the result",
		Long: `Run a simulation for --ticks ticks (default 0: the initial state) and
render it.

Layers: terrain, obstacles, trail, composite.
Formats: ascii (default), json, html.

Examples:
  desirepath render --layer terrain
  desirepath render --ticks 500 --layer trail
  desirepath render --ticks 500 --format html --output paths.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			layerName, _ := cmd.Flags().GetString("layer")
			formatName, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			noOpen, _ := cmd.Flags().GetBool("no-open")
			jsonOut, _ := cmd.Flags().GetBool("json")

			layer := constants.Layer(layerName)
			if !layer.Valid() {
				return fmt.Errorf("invalid layer %q (valid: terrain, obstacles, trail, composite)", layerName)
			}
			format := visualization.Format(formatName)
			if jsonOut {
				format = visualization.FormatJSON
			}
			if !format.Valid() {
				return fmt.Errorf("invalid format %q (valid: ascii, json, html)", formatName)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// Rendering shows a single state; only --ticks advances it.
			ticks, _ := cmd.Flags().GetInt("ticks")
			cfg.Run.Ticks = ticks

			seed := resolveSeed(cfg)
			w, err := buildWorld(cfg, seed)
			if err != nil {
				return err
			}
			for i := 0; i < cfg.Run.Ticks; i++ {
				w.Step()
			}
			snap := w.Snapshot()

			switch format {
			case visualization.FormatJSON:
				result, err := visualization.RenderJSON(snap, layer)
				if err != nil {
					return err
				}
				result["seed"] = seed
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			case visualization.FormatHTML:
				return writeStaticHTML(cmd, snap, w.Series(), output, noOpen)
			default:
				ascii, err := visualization.RenderASCII(snap, layer)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), ascii)
			}
			return nil
		},
	}

	addWorldFlags(cmd)
	cmd.Flags().String("layer", string(constants.LayerComposite), "Layer to render: terrain, obstacles, trail, composite")
	cmd.Flags().String("format", string(visualization.FormatASCII), "Output format: ascii, json, html")
	cmd.Flags().StringP("output", "o", "", "Output file for html format (default: temp file)")
	cmd.Flags().Bool("no-open", false, "Do not open the html page in a browser")

	return cmd
}

// writeStaticHTML renders the snapshot to a self-contained HTML file.
func writeStaticHTML(cmd *cobra.Command, snap world.Snapshot, series []float64, output string, noOpen bool) error {
	htmlBytes, err := visualization.RenderHTML(snap, series)
	if err != nil {
		return fmt.Errorf("render HTML: %w", err)
	}

	outPath := output
	if outPath == "" {
		outPath = filepath.Join(os.TempDir(), fmt.Sprintf("desirepath-tick%d.html", snap.Tick))
	}

	if err := os.WriteFile(outPath, htmlBytes, 0644); err != nil {
		return fmt.Errorf("write HTML file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Heatmap written to %s\n", outPath)

	if !noOpen {
		if err := visualization.OpenBrowser(outPath); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, outPath)
		}
	}
	return nil
}
