package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raykavin/pikachart"
	"github.com/raykavin/pikachart/pkg/core"
)

// Render command flags
var (
	renderOutput  string
	renderFormat  string
	renderBackend string
	renderWidth   int
	renderHeight  int
)

func buildRenderCmd() *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render the configured card to an image file",
		RunE:  runRender,
	}

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output file path (e.g. ./chart.png)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "png, svg or html (default from the output extension)")
	renderCmd.Flags().StringVarP(&renderBackend, "backend", "b", "", "Backend override (gochart, svg, echarts)")
	renderCmd.Flags().IntVar(&renderWidth, "width", 800, "Image width in pixels")
	renderCmd.Flags().IntVar(&renderHeight, "height", 0, "Image height in pixels (default from the card)")

	renderCmd.MarkFlagRequired("output")

	return renderCmd
}

func runRender(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(renderOutput, renderFormat)
	if err != nil {
		return err
	}

	s, err := openSession(cmd.Context(), sessionOptions{
		backend: renderBackend,
		width:   renderWidth,
		height:  renderHeight,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	data, err := s.card.Export(cmd.Context(), format)
	if err != nil {
		return fmt.Errorf("%s cannot export %s: %w", s.card.Backend(), format, err)
	}
	if err := os.WriteFile(renderOutput, data, 0o644); err != nil {
		return err
	}

	pikachart.DefaultLog.WithFields(map[string]any{
		"backend": s.card.Backend(),
		"format":  format,
		"bytes":   len(data),
		"path":    renderOutput,
	}).Info("chart rendered")
	return nil
}

// outputFormat prefers the explicit flag, then the file extension
func outputFormat(path, flag string) (core.ImageFormat, error) {
	if flag == "" {
		flag = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	if flag == "" {
		return core.FormatPNG, nil
	}
	return core.ParseImageFormat(flag)
}

// friendlyName turns sensor.living_room into "Living Room"
func friendlyName(entityID string) string {
	name := entityID
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
