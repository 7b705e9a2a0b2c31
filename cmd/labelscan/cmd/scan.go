package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/MeKo-Tech/labelscan/internal/frame"
	"github.com/MeKo-Tech/labelscan/internal/pipeline"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	"gopkg.in/yaml.v3"
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan [image files...]",
	Short: "Scan label images for WiFi credentials",
	Long: `Run the detection-to-credential pipeline over one or more label
photographs and print the parsed credentials.

Examples:
  labelscan scan sticker.jpg
  labelscan scan --rotation 90 frame.png
  labelscan scan --format yaml *.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	rotation, _ := cmd.Flags().GetInt("rotation")
	format, _ := cmd.Flags().GetString("format")
	detModel, _ := cmd.Flags().GetString("det-model")
	textDetModel, _ := cmd.Flags().GetString("text-det-model")
	textRecModel, _ := cmd.Flags().GetString("text-rec-model")
	confidence, _ := cmd.Flags().GetFloat64("confidence")

	builder := pipeline.NewBuilder().
		WithConfig(cfg.ToPipelineConfig()).
		WithDetectorModelPath(detModel).
		WithExtractorModelPaths(textDetModel, textRecModel).
		WithDetectorThresholds(confidence, 0).
		WithMinInterval(0)

	orchestrator, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer orchestrator.Close()

	for _, path := range args {
		img, err := loadImage(path)
		if err != nil {
			return err
		}

		buf := frame.BufferFromImage(img)
		result := orchestrator.Run(context.Background(), buf, rotation, time.Now())

		if err := printResult(cmd, path, result, format); err != nil {
			return err
		}
	}
	return nil
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: user-provided image path is expected
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

func printResult(cmd *cobra.Command, path string, result pipeline.Result, format string) error {
	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprint(out, string(data))
	case "text":
		fmt.Fprintf(out, "%s: %s, %d region(s)\n", path, result.State, result.Regions)
		for _, cred := range result.Credentials {
			fmt.Fprintf(out, "  %s / %s (confidence %.2f)\n", cred.Identifier, cred.Secret, cred.Confidence)
		}
		if len(result.Credentials) == 0 {
			fmt.Fprintln(out, "  no credentials found")
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().Int("rotation", 0, "clockwise sensor rotation in degrees (multiple of 90)")
	scanCmd.Flags().StringP("format", "f", "json", "output format (json, yaml, text)")
	scanCmd.Flags().String("det-model", "", "override label localization model path")
	scanCmd.Flags().String("text-det-model", "", "override text proposal model path")
	scanCmd.Flags().String("text-rec-model", "", "override text recognition model path")
	scanCmd.Flags().Float64("confidence", 0, "detector confidence threshold (0..1, 0 keeps config)")
}
