package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/chaos-io/cutout/cutout"
	"github.com/chaos-io/cutout/cutout/rembg"
	"github.com/chaos-io/cutout/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var removeCmd = &cobra.Command{
	Use:   "remove <image file or URL>",
	Short: "Cut out the foreground of an image into a transparent PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	removeCmd.Flags().StringP("output", "o", "", "Output PNG path (default <name>_cutout.png)")
	removeCmd.Flags().String("mask-out", "", "Also write the unfeathered alpha mask as a grayscale PNG")
	removeCmd.Flags().StringP("model", "m", "", "Model: human-segmentation or general-segmentation")
	removeCmd.Flags().Int("input-size", 0, "Model input size (320 or 512)")
	removeCmd.Flags().Float64("threshold", 0, "Foreground threshold (0.1-0.9)")
	removeCmd.Flags().Float64("feather", 0, "Edge feather radius in pixels (0-20)")
	removeCmd.Flags().String("background", "", "Solid background colour (#rgb or #rrggbb), transparent if empty")
	removeCmd.Flags().String("resampler", "", "Input resampler: bilinear, catmullrom or lanczos3")
	removeCmd.Flags().BoolP("quiet", "q", false, "Do not print progress")
	rootCmd.AddCommand(removeCmd)
}

// settingsFromFlags 只覆盖显式传入的参数
func settingsFromFlags(cmd *cobra.Command, s cutout.Settings) cutout.Settings {
	flags := cmd.Flags()
	if flags.Changed("model") {
		v, _ := flags.GetString("model")
		s.Model = rembg.Model(v)
	}
	if flags.Changed("input-size") {
		s.InputSize, _ = flags.GetInt("input-size")
	}
	if flags.Changed("threshold") {
		s.Threshold, _ = flags.GetFloat64("threshold")
	}
	if flags.Changed("feather") {
		s.Feather, _ = flags.GetFloat64("feather")
	}
	if flags.Changed("background") {
		s.Background, _ = flags.GetString("background")
	}
	return s.Normalize()
}

func defaultOutputPath(input string) string {
	base := filepath.Base(input)
	if util.IsURL(input) {
		base = filepath.Base(strings.SplitN(input, "?", 2)[0])
	}
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." || name == "/" {
		name = "image"
	}
	return name + "_cutout.png"
}

func runRemove(cmd *cobra.Command, args []string) error {
	input := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	maskPath, _ := cmd.Flags().GetString("mask-out")
	quiet, _ := cmd.Flags().GetBool("quiet")
	if outputPath == "" {
		outputPath = defaultOutputPath(input)
	}
	if !cutout.IsPNGName(outputPath) {
		return fmt.Errorf("output must be a .png file: %s", outputPath)
	}
	if cmd.Flags().Changed("resampler") {
		cfg.Pipeline.Resampler, _ = cmd.Flags().GetString("resampler")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var progress cutout.ProgressFunc
	if !quiet {
		progress = func(stage string, value float64) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%3.0f%%] %s\n", value*100, stage)
		}
	}
	pipeline, sessions, err := newPipeline(cfg, progress)
	if err != nil {
		return err
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			util.Logger.Warn("close sessions", zap.Error(err))
		}
	}()

	settings := settingsFromFlags(cmd, cfg.Cutout)
	result, err := removeBackground(ctx, pipeline, input, settings)
	if err != nil {
		return err
	}

	if err := writePNG(outputPath, result.Image); err != nil {
		return err
	}
	if maskPath != "" {
		if err := writePNG(maskPath, cutout.AlphaToGray(result.RawAlpha)); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cut out %dx%d with %s at %dpx\n",
		result.Image.Rect.Dx(), result.Image.Rect.Dy(), settings.Model, result.InputSize)
	if result.HasForeground {
		fmt.Fprintf(cmd.OutOrStdout(), "Foreground: %v (%.1f%% of image)\n", result.Bounds, result.Coverage*100)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Foreground: none detected")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Output: %s\n", outputPath)
	if maskPath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Mask:   %s\n", maskPath)
	}
	return nil
}

func removeBackground(ctx context.Context, p *cutout.Pipeline, input string, settings cutout.Settings) (*cutout.Result, error) {
	defer util.Trace("remove background")()

	data, err := util.LoadBytes(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return p.RunBytes(ctx, data, settings)
}

func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := cutout.EncodePNG(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
