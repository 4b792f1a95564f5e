package main

import (
	"fmt"

	"github.com/chaos-io/cutout/cutout/rembg"
	"github.com/spf13/cobra"
)

var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Load a model ahead of time and report its declared shape",
	RunE:  runWarmup,
}

func init() {
	warmupCmd.Flags().StringP("model", "m", "", "Model to load (default cutout.model from config)")
	rootCmd.AddCommand(warmupCmd)
}

func runWarmup(cmd *cobra.Command, args []string) error {
	model := cfg.Cutout.Model
	if cmd.Flags().Changed("model") {
		v, _ := cmd.Flags().GetString("model")
		m, ok := rembg.ParseModel(v)
		if !ok {
			return fmt.Errorf("unknown model %q", v)
		}
		model = m
	}

	pipeline, sessions, err := newPipeline(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sessions.Close()
	}()

	shape, err := pipeline.Warmup(cmd.Context(), model)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Model:  %s (%s)\n", model, model.Asset())
	fmt.Fprintf(cmd.OutOrStdout(), "Input:  %s %v\n", shape.InputName, shape.InputDims)
	fmt.Fprintf(cmd.OutOrStdout(), "Output: %s %v\n", shape.OutputName, shape.OutputDims)
	if size, ok := shape.DeclaredInputSize(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "Model expects %dpx.\n", size)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Dynamic input, using %dpx.\n", model.DefaultInputSize())
	}
	return nil
}
