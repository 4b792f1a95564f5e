package main

import (
	"fmt"
	"os"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/util"
	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "cutout",
	Short:         "Remove image backgrounds with a segmentation model",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
			cfg.Server.Mode = mode
		}
		return util.InitLogger(cfg.Server.Mode)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		util.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file (YAML)")
	rootCmd.PersistentFlags().String("mode", "", "Run mode: debug or release (overrides server.mode)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
