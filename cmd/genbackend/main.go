package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/stuartcarnie/genbackend"
	"github.com/stuartcarnie/genbackend/config"
)

var logLevel zap.AtomicLevel

func init() {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.CallerKey = ""
	cfg.EncoderConfig.TimeKey = ""
	if os.Getenv("NO_COLOR") == "" {
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	logLevel = cfg.Level
	zap.ReplaceGlobals(log)
}

var (
	rootOpt = struct {
		Configuration string
		Verbose       bool
	}{}

	rootCmd = cobra.Command{
		Use:   "genbackend",
		Short: "Regenerate the Python backend methods from protobuf descriptors",
		Args:  cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if rootOpt.Verbose {
				logLevel.SetLevel(zap.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newRunner()
			if err != nil {
				return err
			}
			_, err = r.Run()
			return err
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpt.Configuration, "config", "c", "", "Configuration file (default "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&rootOpt.Verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(&methodsCmd)
	rootCmd.AddCommand(&dumpConfigCmd)
	rootCmd.AddCommand(&watchCmd)
}

func loadConfig() (*config.Config, error) {
	return genbackend.LoadConfig(rootOpt.Configuration)
}

func newRunner() (*genbackend.Runner, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return genbackend.NewRunner(cfg, nil), nil
}

func Main() int {
	defer func() {
		_ = zap.L().Sync()
	}()
	if err := rootCmd.Execute(); err != nil {
		// Configuration errors have already been logged.
		if !errors.As(err, &genbackend.ConfigError{}) {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		return 1
	}
	return 0
}

func main() {
	os.Exit(Main())
}
