package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/config"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/logging"
)

var configFile string

var RootCmd = &cobra.Command{
	Use:           RootCmdName,
	Short:         RootCmdShort,
	Long:          RootCmdLong,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "path to a YAML config file")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: color, text or json")
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))

	RootCmd.AddCommand(ServeCmd, DealersCmd, SearchCmd)
}

// loadConfig reads the configuration and builds the logger every command uses.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(viper.GetViper(), configFile)
	if err != nil {
		return nil, nil, err
	}
	log := logging.New(logging.Config{
		Writer: os.Stderr,
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})
	slog.SetDefault(log)
	return cfg, log, nil
}
