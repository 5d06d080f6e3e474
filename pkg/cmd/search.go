package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	SearchCmd.Flags().Int("limit", 0, "maximum number of vehicles to print")
	SearchCmd.Flags().Int("max-per-model", 0, "maximum vehicles per model before backfill")
	viper.BindPFlag("search.limit", SearchCmd.Flags().Lookup("limit"))
	viper.BindPFlag("search.max_per_model", SearchCmd.Flags().Lookup("max-per-model"))
}

var SearchCmd = &cobra.Command{
	Use:   SearchCmdName,
	Short: SearchCmdShort,
	Long:  SearchCmdLong,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg, log)
		if err != nil {
			return err
		}

		resp, err := a.search.ByDescription(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}
