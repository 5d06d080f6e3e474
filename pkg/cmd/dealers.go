package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dal"
	"github.com/nekruzvatanshoev/carscout/pkg/carscout/dealers"
)

var DealersCmd = &cobra.Command{
	Use:   DealersCmdName,
	Short: DealersCmdShort,
	Long:  DealersCmdLong,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		registry, err := dealers.Load(cfg.Dealers.File)
		if err != nil {
			return err
		}

		out, err := yaml.Marshal(struct {
			Dealers []dal.Dealer `yaml:"dealers"`
		}{registry.All()})
		if err != nil {
			return fmt.Errorf("failed to encode dealers: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}
