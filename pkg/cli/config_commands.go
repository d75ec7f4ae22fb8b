package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/fullnode/pkg/fullclient"
)

func configCmd() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the configuration the node would start with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := chainSpecFlag(cmd)
			if err != nil {
				return err
			}
			basePath, err := basePathFlag(cmd)
			if err != nil {
				return err
			}

			cfg, err := fullclient.CreateConfiguration(basePath, spec, nil)
			if err != nil {
				return err
			}
			if !check {
				return cfg.Encode(cmd.OutOrStdout())
			}

			problems := cfg.Validate()
			for _, p := range problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "invalid: %v\n", p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("configuration has %d problem(s)", len(problems))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Only validate the configuration, failing on problems")
	return cmd
}
