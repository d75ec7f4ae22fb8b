// Package cli implements the fullnode command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/fullnode/pkg/chainspec"
	"github.com/DeBrosOfficial/fullnode/pkg/config"
	"github.com/DeBrosOfficial/fullnode/pkg/version"
)

const (
	flagBasePath = "base-path"
	flagChain    = "chain"
)

// NewRootCmd returns the fullnode command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "fullnode",
		Short:         "Run and inspect a " + version.ImplName + " full node",
		Version:       version.Full(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String(flagBasePath, "", "Directory node state is kept in (default ~/.fullnode)")
	root.PersistentFlags().String(flagChain, "", "Path to the chain specification JSON")

	root.AddCommand(
		runCmd(),
		configCmd(),
		nodeNameCmd(),
		addressCmd(),
		keyCmd(),
	)
	return root
}

func basePathFlag(cmd *cobra.Command) (config.BasePath, error) {
	raw, err := cmd.Flags().GetString(flagBasePath)
	if err != nil {
		return "", err
	}
	if raw != "" {
		return config.BasePath(raw), nil
	}
	return config.DefaultBasePath()
}

func chainSpecFlag(cmd *cobra.Command) (*chainspec.File, error) {
	path, err := cmd.Flags().GetString(flagChain)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("--%s is required", flagChain)
	}
	return chainspec.Load(path)
}
