package cli

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DeBrosOfficial/fullnode/pkg/encryption"
	"github.com/DeBrosOfficial/fullnode/pkg/fullclient"
	"github.com/DeBrosOfficial/fullnode/pkg/nodename"
	"github.com/DeBrosOfficial/fullnode/pkg/ss58"
)

func nodeNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node-name",
		Short: "Print a random node name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := nodename.Generate()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}

func addressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Encode and decode SS58 addresses",
	}

	var format uint16
	encode := &cobra.Command{
		Use:     "encode <0x public key>",
		Short:   "Encode a 32-byte public key as an SS58 address",
		Example: "fullnode address encode 0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d --format 42",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
			if err != nil {
				return fmt.Errorf("invalid public key: %w", err)
			}
			addr, err := ss58.Encode(pub, ss58.Format(format))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			return nil
		},
	}
	encode.Flags().Uint16Var(&format, "format", uint16(ss58.Generic), "SS58 address format")

	decode := &cobra.Command{
		Use:   "decode <address>",
		Short: "Print the public key and format of an SS58 address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, f, err := ss58.Decode(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "public key: 0x%s\nformat:     %d\n", hex.EncodeToString(pub), f)
			return nil
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}

func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the node's network key",
	}

	var output string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Generate a node key and print its peer id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := encryption.GenerateIdentity()
			if err != nil {
				return fmt.Errorf("failed to generate identity: %w", err)
			}
			if output != "" {
				if err := encryption.SaveIdentity(info, output); err != nil {
					return fmt.Errorf("failed to save identity: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Identity saved to: %s\n", output)
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.PeerID.String())
			return nil
		},
	}
	generate.Flags().StringVar(&output, "output", "", "File to write the secret key to")

	inspect := &cobra.Command{
		Use:   "inspect [key file]",
		Short: "Print the peer id of a node key, by default the one of --chain under --base-path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			} else {
				spec, err := chainSpecFlag(cmd)
				if err != nil {
					return err
				}
				basePath, err := basePathFlag(cmd)
				if err != nil {
					return err
				}
				path = filepath.Join(basePath.ConfigDir(spec.ID()), fullclient.NetworkConfigDir, fullclient.NodeKeyFile)
			}

			info, err := encryption.LoadIdentity(path)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.PeerID.String())
			return nil
		},
	}

	cmd.AddCommand(generate, inspect)
	return cmd
}
