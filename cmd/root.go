// Package cmd wires the Cobra command tree for the mcpgate binary.
package cmd

import (
	"github.com/spf13/cobra"

	internalcmd "github.com/mcpgate/mcpgate/internal/cmd"
	"github.com/mcpgate/mcpgate/internal/flags"
)

type RootCmd struct {
	*internalcmd.BaseCmd
}

// Execute builds the command tree and runs the selected command.
func Execute() error {
	rootCmd, err := NewRootCmd()
	if err != nil {
		return err
	}

	return rootCmd.Execute()
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() (*cobra.Command, error) {
	c := &RootCmd{
		BaseCmd: &internalcmd.BaseCmd{},
	}

	rootCmd := &cobra.Command{
		Use:          "mcpgate <command> [args]",
		Short:        "'mcpgate' connects agents to MCP servers over stdio, WebSocket and HTTP",
		Long:         c.longDescription(),
		SilenceUsage: true,
		Version:      internalcmd.Version(),
	}

	// Global flags
	flags.InitFlags(rootCmd.PersistentFlags())

	daemonCmd, err := NewDaemonCmd(c.BaseCmd)
	if err != nil {
		return nil, err
	}
	rootCmd.AddCommand(daemonCmd)

	return rootCmd, nil
}

func (c *RootCmd) longDescription() string {
	return `'mcpgate' manages connections to configured MCP servers, discovers their
tools, and exposes a unified HTTP API for invoking them and inspecting
server health.`
}
