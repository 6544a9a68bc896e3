package client

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rzbill/logtap/internal/consumer"
	"github.com/rzbill/logtap/internal/mcptool"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

// NewMCPCommand builds `logtap mcp`: the consumer process exposed as an
// MCP stdio server. Logs go to stderr so stdout stays a clean MCP channel.
func NewMCPCommand(baseURL BaseURLFunc, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the log consumer as an MCP stdio server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logpkg.NewLogger(
				logpkg.WithOutput(logpkg.NewWriterOutput(os.Stderr)),
			)
			c := consumer.New(consumer.Options{
				BaseURL: baseURL(),
				Logger:  logger,
			})
			return mcptool.New(c, version, logger).Run(cmd.Context())
		},
	}
}
