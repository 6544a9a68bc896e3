package client

import (
	"github.com/spf13/cobra"

	"github.com/rzbill/logtap/internal/consumer"
)

// NewLogsCommand builds `logtap logs`, a one-shot point query.
func NewLogsCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Fetch recent log events",
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, _ := cmd.Flags().GetString("tenant")
			origin, _ := cmd.Flags().GetString("origin")
			topic, _ := cmd.Flags().GetString("topic")
			lines, _ := cmd.Flags().GetInt("lines")
			filter, _ := cmd.Flags().GetString("filter")
			expr, _ := cmd.Flags().GetString("expr")

			c := consumer.New(consumer.Options{BaseURL: baseURL()})
			res, err := c.GetLogs(cmd.Context(), consumer.Request{
				Tenant: tenant,
				Origin: origin,
				Topic:  topic,
				Limit:  lines,
				Filter: filter,
				Expr:   expr,
			})
			if err != nil {
				return err
			}
			cmd.Print(res.Render())
			return nil
		},
	}
	cmd.Flags().String("tenant", "", "Tenant (application) to query")
	cmd.Flags().String("origin", "", "Origin (host) to query")
	cmd.Flags().String("topic", "", "Topic to query")
	cmd.Flags().Int("lines", 0, "Max events to return")
	cmd.Flags().String("filter", "", "Case-insensitive substring filter")
	cmd.Flags().String("expr", "", "CEL filter expression, e.g. level == \"error\"")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}
