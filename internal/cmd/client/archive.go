package client

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rzbill/logtap/internal/archive"
	"github.com/rzbill/logtap/internal/store"
	logpkg "github.com/rzbill/logtap/pkg/log"
)

// NewArchiveCommand builds `logtap archive`, offline inspection of a
// Pebble archive directory written by a server running with archiving on.
func NewArchiveCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "archive", Short: "Archive operations"}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Print archived events for one topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			tenant, _ := cmd.Flags().GetString("tenant")
			origin, _ := cmd.Flags().GetString("origin")
			topic, _ := cmd.Flags().GetString("topic")
			limit, _ := cmd.Flags().GetInt("limit")

			logger := logpkg.NewLogger(logpkg.WithOutput(logpkg.NewWriterOutput(os.Stderr)))
			sink, err := archive.Open(dir, logger)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer sink.Close()

			events, err := sink.ReadTopic(tenant, origin, topic, limit)
			if err != nil {
				return err
			}
			for _, ev := range events {
				switch p := ev.Payload.(type) {
				case store.ConsoleRecord:
					cmd.Printf("%d %s %s\n", ev.Timestamp, p.Level, p.Message)
				case store.StructuredRecord:
					cmd.Printf("%d %s\n", ev.Timestamp, string(p.Data))
				}
			}
			cmd.Printf("%d archived events\n", len(events))
			return nil
		},
	}
	dump.Flags().String("dir", "", "Archive directory")
	dump.Flags().String("tenant", "", "Tenant")
	dump.Flags().String("origin", "", "Origin")
	dump.Flags().String("topic", "console", "Topic")
	dump.Flags().Int("limit", 0, "Max events (0 = all)")
	_ = dump.MarkFlagRequired("dir")
	_ = dump.MarkFlagRequired("tenant")
	_ = dump.MarkFlagRequired("origin")
	cmd.AddCommand(dump)
	return cmd
}
