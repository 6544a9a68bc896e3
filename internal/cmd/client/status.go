package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

type statusResponse struct {
	Tenants []struct {
		Name         string `json:"name"`
		Events       int    `json:"events"`
		OriginDetail []struct {
			Name        string `json:"name"`
			Events      int    `json:"events"`
			TopicDetail []struct {
				Name         string `json:"name"`
				Count        int    `json:"count"`
				LastActivity int64  `json:"lastActivityMs"`
			} `json:"topicDetail"`
		} `json:"originDetail"`
	} `json:"tenants"`
	TotalEvents int   `json:"totalEvents"`
	Subscribers int   `json:"subscribers"`
	UptimeMs    int64 `json:"uptimeMs"`
}

// NewStatusCommand builds `logtap status`.
func NewStatusCommand(baseURL BaseURLFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the relay's tenants, origins, and topics",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, baseURL()+"/v1/status", nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("status endpoint returned %s", resp.Status)
			}
			var st statusResponse
			if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
				return err
			}

			cmd.Printf("uptime %s, %d events, %d subscribers\n",
				(time.Duration(st.UptimeMs) * time.Millisecond).Round(time.Second),
				st.TotalEvents, st.Subscribers)
			for _, t := range st.Tenants {
				cmd.Printf("%s (%d events)\n", t.Name, t.Events)
				for _, o := range t.OriginDetail {
					cmd.Printf("  %s (%d events)\n", o.Name, o.Events)
					for _, tp := range o.TopicDetail {
						last := "never"
						if tp.LastActivity > 0 {
							last = time.UnixMilli(tp.LastActivity).Format(time.RFC3339)
						}
						cmd.Printf("    %s: %d events, last %s\n", tp.Name, tp.Count, last)
					}
				}
			}
			return nil
		},
	}
}
