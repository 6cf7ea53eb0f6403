package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/relayhq/relayd/pkg/api"
)

var webhooksCmd = &cobra.Command{
	Use:   "webhooks",
	Short: "List configured webhook endpoints",
	RunE:  runWebhooks,
}

func runWebhooks(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(serverAddr + "/api/webhooks")
	if err != nil {
		return fmt.Errorf("get webhooks: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("relayd returned %s: %s", resp.Status, raw)
	}

	var configs []api.WebhookConfigResponse
	if err := json.Unmarshal(raw, &configs); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tENDPOINT\tAGENT\tENABLED\tCOMMANDS")
	for _, c := range configs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%v\n", c.Provider, c.EndpointPath, c.DefaultAgent, c.Enabled, c.CommandNames)
	}
	return w.Flush()
}
