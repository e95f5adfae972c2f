package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	leadsServer string
	leadsStatus string
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect and transition leads on a running server",
}

var leadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := leadsServer + "/api/leads"
		if leadsStatus != "" {
			endpoint += "?status=" + url.QueryEscape(leadsStatus)
		}

		var resp struct {
			Leads []model.Lead `json:"leads"`
		}
		if err := apiCall(http.MethodGet, endpoint, nil, &resp); err != nil {
			return err
		}

		for _, lead := range resp.Leads {
			contact := lead.Email
			if contact == "" {
				contact = lead.Phone
			}
			fmt.Printf("%s  %-10s  %-30s  %s\n", lead.ID, lead.Status, lead.Name, contact)
		}
		fmt.Printf("%d leads\n", len(resp.Leads))
		return nil
	},
}

var leadsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Lead model.Lead `json:"lead"`
		}
		if err := apiCall(http.MethodGet, leadsServer+"/api/leads/"+url.PathEscape(args[0]), nil, &resp); err != nil {
			return err
		}

		out, err := json.MarshalIndent(resp.Lead, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal lead")
		}
		fmt.Println(string(out))
		return nil
	},
}

var leadsTransitionCmd = &cobra.Command{
	Use:   "transition <id> <status>",
	Short: "Move a lead to a new status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]string{"id": args[0], "status": args[1]}

		var resp struct {
			Lead model.Lead `json:"lead"`
		}
		if err := apiCall(http.MethodPatch, leadsServer+"/api/leads", body, &resp); err != nil {
			return err
		}

		fmt.Printf("%s -> %s\n", resp.Lead.ID, resp.Lead.Status)
		return nil
	},
}

// apiCall performs a JSON request against the serve API and decodes the
// response, surfacing the server's error message on non-2xx status.
func apiCall(method, endpoint string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, endpoint, reqBody)
	if err != nil {
		return eris.Wrapf(err, "build request %s", endpoint)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "call %s", endpoint)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return eris.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return eris.Errorf("%s: %s", resp.Status, string(data))
	}

	if out == nil {
		return nil
	}
	return eris.Wrap(json.Unmarshal(data, out), "decode response")
}

func init() {
	leadsCmd.PersistentFlags().StringVar(&leadsServer, "server", "http://localhost:8080", "serve API base URL")
	leadsListCmd.Flags().StringVar(&leadsStatus, "status", "", "filter by status (NEW, CONTACTED, FOLLOW_UP, CLOSED)")
	leadsCmd.AddCommand(leadsListCmd, leadsGetCmd, leadsTransitionCmd)
	rootCmd.AddCommand(leadsCmd)
}
