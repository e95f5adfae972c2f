package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	exportServer string
	exportStatus string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads from a running server to a spreadsheet or snapshot file",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := exportServer + "/api/leads"
		if exportStatus != "" {
			endpoint += "?status=" + url.QueryEscape(exportStatus)
		}

		var resp struct {
			Leads []model.Lead `json:"leads"`
		}
		if err := apiCall(http.MethodGet, endpoint, nil, &resp); err != nil {
			return err
		}

		var err error
		switch {
		case strings.HasSuffix(exportOut, ".csv"):
			err = export.WriteCSV(exportOut, resp.Leads)
		case strings.HasSuffix(exportOut, ".xlsx"):
			err = export.WriteXLSX(exportOut, cfg.Export.SheetName, resp.Leads)
		case strings.HasSuffix(exportOut, ".db"), strings.HasSuffix(exportOut, ".sqlite"):
			err = export.WriteSQLite(cmd.Context(), exportOut, resp.Leads)
		default:
			return eris.Errorf("unsupported export extension: %s", exportOut)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Exported %d leads to %s\n", len(resp.Leads), exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportServer, "server", "http://localhost:8080", "serve API base URL")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "only export leads with this status")
	exportCmd.Flags().StringVar(&exportOut, "out", "leads.xlsx", "output file (.csv, .xlsx, .db)")
	rootCmd.AddCommand(exportCmd)
}
