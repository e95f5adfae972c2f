package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/sources"
)

var (
	ingestSources []string
	ingestOut     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest raw lead records from JSON files or listing sources",
	Long: `Reads raw lead records from JSON files (arrays of records) and/or fetches
them from listing source endpoints, runs them through validation and
deduplication, and prints the partitioned result. Use --out to export the
resulting lead list to a .csv, .xlsx, or .db file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && len(ingestSources) == 0 {
			return eris.New("provide at least one file or --sources endpoint")
		}

		ctx := cmd.Context()
		st := store.NewMemory()
		defer st.Close()

		src := sources.NewClient(
			sources.WithRateLimit(cfg.Sources.RequestsPerSec),
			sources.WithTimeout(time.Duration(cfg.Sources.TimeoutSecs)*time.Second),
		)
		pl := pipeline.New(cfg, st, src)

		combined := &pipeline.IngestResult{}
		var mu sync.Mutex

		// File batches ingest concurrently; the store serializes upserts.
		g, gctx := errgroup.WithContext(ctx)
		if limit := cfg.Sources.MaxConcurrent; limit > 0 {
			g.SetLimit(limit)
		}
		for _, path := range args {
			path := path
			g.Go(func() error {
				raws, err := readRawRecords(path)
				if err != nil {
					return err
				}
				result, err := pl.Ingest(gctx, raws)
				if err != nil {
					return err
				}
				mu.Lock()
				combined.Inserted = append(combined.Inserted, result.Inserted...)
				combined.Rejected = append(combined.Rejected, result.Rejected...)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if len(ingestSources) > 0 {
			result, err := pl.IngestFromSources(ctx, ingestSources)
			if err != nil {
				return err
			}
			combined.Inserted = append(combined.Inserted, result.Inserted...)
			combined.Rejected = append(combined.Rejected, result.Rejected...)
		}

		printIngestSummary(ctx, st, combined)

		if ingestOut != "" {
			return exportLeads(ctx, st, ingestOut)
		}
		return nil
	},
}

func readRawRecords(path string) ([]model.RawRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var raws []model.RawRecord
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	return raws, nil
}

func printIngestSummary(ctx context.Context, st store.Store, result *pipeline.IngestResult) {
	total, _ := st.Count(ctx)
	fmt.Printf("Ingested %d records: %d accepted, %d rejected (%d distinct leads)\n",
		len(result.Inserted)+len(result.Rejected), len(result.Inserted), len(result.Rejected), total)

	byReason := map[model.RejectionReason]int{}
	for _, rej := range result.Rejected {
		byReason[rej.Reason]++
	}
	for reason, n := range byReason {
		fmt.Printf("  %s: %d\n", reason, n)
	}
}

// exportLeads writes the full lead list to a file, picking the format from
// the extension.
func exportLeads(ctx context.Context, st store.Store, path string) error {
	leads, err := st.List(ctx, store.LeadFilter{})
	if err != nil {
		return err
	}

	switch {
	case strings.HasSuffix(path, ".csv"):
		err = export.WriteCSV(path, leads)
	case strings.HasSuffix(path, ".xlsx"):
		err = export.WriteXLSX(path, cfg.Export.SheetName, leads)
	case strings.HasSuffix(path, ".db"), strings.HasSuffix(path, ".sqlite"):
		err = export.WriteSQLite(ctx, path, leads)
	default:
		return eris.Errorf("unsupported export extension: %s", path)
	}
	if err != nil {
		return err
	}

	zap.L().Info("leads exported", zap.String("path", path), zap.Int("count", len(leads)))
	return nil
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestSources, "sources", nil, "listing source endpoints to fetch")
	ingestCmd.Flags().StringVar(&ingestOut, "out", "", "export resulting leads to this file (.csv, .xlsx, .db)")
	rootCmd.AddCommand(ingestCmd)
}
