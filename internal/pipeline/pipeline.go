// Package pipeline implements the lead ingestion pipeline: raw record
// normalization, dedupe key resolution, and batch coordination into the
// pipeline store.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/sources"
)

// Pipeline coordinates ingestion batches against the lead store.
type Pipeline struct {
	cfg     *config.Config
	store   store.Store
	sources sources.Client
}

// New creates a Pipeline. The sources client may be nil when only direct
// record ingestion is needed.
func New(cfg *config.Config, st store.Store, src sources.Client) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		store:   st,
		sources: src,
	}
}

// IngestResult partitions one batch into the leads that made it into the
// store (inserted or merged) and the records that failed validation. Each
// partition preserves the input order of its records, and the partition sizes
// always sum to the batch size.
type IngestResult struct {
	Inserted []model.Lead           `json:"inserted"`
	Rejected []model.RejectedRecord `json:"rejected"`
}

// Ingest runs a batch of raw records through normalization, dedupe
// resolution, and upsert. Validation failures are collected per record and
// never fail the batch; only store errors propagate.
func (p *Pipeline) Ingest(ctx context.Context, raws []model.RawRecord) (*IngestResult, error) {
	result := &IngestResult{
		Inserted: []model.Lead{},
		Rejected: []model.RejectedRecord{},
	}

	for _, raw := range raws {
		candidate, reason := Normalize(raw)
		if candidate == nil {
			result.Rejected = append(result.Rejected, model.RejectedRecord{
				Record: raw,
				Reason: reason,
			})
			continue
		}

		lead, err := p.store.Upsert(ctx, *candidate, ResolveKey(*candidate))
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: upsert lead")
		}
		result.Inserted = append(result.Inserted, *lead)
	}

	zap.L().Info("pipeline: batch ingested",
		zap.Int("records", len(raws)),
		zap.Int("inserted", len(result.Inserted)),
		zap.Int("rejected", len(result.Rejected)),
	)
	return result, nil
}

// IngestFromSources fetches raw records from each listing source endpoint and
// ingests them as one combined batch, preserving endpoint order. With no
// explicit endpoints it falls back to the configured source list.
func (p *Pipeline) IngestFromSources(ctx context.Context, endpoints []string) (*IngestResult, error) {
	if p.sources == nil {
		return nil, eris.New("pipeline: no sources client configured")
	}
	if len(endpoints) == 0 {
		endpoints = p.cfg.Sources.Endpoints
	}
	if len(endpoints) == 0 {
		return nil, eris.New("pipeline: no source endpoints configured")
	}

	batches := make([][]model.RawRecord, len(endpoints))

	g, gctx := errgroup.WithContext(ctx)
	if limit := p.cfg.Sources.MaxConcurrent; limit > 0 {
		g.SetLimit(limit)
	}
	for i, endpoint := range endpoints {
		i, endpoint := i, endpoint
		g.Go(func() error {
			records, err := p.sources.Fetch(gctx, endpoint)
			if err != nil {
				return eris.Wrapf(err, "pipeline: fetch source %s", endpoint)
			}
			batches[i] = toRawRecords(records)
			zap.L().Debug("pipeline: source fetched",
				zap.String("endpoint", endpoint),
				zap.Int("records", len(batches[i])),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var combined []model.RawRecord
	for _, batch := range batches {
		combined = append(combined, batch...)
	}
	return p.Ingest(ctx, combined)
}

// toRawRecords converts the source client's wire records into model records.
func toRawRecords(records []sources.Record) []model.RawRecord {
	raws := make([]model.RawRecord, len(records))
	for i, r := range records {
		raws[i] = model.RawRecord{
			Name:            r.Name,
			Email:           r.Email,
			Phone:           r.Phone,
			PropertyAddress: r.PropertyAddress,
			Price:           r.Price,
			Source:          r.Source,
		}
	}
	return raws
}
