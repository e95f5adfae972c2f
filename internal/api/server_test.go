package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/pipeline"
	"github.com/sells-group/leadgen-cli/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Export.Dir = t.TempDir()
	cfg.Export.SheetName = "Leads"

	st := store.NewMemory()
	t.Cleanup(func() { st.Close() })

	srv := httptest.NewServer(NewServer(cfg, st, pipeline.New(cfg, st, nil)).Router())
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func patchJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPatch, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIngestEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/ingest", map[string]any{
		"records": []model.RawRecord{
			{Name: "A", Email: "A@X.com"},
			{PropertyAddress: "12 Oak"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decode[pipeline.IngestResult](t, resp)
	assert.Len(t, result.Inserted, 1)
	assert.Len(t, result.Rejected, 1)
	assert.Equal(t, "a@x.com", result.Inserted[0].Email)
	assert.Equal(t, model.RejectMissingContact, result.Rejected[0].Reason)
}

func TestIngestEndpoint_EmptyBatch(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/ingest", map[string]any{"records": []model.RawRecord{}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScrapeEndpoint_RequiresSources(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/scrape", map[string]any{"sources": []string{}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListLeads(t *testing.T) {
	srv, st := newTestServer(t)
	ctx := context.Background()

	a, err := st.Upsert(ctx, model.CandidateLead{Name: "A", Email: "a@x.com"}, "email:a@x.com")
	require.NoError(t, err)
	_, err = st.Upsert(ctx, model.CandidateLead{Name: "B", Email: "b@x.com"}, "email:b@x.com")
	require.NoError(t, err)
	_, err = st.Transition(ctx, a.ID, model.StatusFollowUp)
	require.NoError(t, err)

	t.Run("All", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/leads")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode[struct {
			Leads []model.Lead `json:"leads"`
		}](t, resp)
		require.Len(t, body.Leads, 2)
		assert.Equal(t, "A", body.Leads[0].Name)
		assert.Equal(t, "B", body.Leads[1].Name)
	})

	t.Run("Filtered", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/leads?status=FOLLOW_UP")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode[struct {
			Leads []model.Lead `json:"leads"`
		}](t, resp)
		require.Len(t, body.Leads, 1)
		assert.Equal(t, "A", body.Leads[0].Name)
	})

	t.Run("InvalidFilter", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/leads?status=BOGUS")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGetLead(t *testing.T) {
	srv, st := newTestServer(t)

	lead, err := st.Upsert(context.Background(), model.CandidateLead{Name: "A", Email: "a@x.com"}, "email:a@x.com")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/leads/" + lead.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Lead model.Lead `json:"lead"`
	}](t, resp)
	assert.Equal(t, lead.ID, body.Lead.ID)

	resp, err = http.Get(srv.URL + "/api/leads/unknown")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTransitionEndpoint(t *testing.T) {
	srv, st := newTestServer(t)

	lead, err := st.Upsert(context.Background(), model.CandidateLead{Name: "A", Email: "a@x.com"}, "email:a@x.com")
	require.NoError(t, err)

	t.Run("OK", func(t *testing.T) {
		resp := patchJSON(t, srv.URL+"/api/leads", map[string]string{"id": lead.ID, "status": "CLOSED"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode[struct {
			Lead model.Lead `json:"lead"`
		}](t, resp)
		assert.Equal(t, model.StatusClosed, body.Lead.Status)
	})

	t.Run("NotFound", func(t *testing.T) {
		resp := patchJSON(t, srv.URL+"/api/leads", map[string]string{"id": "L99", "status": "CONTACTED"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		count, err := st.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		resp := patchJSON(t, srv.URL+"/api/leads", map[string]string{"id": lead.ID, "status": "ARCHIVED"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("MissingFields", func(t *testing.T) {
		resp := patchJSON(t, srv.URL+"/api/leads", map[string]string{"id": lead.ID})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestExportEndpoint(t *testing.T) {
	srv, st := newTestServer(t)

	_, err := st.Upsert(context.Background(), model.CandidateLead{Name: "A", Email: "a@x.com"}, "email:a@x.com")
	require.NoError(t, err)

	resp := postJSON(t, srv.URL+"/api/export", map[string]string{"format": "csv", "filename": "out.csv"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[struct {
		Path  string `json:"path"`
		Count int    `json:"count"`
	}](t, resp)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, "out.csv", filepath.Base(body.Path))
}

func TestExportEndpoint_BadFormat(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/export", map[string]string{"format": "pdf"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
