package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/marginfc/internal/config"
	"github.com/theirongolddev/marginfc/internal/model"
	"github.com/theirongolddev/marginfc/internal/pipeline"
)

func historyCSV(months int, extra ...string) string {
	lines := []string{"Start Date,P&L Type,margin"}
	start := time.Date(2020, time.January, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < months; i++ {
		d := start.AddDate(0, i, 0).Format("2006-01-02")
		lines = append(lines,
			fmt.Sprintf("%s,Consulting,%d", d, 1000+25*i),
			fmt.Sprintf("%s,Licensing,%d", d, 300+(i%12)*10),
		)
	}
	lines = append(lines, "2021-05-05,Training,40")
	lines = append(lines, extra...)
	return strings.Join(lines, "\n") + "\n"
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		return path
	}

	tables := pipeline.Tables{
		HistoryPath: write("history.csv", historyCSV(30)),
		GrowthPath:  write("growth.csv", "P&L Type,Growth Rate%,Growth Rate most likely\nConsulting,4.9,13.86\n"),
		FuturePath:  write("future.csv", "ds,P&L Type,yhat\n2026-01-01,Consulting,1000\n2026-01-01,Licensing,250\n"),
	}
	s := New(Config{
		Tables:   tables,
		Columns:  pipeline.ColumnsFromConfig(config.DefaultConfig().Columns),
		Options:  pipeline.DefaultOptions(),
		Interval: time.Minute,
	})
	return s, tables.HistoryPath
}

func getJSON(t *testing.T, srv *httptest.Server, path string, v any) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path) //nolint:noctx // test request
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestService_NotLoadedYet(t *testing.T) {
	s, _ := newTestService(t)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	var body errorBody
	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv, "/v1/pipeline", &body))
	assert.NotEmpty(t, body.Error)

	resp, err := http.Get(srv.URL + "/healthz") //nolint:noctx // test request
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestService_PipelineQueries(t *testing.T) {
	s, _ := newTestService(t)
	s.pollOnce(context.Background())

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	var cats []string
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/v1/categories", &cats))
	assert.Equal(t, []string{model.AllCategories, "Consulting", "Licensing", "Training"}, cats)

	var res pipeline.Result
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/v1/pipeline?category=Consulting", &res))
	assert.Equal(t, "Consulting", res.Filter)
	assert.Len(t, res.Forecast.Historical, 30)
	assert.Len(t, res.Forecast.Future, 12)
	require.Len(t, res.Adjusted, 1)
	require.NotNil(t, res.Mismatch)
	assert.Equal(t, []string{"Licensing"}, res.Mismatch.MissingRates)

	var all pipeline.Result
	require.Equal(t, http.StatusOK, getJSON(t, srv, "/v1/pipeline", &all))
	assert.Equal(t, model.AllCategories, all.Filter)

	var body errorBody
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv, "/v1/pipeline?category=Hardware", &body))
	assert.Equal(t, "empty_filter_result", body.Kind)

	assert.Equal(t, http.StatusUnprocessableEntity, getJSON(t, srv, "/v1/pipeline?category=Training", &body))
	assert.Equal(t, "insufficient_data", body.Kind)
}

func TestService_ReloadsOnlyWhenTablesChange(t *testing.T) {
	s, historyPath := newTestService(t)
	ctx := context.Background()

	s.pollOnce(ctx)
	s.pollOnce(ctx)
	st := s.snapshotStatus()
	assert.EqualValues(t, 2, st.PollCount)
	assert.EqualValues(t, 1, st.LoadCount)
	assert.Empty(t, st.LastError)
	firstVersion := st.Summary.DataVersion
	require.NotEmpty(t, firstVersion)

	require.NoError(t, os.WriteFile(historyPath, []byte(historyCSV(31, "2022-09-09,Licensing,1")), 0o600))
	s.pollOnce(ctx)
	st = s.snapshotStatus()
	assert.EqualValues(t, 2, st.LoadCount)
	assert.NotEqual(t, firstVersion, st.Summary.DataVersion)

	s.mu.RLock()
	require.Len(t, s.events, 2)
	assert.Equal(t, "snapshot", s.events[0].Type)
	assert.Equal(t, "reload", s.events[1].Type)
	s.mu.RUnlock()

	// A broken table keeps serving the last good load.
	require.NoError(t, os.Remove(historyPath))
	s.pollOnce(ctx)
	st = s.snapshotStatus()
	assert.NotEmpty(t, st.LastError)
	assert.EqualValues(t, 2, st.LoadCount)
	assert.NotNil(t, s.currentRunner())
}

func TestPublishEventRingBuffer(t *testing.T) {
	s := New(Config{
		Interval:     10 * time.Second,
		EventsBuffer: 2,
	})

	s.publishEvent(Event{ID: 1})
	s.publishEvent(Event{ID: 2})
	s.publishEvent(Event{ID: 3})

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.events) != 2 {
		t.Fatalf("events len = %d, want 2", len(s.events))
	}
	if s.events[0].ID != 2 || s.events[1].ID != 3 {
		t.Fatalf("events ring contains IDs [%d, %d], want [2, 3]", s.events[0].ID, s.events[1].ID)
	}
}

func TestClassify(t *testing.T) {
	code, kind := classify(fmt.Errorf("wrapped: %w", &pipeline.EmptyFilterResultError{Filter: "x"}))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "empty_filter_result", kind)

	code, _ = classify(&pipeline.InsufficientDataError{Points: 1, Min: 2})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, kind = classify(os.ErrNotExist)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Empty(t, kind)
}
