package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marktime/internal/config"
	"marktime/internal/dates"
	"marktime/internal/document"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, docs map[string]string) (*Server, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.CacheDir = filepath.Join(dir, "cache")
	for name, body := range docs {
		path := filepath.Join(dir, name+".mw")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		cfg.Documents = append(cfg.Documents, document.Source{Name: name, Location: path})
	}
	cfg.Normalize()

	s := NewServer(cfg)
	s.now = func() time.Time { return testNow }
	return s, cfg
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())
}

func TestParseEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodPost, "/api/parse", "2020: a\n_-_-_break_-_-_\n2021: b")
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Timelines []struct {
			Metadata struct {
				StartLineIndex int `json:"startLineIndex"`
			} `json:"metadata"`
		} `json:"timelines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Timelines, 2)
	require.Equal(t, 2, got.Timelines[1].Metadata.StartLineIndex)
	require.Contains(t, rec.Body.String(), `"innerHtml":"a"`)

	rec = do(t, s.Handler(), http.MethodGet, "/api/parse", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestDateEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/date?text=2020-05%2F2021", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got dateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.True(t, time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC).Equal(got.From))
	require.True(t, time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC).Equal(got.To))
	require.Equal(t, dates.Month, got.Granularity)

	rec = do(t, s.Handler(), http.MethodGet, "/api/date?text=soon", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/api/date", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimelinesEndpoint(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{
		"life": "title: Life\n2020: a",
		"work": "2021: b",
	})

	rec := do(t, s.Handler(), http.MethodGet, "/api/timelines", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Documents []struct {
			Name string `json:"name"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Documents, 2)

	rec = do(t, s.Handler(), http.MethodGet, "/api/timelines?document=work", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Documents, 1)
	require.Equal(t, "work", got.Documents[0].Name)

	rec = do(t, s.Handler(), http.MethodGet, "/api/timelines?document=nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshKeepsPreviousParseOnFailure(t *testing.T) {
	s, cfg := newTestServer(t, map[string]string{"life": "2020: a"})
	require.NoError(t, s.Refresh(context.Background()))

	require.NoError(t, os.Remove(cfg.Documents[0].Location))
	require.NoError(t, s.Refresh(context.Background()))

	docs := s.cachedDocs()
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Timelines.Timelines[0].Events(), 1)
}

func TestCacheTTL(t *testing.T) {
	s, cfg := newTestServer(t, map[string]string{"life": "2020: a"})
	_, err := s.documents(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(cfg.Documents[0].Location, []byte("2020: a\n2021: b"), 0o600))
	dc, err := s.documents(context.Background())
	require.NoError(t, err)
	require.Len(t, dc.docs[0].Timelines.Timelines[0].Events(), 1)

	s.now = func() time.Time { return testNow.Add(cfg.CacheTTL()) }
	dc, err = s.documents(context.Background())
	require.NoError(t, err)
	require.Len(t, dc.docs[0].Timelines.Timelines[0].Events(), 2)
}

func TestOccurrencesEndpoint(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{
		"team": "2024-01-01 every week for 4 times: Standup\n2022: Old",
	})

	rec := do(t, s.Handler(), http.MethodGet, "/api/occurrences?from=2024-01&to=2024-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got occurrencesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Occurrences, 4)
	require.Equal(t, "team", got.Occurrences[0].Document)
	require.Equal(t, "UTC", got.DisplayTimeZone)

	rec = do(t, s.Handler(), http.MethodGet, "/api/occurrences?from=2024-02&to=2024-01", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.Handler(), http.MethodGet, "/api/occurrences?from=yesterday&to=2024-01", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Default window is one day back and a week ahead of now.
	rec = do(t, s.Handler(), http.MethodGet, "/api/occurrences", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Empty(t, got.Occurrences)
	require.True(t, testNow.AddDate(0, 0, -1).Equal(got.RangeStart))
}

func TestICSEndpoint(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{"life": "2020: Born !born"})

	rec := do(t, s.Handler(), http.MethodGet, "/api/ics?document=life", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), "UID:born@marktime")

	rec = do(t, s.Handler(), http.MethodGet, "/api/ics", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	s, cfg := newTestServer(t, nil)
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/date?text=2020", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/date?text=2020", nil)
	req.SetBasicAuth("u", "p")
	ok := httptest.NewRecorder()
	h.ServeHTTP(ok, req)
	require.Equal(t, http.StatusOK, ok.Code)
}

func TestScheduleRejectsBadCron(t *testing.T) {
	s, cfg := newTestServer(t, nil)
	cfg.RefreshCron = "not a schedule"
	_, err := s.Schedule(context.Background())
	require.Error(t, err)

	cfg.RefreshCron = "*/5 * * * *"
	c, err := s.Schedule(context.Background())
	require.NoError(t, err)
	<-c.Stop().Done()
}
