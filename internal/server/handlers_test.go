package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/featrans/internal/config"
	"github.com/hyperjump/featrans/internal/dataset"
	"github.com/hyperjump/featrans/internal/engine"
	"github.com/hyperjump/featrans/internal/models"
	"github.com/hyperjump/featrans/internal/storage"
)

func newTestServer(t *testing.T, discover bool) *Server {
	t.Helper()
	eng := engine.New()
	err := eng.Configure([]models.ColumnSpec{
		{Column: "label", Kind: models.KindLabel},
		{Column: "fea1", Kind: models.KindText, Extra: ","},
		{Column: "fea2", Kind: models.KindNumeric, Extra: "1"},
	}, 0, []string{"label", "fea1", "fea2"})
	if err != nil {
		t.Fatal(err)
	}
	if discover {
		frame, err := dataset.FromColumns(
			[]string{"label", "fea1", "fea2"},
			map[string][]string{
				"label": {"1", "1", "0", "1", "1"},
				"fea1":  {"a,a,c", "a,c,d", "c,e,f", "a,f", ""},
				"fea2":  {"1", "2", "3", "", "3"},
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if err := eng.Discover(frame); err != nil {
			t.Fatal(err)
		}
	}
	return NewServer(eng, nil, &config.ServerConfig{Port: 8080}, zap.NewNop())
}

func TestHandleTransform(t *testing.T) {
	srv := newTestServer(t, true)
	body, _ := json.Marshal(map[string]interface{}{
		"rows": []map[string]string{
			{"label": "1", "fea1": "a,a,c", "fea2": "1"},
			{"label": "0", "fea1": "z", "fea2": ""},
		},
	})
	r := httptest.NewRequest(http.MethodPost, "/api/v1/transform", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.handleTransform(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body: %s", w.Code, w.Body.String())
	}
	var out transformResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Samples) != 2 {
		t.Fatalf("samples: got %d, want 2", len(out.Samples))
	}
	if out.Samples[0].Label != models.LabelPositive {
		t.Errorf("label: got %d", out.Samples[0].Label)
	}
	if got := out.Samples[0].Features.String(); got != "0:2 1:1 5:1" {
		t.Errorf("features: got %q", got)
	}
	if out.Samples[1].Label != models.LabelNegative {
		t.Errorf("label: got %d", out.Samples[1].Label)
	}
	if got := out.Samples[1].Features.String(); got != "5:1" {
		t.Errorf("features: got %q", got)
	}
}

func TestHandleTransform_Errors(t *testing.T) {
	tests := []struct {
		name     string
		discover bool
		body     string
		want     int
	}{
		{"invalid body", true, "{", http.StatusBadRequest},
		{"missing column", true, `{"rows":[{"label":"1","fea1":"a"}]}`, http.StatusUnprocessableEntity},
		{"empty label", true, `{"rows":[{"label":" ","fea1":"a","fea2":"1"}]}`, http.StatusUnprocessableEntity},
		{"invalid number", true, `{"rows":[{"label":"1","fea1":"a","fea2":"x"}]}`, http.StatusUnprocessableEntity},
		{"not discovered", false, `{"rows":[{"label":"1","fea1":"a","fea2":"1"}]}`, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.discover)
			r := httptest.NewRequest(http.MethodPost, "/api/v1/transform", bytes.NewReader([]byte(tt.body)))
			w := httptest.NewRecorder()
			srv.handleTransform(w, r)
			if w.Code != tt.want {
				t.Errorf("status: got %d, want %d, body: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestFeatureNameRoute(t *testing.T) {
	srv := newTestServer(t, true)
	h := srv.Handler()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/features/3", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Index int    `json:"index"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Index != 3 || out.Name != "fea1-e" {
		t.Errorf("got %+v", out)
	}

	for path, want := range map[string]int{
		"/api/v1/features/6":  http.StatusNotFound,
		"/api/v1/features/-1": http.StatusBadRequest,
		"/api/v1/features/x":  http.StatusBadRequest,
	} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != want {
			t.Errorf("%s: got %d, want %d", path, w.Code, want)
		}
	}
}

func TestHandleSummary(t *testing.T) {
	srv := newTestServer(t, true)
	w := httptest.NewRecorder()
	srv.handleSummary(w, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out summaryResponse
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.NumFeatures != 6 {
		t.Errorf("num_features: got %d, want 6", out.NumFeatures)
	}
	want := []engine.ColumnRange{{Column: "fea1", Start: 0, End: 4}, {Column: "fea2", Start: 5, End: 5}}
	if len(out.Ranges) != len(want) {
		t.Fatalf("ranges: got %v", out.Ranges)
	}
	for i := range want {
		if out.Ranges[i] != want[i] {
			t.Errorf("range %d: got %+v, want %+v", i, out.Ranges[i], want[i])
		}
	}
}

func TestHandleSummary_NotDiscovered(t *testing.T) {
	srv := newTestServer(t, false)
	w := httptest.NewRecorder()
	srv.handleSummary(w, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status: got %d, want 503", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, true)
	srv.snapshot = &storage.SnapshotInfo{ID: "abc", Name: "default", Features: 6}
	w := httptest.NewRecorder()
	srv.handleStatus(w, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var out struct {
		Discovered bool                 `json:"discovered"`
		Snapshot   storage.SnapshotInfo `json:"snapshot"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if !out.Discovered || out.Snapshot.ID != "abc" {
		t.Errorf("got %+v", out)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, false)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
}

func TestSetEngine(t *testing.T) {
	srv := newTestServer(t, false)
	next := newTestServer(t, true).engine
	srv.SetEngine(next, &storage.SnapshotInfo{ID: "v2"})

	w := httptest.NewRecorder()
	srv.handleSummary(w, httptest.NewRequest(http.MethodGet, "/api/v1/summary", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status after reload: got %d, want 200", w.Code)
	}
	if srv.snapshot == nil || srv.snapshot.ID != "v2" {
		t.Errorf("snapshot: got %+v", srv.snapshot)
	}
}
