package pipeline

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"quel-shorts-studio/modules/common/credit"
)

func newTestRouter(orch *Orchestrator) *mux.Router {
	r := mux.NewRouter()
	NewHandler(orch).RegisterRoutes(r)
	return r
}

func TestHandleSubmit(t *testing.T) {
	orch := NewOrchestrator(&fakeGenerator{}, &fakePosts{}, Options{
		Prices:     credit.DefaultPrices(),
		ResetDelay: time.Hour,
	})
	router := newTestRouter(orch)

	body := `{"title":"Q4 Launch","description":"announce feature","platform":"tiktok"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pipeline/runs", strings.NewReader(body)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || !resp.Success || resp.RunID == "" {
		t.Fatalf("unexpected response %s", rec.Body.String())
	}

	// the run holds the pipeline until the reset delay
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pipeline/runs", strings.NewReader(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestHandleSubmit_Validation(t *testing.T) {
	router := newTestRouter(newTestOrchestrator(&fakeGenerator{}, &fakePosts{}))

	cases := map[string]string{
		"bad json":      `{`,
		"missing title": `{"description":"d"}`,
		"bad tone":      `{"title":"t","description":"d","tone":"grumpy"}`,
	}
	for name, body := range cases {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/pipeline/runs", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestHandleEstimate(t *testing.T) {
	router := newTestRouter(newTestOrchestrator(&fakeGenerator{}, &fakePosts{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pipeline/estimate", nil))
	var resp estimateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.Fragments != 4 || resp.Estimate != 0.95 {
		t.Fatalf("expected default 4 fragments at 0.95, got %+v", resp)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pipeline/estimate?fragments=-1", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative count, got %d", rec.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	router := newTestRouter(newTestOrchestrator(&fakeGenerator{}, &fakePosts{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pipeline/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if status["isGenerating"] != false || status["phase"] != "idle" {
		t.Fatalf("unexpected idle status %v", status)
	}
}
