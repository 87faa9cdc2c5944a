package dashboard

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakeStats struct {
	stories  int64
	sessions int64
	err      error
}

func (f *fakeStats) Counts() (int64, int64, error) {
	return f.stories, f.sessions, f.err
}

func TestHealthz(t *testing.T) {
	router := newRouter(&fakeStats{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatus_ReportsCounts(t *testing.T) {
	router := newRouter(&fakeStats{stories: 12, sessions: 3})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var got map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["stories"] != 12 || got["active_sessions"] != 3 {
		t.Errorf("body = %v", got)
	}
}

func TestStatus_StoreFailure(t *testing.T) {
	router := newRouter(&fakeStats{err: fmt.Errorf("store down")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}
