package smoke

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaboard/api/internal/backend"
)

func fakeBackend(t *testing.T, calls *[]string) *backend.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"content":[{"id":1}],"totalElements":1}`)
	})
	mux.HandleFunc("POST /api/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":101}`)
	})
	mux.HandleFunc("GET /api/evidence", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	mux.HandleFunc("POST /api/evidence", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		*calls = append(*calls, "evidence:"+r.FormValue("type")+":"+r.FormValue("url"))
		_, _ = io.WriteString(w, `{"id":"ev-1"}`)
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		*calls = append(*calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodPatch:
			_, _ = io.WriteString(w, `{}`)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return backend.NewClient(srv.URL)
}

func TestSubscriptionSuiteRunsFullCycle(t *testing.T) {
	var calls []string
	var out bytes.Buffer
	runner := NewRunner(fakeBackend(t, &calls), &out, zerolog.Nop())

	report := runner.Run(context.Background(), SubscriptionSuite())

	assert.Equal(t, 4, report.Passed())
	assert.Equal(t, 0, report.Failed())
	assert.Equal(t, []string{"PATCH /api/subscriptions/101", "DELETE /api/subscriptions/101"}, calls)
	assert.Contains(t, out.String(), "paginated envelope, 1 of 1 items")
	assert.Contains(t, out.String(), "PASS DELETE")
}

func TestEvidenceSuitesUseMultipart(t *testing.T) {
	var calls []string
	var out bytes.Buffer
	runner := NewRunner(fakeBackend(t, &calls), &out, zerolog.Nop())

	var reports []Report
	for _, suite := range EvidenceSuites("proj-1", "user-1") {
		reports = append(reports, runner.Run(context.Background(), suite))
	}
	runner.Summary(reports)

	require.Len(t, reports, 2)
	for _, rep := range reports {
		assert.Equal(t, 4, rep.Passed(), rep.Suite)
	}
	assert.Contains(t, calls, "evidence:TEXT:")
	assert.Contains(t, calls, "evidence:LINK:https://example.com/smoke-test")
	assert.Contains(t, out.String(), "raw array, 0 items")
	assert.Contains(t, out.String(), "TOTAL 8 passed, 0 failed")
}

func TestListFailureStopsSuiteWithoutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "database down")
	}))
	defer srv.Close()

	var out bytes.Buffer
	runner := NewRunner(backend.NewClient(srv.URL), &out, zerolog.Nop())
	report := runner.Run(context.Background(), SubscriptionSuite())

	require.Len(t, report.Outcomes, 1)
	assert.False(t, report.Outcomes[0].Passed)
	assert.Equal(t, 500, report.Outcomes[0].StatusCode)
	assert.True(t, strings.Contains(out.String(), "FAIL GET"))
}

func TestMissingIDSkipsUpdateAndDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"unexpected":true}`)
			return
		}
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	var out bytes.Buffer
	runner := NewRunner(backend.NewClient(srv.URL), &out, zerolog.Nop())
	report := runner.Run(context.Background(), SubscriptionSuite())

	assert.Len(t, report.Outcomes, 2)
	assert.Contains(t, out.String(), "unknown response shape")
	assert.Contains(t, out.String(), "SKIP update/delete")
}
