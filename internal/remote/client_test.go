package remote

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/retry"
)

type echo struct {
	Value string `json:"value"`
}

func makeTestServer(t *testing.T, statusCode int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInvoke_Success(t *testing.T) {
	srv := makeTestServer(t, http.StatusOK, `{"value":"ok"}`)
	c := NewClient(srv.URL, "", srv.Client())

	res := Invoke[echo](context.Background(), c, "fn", map[string]string{})
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Value.Value != "ok" {
		t.Errorf("Value = %q, want ok", res.Value.Value)
	}
}

func TestInvoke_ErrorMessageInSuccessEnvelope(t *testing.T) {
	srv := makeTestServer(t, http.StatusOK, `{"errorMessage":"site not supported"}`)
	c := NewClient(srv.URL, "", srv.Client())

	res := Invoke[echo](context.Background(), c, "fn", nil)
	var remoteErr *model.RemoteError
	if !errors.As(res.Err, &remoteErr) {
		t.Fatalf("err = %v, want RemoteError", res.Err)
	}
	if remoteErr.Message != "site not supported" || remoteErr.Function != "fn" {
		t.Errorf("RemoteError = %+v", remoteErr)
	}
}

func TestInvoke_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "", srv.Client())

	res := Invoke[echo](context.Background(), c, "fn", nil)
	var httpErr *model.HTTPError
	if !errors.As(res.Err, &httpErr) {
		t.Fatalf("err = %v, want HTTPError", res.Err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests || httpErr.RetryDelay() != 3*time.Second {
		t.Errorf("HTTPError = %+v", httpErr)
	}
}

func TestInvoke_SendsAuthAndBody(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody scanRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret", srv.Client())
	_ = Invoke[echo](context.Background(), c, ScanFunction, scanRequest{JobID: "j1", URL: "https://x"})

	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/"+ScanFunction {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.JobID != "j1" || gotBody.URL != "https://x" {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestJobScanner_RetriesEnvelopeErrorThenSucceeds(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			io.WriteString(w, `{"errorMessage":"temporarily unavailable"}`)
			return
		}
		io.WriteString(w, `{"job":{"id":"j1","description":"Build things in Go."}}`)
	}))
	defer srv.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	retrier := retry.New(retry.Policy{Attempts: 3, BaseDelay: time.Millisecond}, logger)
	scanner := NewJobScanner(NewClient(srv.URL, "", srv.Client()), retrier)

	job, err := scanner.ScanJob(context.Background(), model.Job{ID: "j1", Title: "Engineer"})
	if err != nil {
		t.Fatalf("ScanJob: %v", err)
	}
	if job.Description != "Build things in Go." || job.Title != "Engineer" {
		t.Errorf("ScanJob = %+v", job)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
