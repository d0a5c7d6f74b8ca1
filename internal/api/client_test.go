package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/idilsaglam/planner/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL + "/")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewRejectsBadScheme(t *testing.T) {
	for _, raw := range []string{"localhost:5000", "ftp://x", "::"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q): expected error", raw)
		}
	}
}

func TestList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/todos" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id header")
		}
		io.WriteString(w, `[
			{"_id":"a","title":"T","startTime":"09:00","endTime":"10:00",
			 "checkpoints":[{"text":"one","done":true},{"text":"two","done":false}]},
			{"id":"b","title":"U","checkpoints":[]}
		]`)
	})

	todos, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(todos) != 2 {
		t.Fatalf("len: got %d, want 2", len(todos))
	}
	if todos[0].ID != "a" || todos[1].ID != "b" {
		t.Errorf("ids: got %q, %q", todos[0].ID, todos[1].ID)
	}
	cps := todos[0].Checkpoints
	if len(cps) != 2 || cps[0].Text != "one" || !cps[0].Done || cps[1].Text != "two" || cps[1].Done {
		t.Errorf("checkpoints: got %+v", cps)
	}
}

func TestListNullCheckpoints(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[{"_id":"a","title":"T","checkpoints":null}]`)
	})
	todos, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if todos[0].Checkpoints == nil || len(todos[0].Checkpoints) != 0 {
		t.Errorf("null checkpoints should decode as empty, got %#v", todos[0].Checkpoints)
	}
}

func TestListShapeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not an array", `{"title":"x"}`},
		{"missing id", `[{"title":"x","checkpoints":[]}]`},
		{"bad checkpoint", `[{"_id":"1","title":"x","checkpoints":[{"done":"yes"}]}]`},
		{"not json", `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			_, err := c.List(context.Background())
			var se *ShapeError
			if !errors.As(err, &se) {
				t.Fatalf("got %v, want *ShapeError", err)
			}
			if len(se.Issues) == 0 {
				t.Error("ShapeError has no issues")
			}
		})
	}
}

func TestCreateSendsPayloadWithoutID(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/todos" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: got %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"_id":"new","title":"T","checkpoints":[],"startTime":"","endTime":""}`)
	})

	out, err := c.Create(context.Background(), model.Todo{ID: "ignored", Title: "T"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if out.ID != "new" {
		t.Errorf("ID: got %q, want new", out.ID)
	}
	if _, ok := got["_id"]; ok {
		t.Error("create payload must not carry an id")
	}
	if cps, ok := got["checkpoints"].([]any); !ok || len(cps) != 0 {
		t.Errorf("checkpoints should be sent as an empty array, got %#v", got["checkpoints"])
	}
}

func TestUpdate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/todos/abc" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		w.Write(b)
	})
	in := model.Todo{ID: "abc", Title: "T", Checkpoints: []model.Checkpoint{{Text: "x", Done: true}}}
	out, err := c.Update(context.Background(), "abc", in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if out.ID != "abc" || !out.Checkpoints[0].Done {
		t.Errorf("Update echo: got %+v", out)
	}

	if _, err := c.Update(context.Background(), "", in); err == nil {
		t.Error("Update with empty id should fail")
	}
}

func TestItemPathEscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.EscapedPath(); got != "/api/todos/a%2Fb%20c" {
			t.Errorf("escaped path: got %q", got)
		}
		if r.URL.Path != "/api/todos/a/b c" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		io.WriteString(w, `{"message":"Todo deleted"}`)
	})
	if err := c.Delete(context.Background(), "a/b c"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestDeleteAndStatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method: got %s", r.Method)
		}
		if strings.HasSuffix(r.URL.Path, "/missing") {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"message":"Todo not found"}`)
			return
		}
		io.WriteString(w, `{"message":"Todo deleted"}`)
	})

	if err := c.Delete(context.Background(), "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	err := c.Delete(context.Background(), "missing")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusNotFound || se.Method != http.MethodDelete {
		t.Errorf("StatusError: got %+v", se)
	}
	if !strings.Contains(se.Error(), "Todo not found") {
		t.Errorf("error should include body: %q", se.Error())
	}
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestTimeoutLeavesCallerClientAlone(t *testing.T) {
	shared := &http.Client{}
	c, err := New("http://localhost:5000", WithHTTPClient(shared), WithTimeout(time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if shared.Timeout != 0 {
		t.Errorf("caller's client timeout changed to %s", shared.Timeout)
	}
	if c.http == shared || c.http.Timeout != time.Second {
		t.Errorf("client timeout: got %s", c.http.Timeout)
	}
}

func TestContextCancel(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.List(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}
