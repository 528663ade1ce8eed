package lockclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAddLockDecodesCreated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/resources/R1/locks" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"resource_id":"R1","start":10,"end":20}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &http.Client{Timeout: 2 * time.Second})
	lock, err := c.AddLock(context.Background(), "R1", 10, 20)
	if err != nil {
		t.Fatalf("AddLock: %v", err)
	}
	if lock.ResourceID != "R1" || lock.Start != 10 || lock.End != 20 {
		t.Fatalf("unexpected lock: %+v", lock)
	}
}

func TestAddLockSurfacesValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid interval: start 20 >= end 10"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &http.Client{Timeout: 2 * time.Second})
	_, err := c.AddLock(context.Background(), "R1", 20, 10)

	var ie *InvalidInputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if ie.Message == "" {
		t.Fatalf("expected server message to be carried, got %+v", ie)
	}
}

func TestStatusAndCollision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/resources/R1/status":
			if r.URL.Query().Get("t") != "15" {
				t.Errorf("unexpected t=%s", r.URL.Query().Get("t"))
			}
			w.Write([]byte(`{"resource_id":"R1","t":15,"status":"LOCKED"}`))
		case "/v1/resources/R1/collision":
			w.Write([]byte(`{"resource_id":"R1","t":19,"collision":true}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, &http.Client{Timeout: 2 * time.Second})

	st, err := c.Status(context.Background(), "R1", 15)
	if err != nil || st != "LOCKED" {
		t.Fatalf("Status: %q, %v", st, err)
	}
	col, err := c.HasCollision(context.Background(), "R1", 19)
	if err != nil || !col {
		t.Fatalf("HasCollision: %v, %v", col, err)
	}
}

func TestCollisionsFirstFlag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/resources/R1/collisions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("first") != "" {
			w.Write([]byte(`{"resource_id":"R1","pairs":[{"a":{"start":10,"end":20},"b":{"start":18,"end":25}}]}`))
			return
		}
		w.Write([]byte(`{"resource_id":"R1","pairs":[
			{"a":{"start":10,"end":20},"b":{"start":18,"end":25}},
			{"a":{"start":30,"end":40},"b":{"start":35,"end":50}}
		]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &http.Client{Timeout: 2 * time.Second})

	all, err := c.Collisions(context.Background(), "R1")
	if err != nil || len(all) != 2 {
		t.Fatalf("Collisions: %v, %v", all, err)
	}
	first, err := c.FirstCollision(context.Background(), "R1")
	if err != nil || len(first) != 1 {
		t.Fatalf("FirstCollision: %v, %v", first, err)
	}
	if first[0].A != (Range{Start: 10, End: 20}) {
		t.Fatalf("first pair: %+v", first[0])
	}
}

func TestLoadReportsCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/load" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"loaded":2,"skipped":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, &http.Client{Timeout: 2 * time.Second})
	rep, err := c.Load(context.Background(), []Record{
		{ResourceID: "R1", Start: 0, End: 10},
		{ResourceID: "R1", Start: 20, End: 10},
		{ResourceID: "R2", Start: 5, End: 6},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rep.Loaded != 2 || rep.Skipped != 1 {
		t.Fatalf("report=%+v", rep)
	}
}

func TestUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	}))
	defer srv.Close()

	c := New(srv.URL, &http.Client{Timeout: 2 * time.Second})
	_, err := c.Status(context.Background(), "R1", 0)

	var ue *UnexpectedStatusError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnexpectedStatusError, got %v", err)
	}
	if ue.Code != http.StatusInternalServerError {
		t.Fatalf("code=%d", ue.Code)
	}
}
