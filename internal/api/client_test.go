package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestMessagesDecodesList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/rooms/42/messages" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id":1,"room_id":42,"sender_id":"u1","body":"hi","created_at":"2026-08-01T10:00:00Z"},
			{"id":2,"room_id":42,"sender_id":"u2","body":"hello","created_at":"2026-08-01T10:01:00Z"}
		]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Token: "tok"})
	messages, err := c.Messages(t.Context(), 42)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len = %d, want 2", len(messages))
	}
	// Server order is authoritative; the client must not reorder.
	if messages[0].ID != 1 || messages[1].ID != 2 {
		t.Errorf("order = [%d %d], want [1 2]", messages[0].ID, messages[1].ID)
	}
}

func TestUnreadCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/notifications/unread-count" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"count":150}`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	count, err := c.UnreadCount(t.Context())
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if count != 150 {
		t.Errorf("count = %d, want 150", count)
	}
}

// Marking an already-read notification read again must not error: the
// server treats it as a no-op and so does the client.
func TestMarkReadIdempotent(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/notifications/9/read" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		calls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	for i := 0; i < 2; i++ {
		if err := c.MarkRead(t.Context(), 9); err != nil {
			t.Fatalf("MarkRead() call %d error = %v", i+1, err)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"404 not found", http.StatusNotFound, func(err error) bool { return errors.Is(err, ErrNotFound) }},
		{"401 unauthorized", http.StatusUnauthorized, func(err error) bool { return errors.Is(err, ErrUnauthorized) }},
		{"403 unauthorized", http.StatusForbidden, func(err error) bool { return errors.Is(err, ErrUnauthorized) }},
		{"500 status error", http.StatusInternalServerError, func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Code == http.StatusInternalServerError
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := New(Config{BaseURL: srv.URL})
			_, err := c.Rooms(t.Context())
			if err == nil || !tt.check(err) {
				t.Errorf("Rooms() error = %v", err)
			}
		})
	}
}

func TestAgentTasksQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("application_id"); got != "31" {
			t.Errorf("application_id = %q", got)
		}
		w.Write([]byte(`[{"id":1,"application_id":31,"status":"processing"}]`))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	tasks, err := c.AgentTasks(t.Context(), 31)
	if err != nil {
		t.Fatalf("AgentTasks() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Status != "processing" {
		t.Errorf("tasks = %+v", tasks)
	}
}
