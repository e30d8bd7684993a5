package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/olegiv/campjam-go/internal/model"
	"github.com/olegiv/campjam-go/internal/store"
	"github.com/olegiv/campjam-go/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, q *store.Queries) []model.Event {
	t.Helper()
	events, err := q.ListEvents(context.Background(), 50, 0)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_ErrorLevel(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Error("sending contact notification", "error", "provider down", "ip", "203.0.113.9")

	events := listEvents(t, store.New(db))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	e := events[0]
	if e.Level != model.EventLevelError {
		t.Errorf("Level = %q", e.Level)
	}
	if e.Category != model.EventCategoryContact {
		t.Errorf("Category = %q, want contact", e.Category)
	}
	if e.IPAddress != "203.0.113.9" {
		t.Errorf("IPAddress = %q", e.IPAddress)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v (%s)", err, e.Metadata)
	}
	if meta["error"] != "provider down" {
		t.Errorf("metadata = %v", meta)
	}
}

func TestEventLogHandler_InfoNotStored(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db))

	logger.Info("server started")
	logger.Debug("noise")

	if n := len(listEvents(t, store.New(db))); n != 0 {
		t.Errorf("got %d events for info logs, want 0", n)
	}
}

func TestEventLogHandler_ExplicitCategoryAndAttrs(t *testing.T) {
	db := testutil.TestDB(t)
	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).With("component", "scheduler")

	logger.Warn("something odd", "category", model.EventCategoryAdmin, "quote", `a "b" c`)

	events := listEvents(t, store.New(db))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Category != model.EventCategoryAdmin {
		t.Errorf("Category = %q", events[0].Category)
	}

	var meta map[string]string
	if err := json.Unmarshal([]byte(events[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["component"] != "scheduler" || meta["quote"] != `a "b" c` {
		t.Errorf("metadata = %v", meta)
	}
	if _, ok := meta["category"]; ok {
		t.Error("category must not be duplicated into metadata")
	}
}

func TestInferCategory(t *testing.T) {
	tests := map[string]string{
		"login failed":         model.EventCategoryAuth,
		"invitation failed":    model.EventCategoryInvite,
		"review delete failed": model.EventCategoryReview,
		"admin removed":        model.EventCategoryAdmin,
		"disk almost full":     model.EventCategorySystem,
	}
	for msg, want := range tests {
		if got := inferCategory(msg); got != want {
			t.Errorf("inferCategory(%q) = %q, want %q", msg, got, want)
		}
	}
}
