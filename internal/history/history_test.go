package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pageforge/internal/db"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestRecordAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	entry := Entry{
		ID:           "gen-1",
		Mode:         ModeEdit,
		Prompt:       "make the header red",
		Provider:     "google",
		Model:        "gemini-1.5-flash",
		Status:       StatusOK,
		Duration:     1500 * time.Millisecond,
		InputTokens:  120,
		OutputTokens: 800,
		OutputBytes:  3200,
		CostUSD:      0.00025,
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, "gen-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Mode != ModeEdit || got.Status != StatusOK {
		t.Errorf("mode/status = %q/%q", got.Mode, got.Status)
	}
	if got.Prompt != "make the header red" {
		t.Errorf("Prompt = %q", got.Prompt)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v", got.Duration)
	}
	if got.InputTokens != 120 || got.OutputTokens != 800 || got.OutputBytes != 3200 {
		t.Errorf("unexpected counts %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestRecordGeneratesID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, Entry{Mode: ModeCreate, Status: StatusOK}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 || entries[0].ID == "" {
		t.Fatalf("expected one entry with generated ID, got %+v", entries)
	}
}

func TestGetNotFound(t *testing.T) {
	store := setupStore(t)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryFiltersAndOrder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []Entry{
		{ID: "a", CreatedAt: base, Mode: ModeCreate, Status: StatusOK},
		{ID: "b", CreatedAt: base.Add(time.Minute), Mode: ModeEdit, Status: StatusFailed, Error: "boom"},
		{ID: "c", CreatedAt: base.Add(2 * time.Minute), Mode: ModeCreate, Status: StatusInvalid},
		{ID: "d", CreatedAt: base.Add(3 * time.Minute), Mode: ModeVisualize, Status: StatusOK},
	}
	for _, e := range seed {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s): %v", e.ID, err)
		}
	}

	all, err := store.Query(ctx, Filter{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(all) != 4 || all[0].ID != "d" || all[3].ID != "a" {
		t.Errorf("expected newest first, got %v", ids(all))
	}

	creates, _ := store.Query(ctx, Filter{Mode: ModeCreate})
	if len(creates) != 2 {
		t.Errorf("mode filter: got %v", ids(creates))
	}

	failed, _ := store.Query(ctx, Filter{Status: StatusFailed})
	if len(failed) != 1 || failed[0].Error != "boom" {
		t.Errorf("status filter: got %+v", failed)
	}

	since := base.Add(90 * time.Second)
	recent, _ := store.Query(ctx, Filter{Since: &since})
	if len(recent) != 2 {
		t.Errorf("since filter: got %v", ids(recent))
	}

	page, _ := store.Query(ctx, Filter{Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].ID != "c" || page[1].ID != "b" {
		t.Errorf("pagination: got %v", ids(page))
	}

	skipped, _ := store.Query(ctx, Filter{Offset: 3})
	if len(skipped) != 1 || skipped[0].ID != "a" {
		t.Errorf("offset without limit: got %v", ids(skipped))
	}
}

func TestStats(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed := []Entry{
		{Mode: ModeCreate, Status: StatusOK, InputTokens: 10, OutputTokens: 100, CostUSD: 0.5},
		{Mode: ModeCreate, Status: StatusOK, InputTokens: 20, OutputTokens: 200, CostUSD: 0.25},
		{Mode: ModeEdit, Status: StatusFailed},
	}
	for _, e := range seed {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("Total = %d", stats.Total)
	}
	if stats.ByMode[ModeCreate] != 2 || stats.ByMode[ModeEdit] != 1 {
		t.Errorf("ByMode = %v", stats.ByMode)
	}
	if stats.ByStatus[StatusOK] != 2 || stats.ByStatus[StatusFailed] != 1 {
		t.Errorf("ByStatus = %v", stats.ByStatus)
	}
	if stats.InputTokens != 30 || stats.OutputTokens != 300 {
		t.Errorf("tokens = %d/%d", stats.InputTokens, stats.OutputTokens)
	}
	if stats.CostUSD < 0.749 || stats.CostUSD > 0.751 {
		t.Errorf("CostUSD = %f", stats.CostUSD)
	}
}

func TestDeleteBefore(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	now := time.Now()

	store.Record(ctx, Entry{ID: "old", CreatedAt: now.Add(-48 * time.Hour), Mode: ModeCreate, Status: StatusOK})
	store.Record(ctx, Entry{ID: "new", CreatedAt: now, Mode: ModeCreate, Status: StatusOK})

	n, err := store.DeleteBefore(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
	if _, err := store.Get(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("old entry should be gone, got %v", err)
	}
}

func TestRoutes(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	store.Record(ctx, Entry{ID: "g1", Mode: ModeCreate, Status: StatusOK, Prompt: "landing page"})
	store.Record(ctx, Entry{ID: "g2", Mode: ModeEdit, Status: StatusFailed})

	r := chi.NewRouter()
	RegisterRoutes(r, store)

	t.Run("list", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history?mode=create", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		var entries []Entry
		if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(entries) != 1 || entries[0].Prompt != "landing page" {
			t.Errorf("unexpected entries %+v", entries)
		}
	})

	t.Run("empty list is an array", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history?mode=visualize", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history/stats", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var stats Stats
		if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if stats.Total != 2 {
			t.Errorf("Total = %d", stats.Total)
		}
	})

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history/g2", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		var e Entry
		if err := json.NewDecoder(w.Body).Decode(&e); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if e.Status != StatusFailed {
			t.Errorf("Status = %q", e.Status)
		}
	})

	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/history/nope", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d", w.Code)
		}
	})
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
