package backlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/runbookqa/internal/db"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestRecordAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created, err := store.Record(ctx, "  What is the FX cut-off time? ")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if created.ID == "" {
		t.Error("expected non-empty ID")
	}
	if created.Status != StatusOpen {
		t.Errorf("expected status open, got %s", created.Status)
	}
	if created.TimesAsked != 1 {
		t.Errorf("expected times_asked 1, got %d", created.TimesAsked)
	}
	if created.Question != "What is the FX cut-off time?" {
		t.Errorf("question not trimmed: %q", created.Question)
	}

	fetched, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Question != created.Question {
		t.Errorf("expected %q, got %q", created.Question, fetched.Question)
	}
}

func TestRecordFoldsRepeats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first, _ := store.Record(ctx, "What is the FX cut-off time?")
	second, err := store.Record(ctx, "what is the   fx cut-off time")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("repeat created a new gap: %s vs %s", second.ID, first.ID)
	}
	if second.TimesAsked != 2 {
		t.Errorf("expected times_asked 2, got %d", second.TimesAsked)
	}
	if second.Question != first.Question {
		t.Errorf("first phrasing should be kept, got %q", second.Question)
	}
}

func TestRecordReopensAnswered(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	g, _ := store.Record(ctx, "Who approves limit changes?")
	if err := store.Answer(ctx, g.ID, "The treasury committee", "alice"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	again, _ := store.Record(ctx, "Who approves limit changes?")
	if again.Status != StatusOpen {
		t.Errorf("answered gap should reopen, got %s", again.Status)
	}

	if err := store.UpdateStatus(ctx, g.ID, StatusRetired); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	again, _ = store.Record(ctx, "Who approves limit changes?")
	if again.Status != StatusRetired {
		t.Errorf("retired gap should stay retired, got %s", again.Status)
	}
}

func TestRecordEmpty(t *testing.T) {
	store := setupTestStore(t)
	if _, err := store.Record(context.Background(), " ?? "); err == nil {
		t.Error("expected error for empty question")
	}
}

func TestAnswer(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created, _ := store.Record(ctx, "What does TBB1 do?")

	if err := store.Answer(ctx, created.ID, "It posts flows", "alice@example.com"); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	fetched, _ := store.GetByID(ctx, created.ID)
	if fetched.Status != StatusAnswered {
		t.Errorf("expected status answered, got %s", fetched.Status)
	}
	if fetched.Answer != "It posts flows" {
		t.Errorf("unexpected answer: %q", fetched.Answer)
	}
	if fetched.AnsweredBy != "alice@example.com" {
		t.Errorf("unexpected answered_by: %q", fetched.AnsweredBy)
	}
	if fetched.AnsweredAt == nil {
		t.Error("expected non-nil answered_at")
	}

	if err := store.Answer(ctx, "missing", "x", "y"); !errors.Is(err, ErrGapNotFound) {
		t.Errorf("expected ErrGapNotFound, got %v", err)
	}
}

func TestListWithFilters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Record(ctx, "Q1")
	store.Record(ctx, "Q2")
	store.Record(ctx, "Q2")
	q3, _ := store.Record(ctx, "Q3")
	store.Answer(ctx, q3.ID, "done", "bob")

	all, _ := store.List(ctx, ListFilter{})
	if len(all) != 3 {
		t.Fatalf("expected 3, got %d", len(all))
	}
	// Most asked first.
	if all[0].Question != "Q2" {
		t.Errorf("expected Q2 first, got %s", all[0].Question)
	}

	open, _ := store.List(ctx, ListFilter{Status: StatusOpen})
	if len(open) != 2 {
		t.Errorf("expected 2 open gaps, got %d", len(open))
	}

	limited, _ := store.List(ctx, ListFilter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected 1, got %d", len(limited))
	}

	offset, _ := store.List(ctx, ListFilter{Offset: 2})
	if len(offset) != 1 {
		t.Errorf("expected 1 after offset, got %d", len(offset))
	}

	none, _ := store.List(ctx, ListFilter{Status: StatusRetired})
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", none)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created, _ := store.Record(ctx, "Q1")
	if err := store.UpdateStatus(ctx, created.ID, StatusRetired); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	fetched, _ := store.GetByID(ctx, created.ID)
	if fetched.Status != StatusRetired {
		t.Errorf("expected retired, got %s", fetched.Status)
	}

	if err := store.UpdateStatus(ctx, created.ID, "verified"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestOpenCount(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	store.Record(ctx, "Q1")
	q2, _ := store.Record(ctx, "Q2")

	count, err := store.OpenCount(ctx)
	if err != nil {
		t.Fatalf("OpenCount: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2, got %d", count)
	}

	store.Answer(ctx, q2.ID, "ans", "user")
	count, _ = store.OpenCount(ctx)
	if count != 1 {
		t.Errorf("expected 1 after answer, got %d", count)
	}
}

// HTTP handler tests

func newRouter(store *Store) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, store)
	return r
}

func TestRoute_ListGaps(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	store.Record(ctx, "Q1")
	store.Record(ctx, "Q2")

	req := httptest.NewRequest("GET", "/backlog/?status=open", nil)
	w := httptest.NewRecorder()
	newRouter(store).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Gaps []Gap `json:"gaps"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Gaps) != 2 {
		t.Errorf("expected 2, got %d", len(body.Gaps))
	}
}

func TestRoute_GetByID(t *testing.T) {
	store := setupTestStore(t)
	g, _ := store.Record(context.Background(), "Q1")
	router := newRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/backlog/"+g.ID, nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/backlog/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestRoute_Answer(t *testing.T) {
	store := setupTestStore(t)
	g, _ := store.Record(context.Background(), "Q1")
	router := newRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/backlog/"+g.ID+"/answer", strings.NewReader(`{"answer":""}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty answer, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/backlog/"+g.ID+"/answer", strings.NewReader(`{"answer":"Forty-two"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	fetched, _ := store.GetByID(context.Background(), g.ID)
	if fetched.AnsweredBy != "anonymous" {
		t.Errorf("expected anonymous, got %q", fetched.AnsweredBy)
	}
}

func TestRoute_UpdateStatus(t *testing.T) {
	store := setupTestStore(t)
	g, _ := store.Record(context.Background(), "Q1")
	router := newRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("PUT", "/backlog/"+g.ID+"/status", strings.NewReader(`{"status":"bogus"}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad status, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("PUT", "/backlog/missing/status", strings.NewReader(`{"status":"retired"}`)))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("PUT", "/backlog/"+g.ID+"/status", strings.NewReader(`{"status":"retired"}`)))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRoute_Stats(t *testing.T) {
	store := setupTestStore(t)
	store.Record(context.Background(), "Q1")

	w := httptest.NewRecorder()
	newRouter(store).ServeHTTP(w, httptest.NewRequest("GET", "/backlog/stats", nil))

	var body map[string]int
	json.NewDecoder(w.Body).Decode(&body)
	if body["open_count"] != 1 {
		t.Errorf("expected open_count 1, got %d", body["open_count"])
	}
}

func TestQuestionKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"What is TRM?", "what is trm"},
		{"  what   is\tTRM ", "what is trm"},
		{"Really?!", "really"},
	}
	for _, tt := range tests {
		if got := questionKey(tt.in); got != tt.want {
			t.Errorf("questionKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
