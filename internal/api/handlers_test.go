// Storyloom Recommender - Personalized Story Recommendations
// Copyright 2026 Storyloom
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/storyloom/recommender

package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/storyloom/recommender/internal/config"
	"github.com/storyloom/recommender/internal/engine"
	"github.com/storyloom/recommender/internal/profile"
)

type mockRecommender struct {
	ids []string
	err error

	lastUserID string
}

func (m *mockRecommender) Recommend(userID string) ([]string, error) {
	m.lastUserID = userID
	if m.err != nil {
		return nil, m.err
	}
	return m.ids, nil
}

type recordedEvent struct {
	eventType string
	userID    string
	storyID   string
	score     int
	timestamp time.Time
}

type mockEventStore struct {
	err    error
	events []recordedEvent
}

func (m *mockEventStore) RecordViewed(userID, storyID string, ts time.Time) error {
	m.events = append(m.events, recordedEvent{eventType: "viewed", userID: userID, storyID: storyID, timestamp: ts})
	return m.err
}

func (m *mockEventStore) RecordCompleted(userID, storyID string, ts time.Time) error {
	m.events = append(m.events, recordedEvent{eventType: "completed", userID: userID, storyID: storyID, timestamp: ts})
	return m.err
}

func (m *mockEventStore) RecordScored(userID, storyID string, score int, ts time.Time) error {
	m.events = append(m.events, recordedEvent{eventType: "scored", userID: userID, storyID: storyID, score: score, timestamp: ts})
	return m.err
}

func (m *mockEventStore) RecordMood(userID string, score int, ts time.Time) error {
	m.events = append(m.events, recordedEvent{eventType: "mood", userID: userID, score: score, timestamp: ts})
	return m.err
}

type mockReadiness struct {
	ready bool
}

func (m *mockReadiness) Ready() bool { return m.ready }

func testRouter(rec *mockRecommender, store *mockEventStore, ready *mockReadiness) http.Handler {
	h := NewHandler(rec, store, ready, time.Second)
	return NewRouter(h, &config.APIConfig{
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
		CORSOrigins:       []string{"*"},
	})
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response body %q: %v", rec.Body.String(), err)
	}
	return rec, resp
}

func TestRecommendationsSuccess(t *testing.T) {
	recEng := &mockRecommender{ids: []string{"s1", "s2", "s3", "s4", "s5", "s6"}}
	router := testRouter(recEng, &mockEventStore{}, &mockReadiness{ready: true})

	rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/recommendations/alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !resp.Success {
		t.Fatal("expected success response")
	}
	if recEng.lastUserID != "alice" {
		t.Errorf("engine user ID = %q, want alice", recEng.lastUserID)
	}

	data, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	var payload RecommendationsResponse
	if err := json.Unmarshal(data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.UserID != "alice" {
		t.Errorf("payload user ID = %q, want alice", payload.UserID)
	}
	if len(payload.StoryIDs) != 6 {
		t.Errorf("got %d story IDs, want 6", len(payload.StoryIDs))
	}
}

func TestRecommendationsEmptyUserRejected(t *testing.T) {
	recEng := &mockRecommender{err: engine.ErrEmptyUserID}
	router := testRouter(recEng, &mockEventStore{}, &mockReadiness{ready: true})

	rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/recommendations/x", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v, want code %s", resp.Error, ErrCodeValidationFailed)
	}
}

func TestRecommendationsEngineFailure(t *testing.T) {
	recEng := &mockRecommender{err: http.ErrHandlerTimeout}
	router := testRouter(recEng, &mockEventStore{}, &mockReadiness{ready: true})

	rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/recommendations/alice", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeInternalError {
		t.Errorf("error = %+v, want code %s", resp.Error, ErrCodeInternalError)
	}
}

func TestViewedEventAccepted(t *testing.T) {
	store := &mockEventStore{}
	router := testRouter(&mockRecommender{}, store, &mockReadiness{ready: true})

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/events/viewed", StoryEventRequest{
		UserID:  "alice",
		StoryID: "s1",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if !resp.Success {
		t.Fatal("expected success response")
	}

	if len(store.events) != 1 {
		t.Fatalf("got %d recorded events, want 1", len(store.events))
	}
	ev := store.events[0]
	if ev.eventType != "viewed" || ev.userID != "alice" || ev.storyID != "s1" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.timestamp.IsZero() {
		t.Error("expected a defaulted timestamp")
	}
	if ev.timestamp.Location() != time.UTC {
		t.Errorf("timestamp location = %v, want UTC", ev.timestamp.Location())
	}
}

func TestEventExplicitTimestampPreserved(t *testing.T) {
	store := &mockEventStore{}
	router := testRouter(&mockRecommender{}, store, &mockReadiness{ready: true})

	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/events/completed", StoryEventRequest{
		UserID:    "alice",
		StoryID:   "s1",
		Timestamp: &ts,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if got := store.events[0].timestamp; !got.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got, ts)
	}
}

func TestScoredEventValidation(t *testing.T) {
	tests := []struct {
		name string
		body ScoredEventRequest
	}{
		{"missing user", ScoredEventRequest{StoryID: "s1", Score: 4}},
		{"missing story", ScoredEventRequest{UserID: "alice", Score: 4}},
		{"score too low", ScoredEventRequest{UserID: "alice", StoryID: "s1", Score: 0}},
		{"score too high", ScoredEventRequest{UserID: "alice", StoryID: "s1", Score: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockEventStore{}
			router := testRouter(&mockRecommender{}, store, &mockReadiness{ready: true})

			rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/events/scored", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
				t.Errorf("error = %+v, want code %s", resp.Error, ErrCodeValidationFailed)
			}
			if len(store.events) != 0 {
				t.Errorf("store received %d events, want 0", len(store.events))
			}
		})
	}
}

func TestScoredEventAccepted(t *testing.T) {
	store := &mockEventStore{}
	router := testRouter(&mockRecommender{}, store, &mockReadiness{ready: true})

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/events/scored", ScoredEventRequest{
		UserID:  "alice",
		StoryID: "s1",
		Score:   5,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	if store.events[0].score != 5 {
		t.Errorf("score = %d, want 5", store.events[0].score)
	}
}

func TestMoodEventAccepted(t *testing.T) {
	store := &mockEventStore{}
	router := testRouter(&mockRecommender{}, store, &mockReadiness{ready: true})

	rec, _ := doJSON(t, router, http.MethodPost, "/api/v1/events/mood", MoodEventRequest{
		UserID: "alice",
		Score:  2,
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
	ev := store.events[0]
	if ev.eventType != "mood" || ev.score != 2 || ev.storyID != "" {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestEventMalformedJSON(t *testing.T) {
	router := testRouter(&mockRecommender{}, &mockEventStore{}, &mockReadiness{ready: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/viewed", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestEventStoreErrorMapping(t *testing.T) {
	store := &mockEventStore{err: profile.ErrInvalidScore}
	router := testRouter(&mockRecommender{}, store, &mockReadiness{ready: true})

	rec, resp := doJSON(t, router, http.MethodPost, "/api/v1/events/scored", ScoredEventRequest{
		UserID:  "alice",
		StoryID: "s1",
		Score:   3,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v, want code %s", resp.Error, ErrCodeValidationFailed)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		router := testRouter(&mockRecommender{}, &mockEventStore{}, &mockReadiness{ready: false})
		rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/health/live", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("not ready", func(t *testing.T) {
		router := testRouter(&mockRecommender{}, &mockEventStore{}, &mockReadiness{ready: false})
		rec, resp := doJSON(t, router, http.MethodGet, "/api/v1/health/ready", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		if resp.Error == nil || resp.Error.Code != ErrCodeServiceUnavailable {
			t.Errorf("error = %+v, want code %s", resp.Error, ErrCodeServiceUnavailable)
		}
	})

	t.Run("ready", func(t *testing.T) {
		router := testRouter(&mockRecommender{}, &mockEventStore{}, &mockReadiness{ready: true})
		rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/health/ready", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})
}

func TestRequestIDEchoed(t *testing.T) {
	router := testRouter(&mockRecommender{ids: []string{"a"}}, &mockEventStore{}, &mockReadiness{ready: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/alice", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want req-123", got)
	}

	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Meta == nil || resp.Meta.RequestID != "req-123" {
		t.Errorf("meta = %+v, want request ID req-123", resp.Meta)
	}
}
