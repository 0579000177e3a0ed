package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/devaloi/picstream/internal/broker"
	"github.com/devaloi/picstream/internal/domain"
	"github.com/devaloi/picstream/internal/fanout"
	"github.com/devaloi/picstream/internal/hub"
	"github.com/devaloi/picstream/internal/store"
	"github.com/devaloi/picstream/internal/testutil"
)

func setup(t *testing.T) (*hub.Registry, *fanout.Service, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemory(101)
	b := broker.New()
	svc := fanout.New(s, b, zerolog.Nop())
	reg := hub.New(svc, b, zerolog.Nop())
	go reg.Run()
	t.Cleanup(reg.Stop)
	return reg, svc, s
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestHealth(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	Health()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["status"] != "ok" {
		t.Errorf("expected ok, got %s", body["status"])
	}
}

func TestIngestAccepted(t *testing.T) {
	t.Parallel()
	_, svc, s := setup(t)
	h := Ingest(svc, rate.NewLimiter(rate.Inf, 1), zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/ingest",
		strings.NewReader(`{"city":"nyc","pic":"http://example.com/p1.jpg"}`))
	w := httptest.NewRecorder()
	h(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	nyc, _ := s.Range("nyc")
	uni, _ := s.Range(domain.Universe)
	if len(nyc) != 1 || len(uni) != 1 {
		t.Errorf("expected pic cached in city and universe, got nyc=%v universe=%v", nyc, uni)
	}
}

func TestIngestMalformed(t *testing.T) {
	t.Parallel()
	_, svc, s := setup(t)
	h := Ingest(svc, rate.NewLimiter(rate.Inf, 1), zerolog.Nop())

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", "not json"},
		{"missing pic", `{"city":"nyc"}`},
		{"missing city", `{"pic":"p1"}`},
		{"reserved city", `{"city":"universe","pic":"p1"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(tc.body))
		w := httptest.NewRecorder()
		h(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}

	// Nothing reached the store.
	if uni, _ := s.Range(domain.Universe); len(uni) != 0 {
		t.Errorf("malformed events reached the store: %v", uni)
	}
}

func TestIngestRateLimited(t *testing.T) {
	t.Parallel()
	_, svc, _ := setup(t)
	h := Ingest(svc, rate.NewLimiter(1, 1), zerolog.Nop())

	body := `{"city":"nyc","pic":"p1"}`
	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(body))
	w := httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("first request: expected 202, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(body))
	w = httptest.NewRecorder()
	h(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: expected 429, got %d", w.Code)
	}
}

func TestListChannels(t *testing.T) {
	t.Parallel()
	reg, _, _ := setup(t)

	reg.Join(testutil.NewMockConn("alice"), "nyc")

	req := httptest.NewRequest(http.MethodGet, "/api/channels", nil)
	w := httptest.NewRecorder()
	ListChannels(reg)(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var channels []domain.Channel
	json.NewDecoder(w.Body).Decode(&channels)
	if len(channels) != 1 || channels[0].Name != "nyc" || channels[0].ViewerCount != 1 {
		t.Errorf("unexpected channels: %+v", channels)
	}
}

func TestChannelInfoNotFound(t *testing.T) {
	t.Parallel()
	reg, _, _ := setup(t)

	r := chi.NewRouter()
	r.Get("/api/channels/{channel}", ChannelInfo(reg))

	req := httptest.NewRequest(http.MethodGet, "/api/channels/nowhere", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestChannelInfoFound(t *testing.T) {
	t.Parallel()
	reg, svc, _ := setup(t)

	svc.Publish("nyc", "p1")
	reg.Join(testutil.NewMockConn("alice"), "nyc")

	r := chi.NewRouter()
	r.Get("/api/channels/{channel}", ChannelInfo(reg))

	req := httptest.NewRequest(http.MethodGet, "/api/channels/nyc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var info domain.Channel
	json.NewDecoder(w.Body).Decode(&info)
	if info.Name != "nyc" || info.ViewerCount != 1 || info.CachedPics != 1 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestWSUpgradeRejectsPlainGet(t *testing.T) {
	t.Parallel()
	reg, _, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	ServeWS(reg, zerolog.Nop())(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-upgrade request, got %d", w.Code)
	}
}

func TestWSUpgradeAndJoin(t *testing.T) {
	t.Parallel()
	reg, svc, _ := setup(t)

	server := httptest.NewServer(ServeWS(reg, zerolog.Nop()))
	defer server.Close()

	conn := dialWS(t, server.URL)
	defer conn.Close()

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"join","city":"nyc"}`))
	time.Sleep(100 * time.Millisecond)

	svc.Publish("nyc", "p1")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg domain.PicMessage
	json.Unmarshal(data, &msg)
	if msg.Type != domain.MsgPic || msg.Pic != "p1" {
		t.Errorf("unexpected message: %+v", msg)
	}
}
