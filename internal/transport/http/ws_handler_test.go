package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"movie-quiz/internal/app"
	"movie-quiz/internal/infra/memory"
)

func newTestServer(t *testing.T) (*httptest.Server, *app.GameService) {
	t.Helper()
	movies := memory.NewMovieRepository(memory.NewStaticMovieLoader(memory.SampleMovies()), time.Minute)
	stats := app.NewStatisticsStore(memory.NewKVStore(), "")
	service := app.NewGameService(
		memory.NewSessionStore(),
		func() app.QuestionSource { return app.NewQuestionFactory(movies, nil, nil) },
		stats,
		app.PresenterOptions{QuestionsAmount: 2, FeedbackDelay: 10 * time.Millisecond},
	)
	server := httptest.NewServer(NewRouter(service, nil))
	t.Cleanup(server.Close)
	return server, service
}

func TestWebSocketRound(t *testing.T) {
	server, service := newTestServer(t)

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "loading")
	readNext(conn, t, "loaded")

	for i, number := range []string{"1/2", "2/2"} {
		_, payload := readNext(conn, t, "step")
		if payload["questionNumber"] != number {
			t.Fatalf("step %d: expected question number %s, got %v", i, number, payload["questionNumber"])
		}
		if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{"answer": true}}); err != nil {
			t.Fatalf("write answer: %v", err)
		}
		readNext(conn, t, "feedback")
	}

	_, results := readNext(conn, t, "results")
	if results["title"] != "This round is over!" {
		t.Fatalf("unexpected results title %v", results["title"])
	}
	if results["total"] != float64(2) {
		t.Fatalf("expected total 2, got %v", results["total"])
	}
	if service.ActiveGames() != 1 {
		t.Fatalf("expected one active game, got %d", service.ActiveGames())
	}

	// Play again starts from question one.
	if err := conn.WriteJSON(map[string]any{"type": "restart"}); err != nil {
		t.Fatalf("write restart: %v", err)
	}
	_, payload := readNext(conn, t, "step")
	if payload["questionNumber"] != "1/2" {
		t.Fatalf("expected restart at 1/2, got %v", payload["questionNumber"])
	}

	resp, err := http.Get(server.URL + "/api/statistics")
	if err != nil {
		t.Fatalf("get statistics: %v", err)
	}
	defer resp.Body.Close()
	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode statistics: %v", err)
	}
	if stats["gamesCount"] != float64(1) || stats["questionsCount"] != float64(2) {
		t.Fatalf("unexpected statistics %v", stats)
	}
	if _, ok := stats["totalAccuracy"]; !ok {
		t.Fatalf("expected totalAccuracy in %v", stats)
	}
}

func TestWebSocketRejectsBadMessages(t *testing.T) {
	server, _ := newTestServer(t)

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "loading")
	readNext(conn, t, "loaded")
	readNext(conn, t, "step")

	if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": map[string]any{}}); err != nil {
		t.Fatalf("write answer: %v", err)
	}
	_, payload := readNext(conn, t, "error")
	if payload["message"] != "invalid answer payload" {
		t.Fatalf("unexpected error payload %v", payload)
	}

	if err := conn.WriteJSON(map[string]any{"type": "skip"}); err != nil {
		t.Fatalf("write skip: %v", err)
	}
	readNext(conn, t, "error")
}

func TestEndGameOnDisconnect(t *testing.T) {
	server, service := newTestServer(t)

	u := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readNext(conn, t, "loading")
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for service.ActiveGames() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected session to end after disconnect, active=%d", service.ActiveGames())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	resp, err := http.Get(server.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}
