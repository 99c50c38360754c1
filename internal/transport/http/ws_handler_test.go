package http

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	server, conn := dialTestServer(t, "0xwalletA")
	defer server.Close()
	defer conn.Close()

	// Start a session.
	writeMsg(t, conn, "start", map[string]any{"quizId": "quiz-1"})
	msgType, payload := readNext(conn, t, "session")
	if msgType != "session" {
		t.Fatalf("expected session, got %s", msgType)
	}
	sessionID, _ := payload["sessionId"].(string)
	if sessionID == "" {
		t.Fatalf("expected session id in %v", payload)
	}
	questions, _ := payload["questions"].([]any)
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %v", payload["questions"])
	}
	for _, raw := range questions {
		if _, leaked := raw.(map[string]any)["correctIndex"]; leaked {
			t.Fatalf("correct index leaked to client: %v", raw)
		}
	}

	// Answer both questions correctly (correct index is 1 throughout).
	for i, raw := range questions {
		q := raw.(map[string]any)
		writeMsg(t, conn, "answer", map[string]any{
			"sessionId":       sessionID,
			"questionId":      q["id"],
			"selectedIndex":   1,
			"clientTimestamp": time.Now().UnixMilli(),
		})
		_, result := readNext(conn, t, "answerResult")
		if result["correct"] != true {
			t.Fatalf("answer %d: expected correct, got %v", i, result)
		}
	}
}

func TestWebSocketCompletionCarriesResult(t *testing.T) {
	server, conn := dialTestServer(t, "0xwalletB")
	defer server.Close()
	defer conn.Close()

	writeMsg(t, conn, "start", map[string]any{"quizId": "quiz-1"})
	_, payload := readNext(conn, t, "session")
	sessionID := payload["sessionId"].(string)
	questions := payload["questions"].([]any)

	var final map[string]any
	for _, raw := range questions {
		q := raw.(map[string]any)
		writeMsg(t, conn, "answer", map[string]any{
			"sessionId":       sessionID,
			"questionId":      q["id"],
			"selectedIndex":   1,
			"clientTimestamp": time.Now().UnixMilli(),
		})
		_, final = readNext(conn, t, "answerResult")
	}

	if final["isComplete"] != true {
		t.Fatalf("expected completion, got %v", final)
	}
	result, _ := final["result"].(map[string]any)
	if result == nil || result["status"] != "completed" || result["isWinner"] != true {
		t.Fatalf("expected winning completion result, got %v", final)
	}
}

func TestWebSocketDuplicateStartRejected(t *testing.T) {
	server, conn := dialTestServer(t, "0xwalletC")
	defer server.Close()
	defer conn.Close()

	writeMsg(t, conn, "start", map[string]any{"quizId": "quiz-1"})
	readNext(conn, t, "session")

	writeMsg(t, conn, "start", map[string]any{"quizId": "quiz-1"})
	_, payload := readNext(conn, t, "error")
	if payload["code"] != "ALREADY_ATTEMPTED" {
		t.Fatalf("expected ALREADY_ATTEMPTED, got %v", payload)
	}
}

func TestWebSocketRequiresWallet(t *testing.T) {
	service := newTestService()
	server := httptest.NewServer(http.HandlerFunc(NewWSHandler(service).ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without wallet, got %d", resp.StatusCode)
	}
}

func TestWebSocketTimeoutCarriesCode(t *testing.T) {
	clock := &shiftClock{base: time.Now()}
	server, conn := dialTestServer(t, "0xwalletD", app.WithClock(clock.Now))
	defer server.Close()
	defer conn.Close()

	writeMsg(t, conn, "start", map[string]any{"quizId": "quiz-1"})
	_, payload := readNext(conn, t, "session")
	sessionID := payload["sessionId"].(string)
	first := payload["questions"].([]any)[0].(map[string]any)

	clock.Shift(time.Hour)
	writeMsg(t, conn, "answer", map[string]any{
		"sessionId":       sessionID,
		"questionId":      first["id"],
		"selectedIndex":   1,
		"clientTimestamp": clock.Now().UnixMilli(),
	})
	_, expired := readNext(conn, t, "timeExpired")
	if expired["code"] != "TIME_EXPIRED" {
		t.Fatalf("expected TIME_EXPIRED code, got %v", expired)
	}
	if expired["isComplete"] != true || expired["timedOut"] != true {
		t.Fatalf("expected terminal timeout payload, got %v", expired)
	}
	result, _ := expired["result"].(map[string]any)
	if result == nil || result["status"] != "timeout" {
		t.Fatalf("expected timeout result, got %v", expired)
	}
}

type shiftClock struct {
	mu     sync.Mutex
	base   time.Time
	offset time.Duration
}

func (c *shiftClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(c.offset)
}

func (c *shiftClock) Shift(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset += d
}

func dialTestServer(t *testing.T, wallet string, opts ...app.Option) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	service := newTestService(opts...)
	wsHandler := NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)

	u := "ws" + server.URL[len("http"):] + "/ws?wallet=" + wallet
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		server.Close()
		t.Fatalf("dial: %v", err)
	}
	return server, conn
}

func writeMsg(t *testing.T, conn *websocket.Conn, msgType string, payload map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": msgType, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
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
		t.Fatalf("expected type %s, got %s (%v)", expect, msg.Type, msg.Payload)
	}
	return msg.Type, msg.Payload
}

func newTestService(opts ...app.Option) *app.AttemptService {
	quiz := domain.Quiz{
		ID:                 "quiz-1",
		Title:              "WS quiz",
		RewardAmountTotal:  100,
		WinnerLimit:        5,
		TimePerQuestionSec: 15,
		Status:             domain.QuizActive,
		RewardPools: []domain.RewardPool{
			{Tier: 1, WinnerCount: 5, Percentage: 100},
		},
		Questions: []domain.Question{
			{ID: "q1", Text: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectIndex: 1},
			{ID: "q2", Text: "What is 3 + 3?", Options: []string{"5", "6"}, CorrectIndex: 1},
		},
	}
	quizRepo := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{"quiz-1": quiz}), time.Minute)
	return app.NewAttemptService(quizRepo, memory.NewAttemptStore(), memory.NewWinnerLedger(), opts...)
}
