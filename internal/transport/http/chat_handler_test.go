package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestChatCallbackFlow(t *testing.T) {
	service := newTestService()
	handler := NewChatHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/chat?chatId=chat-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Start a game; expect the first question with answer + skip buttons.
	writeMsg(t, conn, map[string]any{
		"type":    "start",
		"payload": map[string]any{"quizId": "quiz-1"},
	})
	typ, payload := readMsg(t, conn)
	if typ != "question" {
		t.Fatalf("expected question, got %s (%v)", typ, payload)
	}
	buttons, _ := payload["buttons"].([]any)
	if len(buttons) != 3 { // 2 answers + skip hint
		t.Fatalf("expected 3 buttons, got %d", len(buttons))
	}

	// Press the correct answer; the only question is done.
	writeMsg(t, conn, map[string]any{
		"type":    "callback",
		"payload": map[string]any{"data": "q1-ok"},
	})
	typ, payload = readMsg(t, conn)
	if typ != "gameOver" {
		t.Fatalf("expected gameOver, got %s (%v)", typ, payload)
	}
}

func TestChatWrongAnswerEndsRun(t *testing.T) {
	service := newTestService()
	handler := NewChatHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/chat?chatId=chat-2"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	writeMsg(t, conn, map[string]any{
		"type":    "start",
		"payload": map[string]any{"quizId": "quiz-1"},
	})
	if typ, _ := readMsg(t, conn); typ != "question" {
		t.Fatalf("expected question, got %s", typ)
	}

	writeMsg(t, conn, map[string]any{
		"type":    "callback",
		"payload": map[string]any{"data": "q1-no"},
	})
	typ, payload := readMsg(t, conn)
	if typ != "gameOver" {
		t.Fatalf("expected gameOver on wrong answer, got %s (%v)", typ, payload)
	}
}

func TestChatCallbackWithoutGame(t *testing.T) {
	service := newTestService()
	handler := NewChatHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/chat", handler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/chat?chatId=chat-3"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	writeMsg(t, conn, map[string]any{
		"type":    "callback",
		"payload": map[string]any{"data": "q1-ok"},
	})
	if typ, _ := readMsg(t, conn); typ != "error" {
		t.Fatalf("expected error, got %s", typ)
	}
}

func writeMsg(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readMsg(t *testing.T, conn *websocket.Conn) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg.Type, msg.Payload
}
