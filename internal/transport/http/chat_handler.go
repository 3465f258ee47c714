package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"

	"github.com/gorilla/websocket"
)

// Callback tokens the chat client sends instead of an answer id.
const (
	callbackFiftyFifty = "50/50"
	callbackSkip       = "skip"
)

// ChatHandler is the chat-channel adapter: a websocket per conversation,
// where every inbound message is a chat callback (start a quiz, press an
// answer button, press a hint button). The conversation is correlated by
// chat id, so the handler finds the active game the same way a webhook
// would: newest game for the chat.
type ChatHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewChatHandler(service *app.GameService) *ChatHandler {
	return &ChatHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	QuizID string `json:"quizId"`
}

type callbackPayload struct {
	Data string `json:"data"`
}

type answerButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callbackData"`
}

type questionPayload struct {
	GameID           string         `json:"gameId"`
	Text             string         `json:"text"`
	Image            string         `json:"image,omitempty"`
	Buttons          []answerButton `json:"buttons"`
	QuestionsTotal   int            `json:"questionsTotal"`
	CorrectCount     int            `json:"correctCount"`
	SecondsRemaining int            `json:"secondsRemaining"`
}

type gameOverPayload struct {
	Message string `json:"message"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the connection and speaks the chat callback protocol.
func (h *ChatHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	chatID := r.URL.Query().Get("chatId")
	if chatID == "" {
		http.Error(w, "missing chatId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	channel := domain.ChannelRef{ChatID: chatID}
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid start payload")
				continue
			}
			h.startGame(conn, r, channel, payload.QuizID)
		case "callback":
			var payload callbackPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid callback payload")
				continue
			}
			h.processCallback(conn, r, channel, payload.Data)
		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

func (h *ChatHandler) startGame(conn *websocket.Conn, r *http.Request, channel domain.ChannelRef, quizID string) {
	game, err := h.service.CreateGame(r.Context(), quizID, channel)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	view, err := h.service.Render(r.Context(), game.ID, nil, false)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	h.sendQuestion(conn, game, view)
}

// processCallback replays the webhook flow: locate the chat's newest game,
// translate the callback token, submit, then send whatever comes next.
func (h *ChatHandler) processCallback(conn *websocket.Conn, r *http.Request, channel domain.ChannelRef, data string) {
	games, err := h.service.RecentGames(r.Context(), channel, 1)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	if len(games) == 0 {
		h.sendError(conn, "no active game, send start first")
		return
	}
	game := games[0]

	var sub domain.Submission
	switch data {
	case callbackFiftyFifty:
		sub = domain.RevealHalfSubmission()
	case callbackSkip:
		sub = domain.SkipSubmission("")
	default:
		sub = domain.AnswerSubmission(data)
	}
	if err := h.service.SubmitAnswer(r.Context(), game.ID, sub); err != nil {
		h.sendError(conn, err.Error())
		return
	}

	view, err := h.service.Render(r.Context(), game.ID, nil, data == callbackFiftyFifty)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	if view.Error != "" {
		h.send(conn, outboundMessage[gameOverPayload]{Type: "gameOver", Payload: gameOverPayload{
			Message: view.Error + "! Start a new game?",
		}})
		return
	}
	if view.Message != "" {
		h.send(conn, outboundMessage[gameOverPayload]{Type: "gameOver", Payload: gameOverPayload{
			Message: view.Message + " Start a new game?",
		}})
		return
	}

	h.sendQuestion(conn, game, view)
}

func (h *ChatHandler) sendQuestion(conn *websocket.Conn, game domain.Game, view domain.StateView) {
	buttons := make([]answerButton, 0, len(view.Answers)+2)
	for _, a := range view.Answers {
		buttons = append(buttons, answerButton{Text: a.Text, CallbackData: a.ID})
	}
	if view.FiftyFiftyHint {
		buttons = append(buttons, answerButton{Text: "Hint - 50/50", CallbackData: callbackFiftyFifty})
	}
	if view.CanSkip {
		buttons = append(buttons, answerButton{Text: "Hint - Skip question", CallbackData: callbackSkip})
	}
	h.send(conn, outboundMessage[questionPayload]{Type: "question", Payload: questionPayload{
		GameID:           game.ID,
		Text:             view.QuestionText,
		Image:            view.QuestionImage,
		Buttons:          buttons,
		QuestionsTotal:   view.QuestionsTotal,
		CorrectCount:     view.CorrectCount,
		SecondsRemaining: view.SecondsRemaining,
	}})
}

func (h *ChatHandler) sendError(conn *websocket.Conn, message string) {
	h.send(conn, outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}})
}

func (h *ChatHandler) send(conn *websocket.Conn, msg any) {
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
