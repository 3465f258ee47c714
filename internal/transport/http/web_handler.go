package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-game-service/internal/app"
	"quiz-game-service/internal/domain"
)

// WebHandler is the web-channel adapter: form posts in, JSON state views
// out. It translates its payloads into the three engine calls and owns no
// game logic.
type WebHandler struct {
	service *app.GameService
}

func NewWebHandler(service *app.GameService) *WebHandler {
	return &WebHandler{service: service}
}

// Register mounts the web routes on mux.
func (h *WebHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /games", h.createGame)
	mux.HandleFunc("GET /games/{id}", h.showGame)
	mux.HandleFunc("POST /games/{id}/answer", h.submitAnswer)
	mux.HandleFunc("GET /games", h.recentGames)
}

type createdGame struct {
	GameID            string `json:"gameId"`
	QuizID            string `json:"quizId"`
	CurrentQuestionID string `json:"currentQuestionId"`
	QuestionsTotal    int    `json:"questionsTotal"`
}

func (h *WebHandler) createGame(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	quizID := r.PostFormValue("quiz_id")
	if quizID == "" {
		http.Error(w, "missing quiz_id", http.StatusBadRequest)
		return
	}
	channel := domain.ChannelRef{UserID: r.PostFormValue("user_id")}

	game, err := h.service.CreateGame(r.Context(), quizID, channel)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdGame{
		GameID:            game.ID,
		QuizID:            game.QuizID,
		CurrentQuestionID: game.CurrentQuestionID,
		QuestionsTotal:    len(game.QuestionRow),
	})
}

func (h *WebHandler) showGame(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	sortHint := r.URL.Query()["sort_array"]
	fifty := r.URL.Query().Get("fifty_fifty_hint") == "true"

	view, err := h.service.Render(r.Context(), gameID, sortHint, fifty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// submitAnswer processes the form post and answers with the refreshed
// state view, echoing the client's sort order and in-call hint flag the
// way the redirect-to-show cycle would.
func (h *WebHandler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	gameID := r.PathValue("id")
	fifty := r.PostFormValue("fifty_fifty_hint") == "true"
	skip := r.PostFormValue("can_skip") == "true"
	answerID := r.PostFormValue("answer_id")
	sortHint := r.PostForm["sort_array"]

	var sub domain.Submission
	switch {
	case fifty:
		sub = domain.RevealHalfSubmission()
	case skip:
		sub = domain.SkipSubmission(answerID)
	default:
		sub = domain.AnswerSubmission(answerID)
	}

	if err := h.service.SubmitAnswer(r.Context(), gameID, sub); err != nil {
		writeError(w, err)
		return
	}
	view, err := h.service.Render(r.Context(), gameID, sortHint, fifty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *WebHandler) recentGames(w http.ResponseWriter, r *http.Request) {
	channel := domain.ChannelRef{UserID: r.URL.Query().Get("user_id")}
	games, err := h.service.RecentGames(r.Context(), channel, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrGameNotFound), errors.Is(err, domain.ErrQuizNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrQuizUnavailable):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrNoCurrentQuestion):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
