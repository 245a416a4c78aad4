package http

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"weekly-challenge/internal/app"
	"weekly-challenge/internal/domain"

	"github.com/gorilla/mux"
)

// Handler serves the weekly challenge REST API.
type Handler struct {
	service  *app.ChallengeService
	board    *app.LeaderboardService
	schedule app.Schedule
	now      func() time.Time
}

func NewHandler(service *app.ChallengeService, board *app.LeaderboardService, schedule app.Schedule) *Handler {
	return &Handler{service: service, board: board, schedule: schedule, now: time.Now}
}

type activeChallenge struct {
	ChallengeID string    `json:"challengeId"`
	WeekStart   time.Time `json:"weekStart"`
}

func (h *Handler) ActiveChallenge(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	challengeID, err := h.schedule.ActiveChallenge(r.Context(), now)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, activeChallenge{
		ChallengeID: challengeID,
		WeekStart:   domain.WeekStart(now.UTC()),
	})
}

func (h *Handler) Eligibility(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	eligibility, err := h.service.Eligibility(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, eligibility)
}

func (h *Handler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	step, err := h.service.Start(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (h *Handler) CurrentAttempt(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	step, err := h.service.Current(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFrom(r.Context())
	data, err := io.ReadAll(io.LimitReader(r.Body, maxAnswerBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: errMalformedAnswer.Error()})
		return
	}
	sub, err := decodeAnswer(data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	step, err := h.service.SubmitAnswer(r.Context(), userID, mux.Vars(r)["id"], sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	standings, err := h.board.Standings(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standings)
}
