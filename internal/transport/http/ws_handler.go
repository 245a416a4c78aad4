package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"weekly-challenge/internal/app"
	"weekly-challenge/internal/domain"

	"github.com/gorilla/websocket"
)

// WSHandler runs one play session per connection. It resumes an unfinished
// attempt on connect, starts one on request, answers questions and relays live standings.
type WSHandler struct {
	service  *app.ChallengeService
	hub      *app.StandingsHub
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.ChallengeService, hub *app.StandingsHub) *WSHandler {
	return &WSHandler{
		service: service,
		hub:     hub,
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

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message       string `json:"message"`
	NextAttemptAt string `json:"nextAttemptAt,omitempty"`
}

func errorMessage(err error) outboundMessage[any] {
	payload := errorPayload{Message: err.Error()}
	var cooldown *domain.CooldownError
	if errors.As(err, &cooldown) {
		payload.NextAttemptAt = cooldown.NextAttemptAt.Format(time.RFC3339)
	}
	return outboundMessage[any]{Type: "error", Payload: payload}
}

// opening is the first message of a session. An unfinished attempt is resumed
// as a step; otherwise the client gets its eligibility and must send "start".
func (h *WSHandler) opening(ctx context.Context, userID, challengeID string) (outboundMessage[any], error) {
	current, err := h.service.Current(ctx, userID, challengeID)
	switch {
	case err == nil && !current.Attempt.Completed:
		return outboundMessage[any]{Type: "step", Payload: current}, nil
	case err != nil && !errors.Is(err, domain.ErrAttemptNotFound):
		return outboundMessage[any]{}, err
	}
	eligibility, err := h.service.Eligibility(ctx, userID, challengeID)
	if err != nil {
		return outboundMessage[any]{}, err
	}
	return outboundMessage[any]{Type: "eligibility", Payload: eligibility}, nil
}

// ServeWS upgrades HTTP requests to websockets and wires them into the challenge use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	challengeID := r.URL.Query().Get("challengeId")
	userID, ok := UserIDFrom(r.Context())
	if challengeID == "" || !ok {
		http.Error(w, "missing challengeId or user", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	opening, err := h.opening(r.Context(), userID, challengeID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}

	updates, cancel, err := h.hub.Subscribe(r.Context(), challengeID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		failed := false
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				failed = true
				// unblocks the read loop
				_ = conn.Close()
			}
		}
	}()

	send <- opening

	go func() {
		defer close(updatesDone)
		for {
			select {
			case standings, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "leaderboard", Payload: standings}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			sub, err := decodeAnswer(inbound.Payload)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			next, err := h.service.SubmitAnswer(r.Context(), userID, challengeID, sub)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "step", Payload: next}
		case "start":
			step, err := h.service.Start(r.Context(), userID, challengeID)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "step", Payload: step}
		case "step":
			current, err := h.service.Current(r.Context(), userID, challengeID)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "step", Payload: current}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
