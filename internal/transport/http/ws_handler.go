package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"arith-quiz-service/internal/app"
	"arith-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
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
	Difficulty string `json:"difficulty"`
	Mode       string `json:"mode"`
}

// answerPayload carries an option index for multiple choice or a boolean for true/false.
type answerPayload struct {
	Value any `json:"value"`
}

type indexPayload struct {
	Index int `json:"index"`
}

type keyPayload struct {
	Key string `json:"key"`
}

type completedPayload struct {
	Result    *domain.SessionResult `json:"result"`
	Persisted bool                  `json:"persisted"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	userID := r.URL.Query().Get("userId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	logger := h.logger.With(slog.String("player", playerID))

	events, cancel := h.service.Subscribe(ctx, playerID, userID)
	// Another socket of the same player keeps the game alive.
	defer func() {
		cancel()
		h.service.Release(ctx, playerID)
	}()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn("ws write error", slog.String("error", err.Error()))
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case send <- eventMessage(ev):
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-writerDone:
		}
	}
	fail := func(err error) {
		reply("error", errorPayload{Message: err.Error()})
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid start payload"})
				continue
			}
			if _, err := h.service.Start(ctx, playerID, userID, domain.Difficulty(payload.Difficulty), domain.Mode(payload.Mode)); err != nil {
				fail(err)
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			out, err := h.service.RecordAnswer(ctx, playerID, payload.Value)
			if err != nil {
				fail(err)
				continue
			}
			reply("answerResult", out)
		case "selectLeft", "unassign":
			var payload indexPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid index payload"})
				continue
			}
			if inbound.Type == "selectLeft" {
				_, err = h.service.SelectLeft(ctx, playerID, payload.Index)
			} else {
				_, err = h.service.Unassign(ctx, playerID, payload.Index)
			}
			if err != nil {
				fail(err)
			}
		case "chooseRight":
			var payload keyPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply("error", errorPayload{Message: "invalid key payload"})
				continue
			}
			out, err := h.service.ChooseRight(ctx, playerID, payload.Key)
			if err != nil {
				fail(err)
				continue
			}
			reply("matchResult", out)
		case "advance":
			if _, _, err := h.service.Advance(ctx, playerID); err != nil {
				fail(err)
			}
		case "quit":
			if err := h.service.Quit(ctx, playerID); err != nil {
				fail(err)
			}
		case "retake":
			if _, err := h.service.Retake(ctx, playerID); err != nil {
				fail(err)
			}
		default:
			reply("error", errorPayload{Message: "unsupported message type"})
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}

func eventMessage(ev domain.Event) outboundMessage[any] {
	switch ev.Type {
	case domain.EventCompleted:
		return outboundMessage[any]{Type: string(ev.Type), Payload: completedPayload{Result: ev.Result, Persisted: ev.Persisted}}
	case domain.EventQuit:
		return outboundMessage[any]{Type: string(ev.Type), Payload: struct{}{}}
	default:
		return outboundMessage[any]{Type: string(ev.Type), Payload: ev.View}
	}
}
