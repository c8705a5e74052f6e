package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"millionaire-quiz-service/internal/app"
	"millionaire-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
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

type answerPayload struct {
	Letter string `json:"letter"`
}

type helpPayload struct {
	HelpType string `json:"helpType"`
}

type helpResult struct {
	HelpType string             `json:"helpType"`
	Help     domain.HelpPayload `json:"help"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one player's games.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	current, err := h.resumeOrCreate(ctx, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	out := newOutbox(16)
	go out.run(func(msg outboundMessage[any]) error { return conn.WriteJSON(msg) })

	gameID := current.ID
	if out.push("game", current) {
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				break
			}
			typ, payload := h.dispatch(ctx, userID, &gameID, inbound)
			if !out.push(typ, payload) {
				break
			}
		}
	}
	out.close()
}

// dispatch runs one inbound message and returns the reply frame.
func (h *WSHandler) dispatch(ctx context.Context, userID string, gameID *string, inbound inboundMessage) (string, any) {
	switch inbound.Type {
	case "newGame":
		view, err := h.service.CreateGame(ctx, userID)
		if err != nil {
			return errorFrame(err.Error())
		}
		*gameID = view.ID
		return "game", view
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorFrame("invalid answer payload")
		}
		result, err := h.service.Answer(ctx, *gameID, userID, payload.Letter)
		if err != nil {
			return errorFrame(err.Error())
		}
		return "answerResult", result
	case "help":
		var payload helpPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorFrame("invalid help payload")
		}
		help, err := h.service.Help(ctx, *gameID, userID, payload.HelpType)
		if err != nil {
			return errorFrame(err.Error())
		}
		return "help", helpResult{HelpType: payload.HelpType, Help: help}
	case "takeMoney":
		view, err := h.service.TakeMoney(ctx, *gameID, userID)
		if err != nil {
			return errorFrame(err.Error())
		}
		return "game", view
	case "state":
		view, err := h.service.Game(ctx, *gameID, userID)
		if err != nil {
			return errorFrame(err.Error())
		}
		return "game", view
	default:
		return errorFrame("unsupported message type")
	}
}

func errorFrame(message string) (string, any) {
	return "error", errorPayload{Message: message}
}

// outbox queues frames for the single goroutine allowed to write to the connection.
type outbox struct {
	send chan outboundMessage[any]
	done chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{
		send: make(chan outboundMessage[any], size),
		done: make(chan struct{}),
	}
}

// run writes queued frames until the queue is closed or a write fails.
func (o *outbox) run(write func(outboundMessage[any]) error) {
	defer close(o.done)
	for msg := range o.send {
		if err := write(msg); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}

// push queues a frame. It reports false once the writer has stopped.
func (o *outbox) push(typ string, payload any) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.send <- outboundMessage[any]{Type: typ, Payload: payload}:
		return true
	case <-o.done:
		return false
	}
}

// close stops the writer after it drains the queue and waits for it.
func (o *outbox) close() {
	close(o.send)
	<-o.done
}

func (h *WSHandler) resumeOrCreate(ctx context.Context, userID string) (domain.GameView, error) {
	view, ok, err := h.service.ActiveGame(ctx, userID)
	if err != nil {
		return domain.GameView{}, err
	}
	if ok {
		return view, nil
	}
	return h.service.CreateGame(ctx, userID)
}
