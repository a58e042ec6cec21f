package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"mathtoys-quiz/internal/app"
	"mathtoys-quiz/internal/domain"
	"mathtoys-quiz/internal/logger"
)

// WSHandler streams progress for the caller's session and accepts next and
// answer commands over the same connection.
type WSHandler struct {
	service    *app.QuizService
	cookieName string
	upgrader   websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, cookieName string) *WSHandler {
	return &WSHandler{
		service:    service,
		cookieName: cookieName,
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
	QuestionID domain.QuestionID `json:"question_id"`
	Answer     string            `json:"answer"`
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
	quizID := r.URL.Query().Get("quiz_id")
	if quizID == "" {
		http.Error(w, "missing quiz_id", http.StatusBadRequest)
		return
	}
	cookie, err := r.Cookie(h.cookieName)
	if err != nil || cookie.Value == "" {
		http.Error(w, "missing session cookie", http.StatusUnauthorized)
		return
	}
	sessionID := cookie.Value

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID, quizID)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Get().Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	// Clear deadlines inherited from the server's request timeouts.
	_ = conn.SetReadDeadline(time.Time{})
	_ = conn.SetWriteDeadline(time.Time{})

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// The writer goroutine owns all writes to conn.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Get().Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "progress", Payload: update}:
				case <-writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "next":
			result, err := h.service.Next(r.Context(), sessionID, quizID)
			if err != nil {
				if !deliver(send, writerDone, errorMessage(err)) {
					break read
				}
				continue
			}
			if result.Finished {
				if !deliver(send, writerDone, outboundMessage[any]{Type: "finished", Payload: result.Progress}) {
					break read
				}
				continue
			}
			if !deliver(send, writerDone, outboundMessage[any]{Type: "question", Payload: result.Question}) {
				break read
			}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				if !deliver(send, writerDone, errorMessage(fmt.Errorf("%w: invalid answer payload", domain.ErrInvalidRequest))) {
					break read
				}
				continue
			}
			result, _, err := h.service.Check(r.Context(), sessionID, quizID, payload.QuestionID, payload.Answer)
			if err != nil {
				if !deliver(send, writerDone, errorMessage(err)) {
					break read
				}
				continue
			}
			if !deliver(send, writerDone, outboundMessage[any]{Type: "answerResult", Payload: result}) {
				break read
			}
		default:
			if !deliver(send, writerDone, outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}) {
				break read
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// deliver hands msg to the writer goroutine. It reports false once the writer
// has stopped, so a dead connection never blocks the read loop.
func deliver(send chan<- outboundMessage[any], writerDone <-chan struct{}, msg outboundMessage[any]) bool {
	select {
	case send <- msg:
		return true
	case <-writerDone:
		return false
	}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
}
