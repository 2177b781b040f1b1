package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"movie-quiz/internal/app"
	"movie-quiz/internal/domain"
)

// outbound messages queued per connection before the display starts dropping
const sendBuffer = 16

type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewWSHandler(service *app.GameService, logger *slog.Logger) *WSHandler {
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

type answerPayload struct {
	Answer *bool `json:"answer"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type feedbackPayload struct {
	Correct bool `json:"correct"`
}

// wsDisplay renders presenter output as JSON messages. It is called from the
// game loop and must never block it, so a full or closed connection drops messages.
type wsDisplay struct {
	send   chan outboundMessage
	closed chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func newWSDisplay(logger *slog.Logger) *wsDisplay {
	return &wsDisplay{
		send:   make(chan outboundMessage, sendBuffer),
		closed: make(chan struct{}),
		logger: logger,
	}
}

func (d *wsDisplay) ShowLoading() { d.push(outboundMessage{Type: "loading"}) }
func (d *wsDisplay) HideLoading() { d.push(outboundMessage{Type: "loaded"}) }

func (d *wsDisplay) ShowNetworkError(message string) {
	d.push(outboundMessage{Type: "error", Payload: errorPayload{Message: message}})
}

func (d *wsDisplay) RenderStep(view domain.QuizStepView) {
	d.push(outboundMessage{Type: "step", Payload: view})
}

func (d *wsDisplay) RenderAnswerFeedback(isCorrect bool) {
	d.push(outboundMessage{Type: "feedback", Payload: feedbackPayload{Correct: isCorrect}})
}

func (d *wsDisplay) RenderResults(view domain.QuizResultsView) {
	d.push(outboundMessage{Type: "results", Payload: view})
}

func (d *wsDisplay) push(msg outboundMessage) {
	select {
	case <-d.closed:
		return
	default:
	}
	select {
	case d.send <- msg:
	case <-d.closed:
	default:
		d.logger.Warn("ws send buffer full, dropping message", "type", msg.Type)
	}
}

func (d *wsDisplay) close() {
	d.once.Do(func() { close(d.closed) })
}

// ServeWS upgrades the request and runs one game per connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	display := newWSDisplay(h.logger)
	writerDone := make(chan struct{})

	// single writer: gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for {
			select {
			case msg := <-display.send:
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Debug("ws write error", "error", err)
					display.close()
					return
				}
			case <-display.closed:
				return
			}
		}
	}()

	session := h.service.StartGame(ctx, display)
	logger := h.logger.With("session", session.ID)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Answer == nil {
				display.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}})
				continue
			}
			if *payload.Answer {
				session.Presenter.YesClicked()
			} else {
				session.Presenter.NoClicked()
			}
		case "restart":
			session.Presenter.Restart()
		default:
			display.push(outboundMessage{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}

	if err := h.service.EndGame(session.ID); err != nil {
		logger.Warn("end game", "error", err)
	}
	display.close()
	<-writerDone
}
