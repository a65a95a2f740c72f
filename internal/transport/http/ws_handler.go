package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"flashmind-student/internal/api"
	"flashmind-student/internal/app"
	"flashmind-student/internal/domain"
	"flashmind-student/internal/runner"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

// WSHandler runs one quiz attempt per socket.
type WSHandler struct {
	server   *Server
	upgrader websocket.Upgrader
}

func NewWSHandler(server *Server) *WSHandler {
	return &WSHandler{
		server: server,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option string `json:"option"`
}

type nextPayload struct {
	Index *int `json:"index"`
}

type resultPayload struct {
	View   app.View      `json:"view"`
	Result runner.Result `json:"result"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// updateMessages turns an attempt update into the messages the page expects.
func updateMessages(update app.Update) []outboundMessage[any] {
	var out []outboundMessage[any]
	if update.Error != "" {
		out = append(out, errorMessage(update.Error))
	}
	if update.Result != nil {
		out = append(out, outboundMessage[any]{Type: "result", Payload: resultPayload{View: update.View, Result: *update.Result}})
	} else {
		out = append(out, outboundMessage[any]{Type: "state", Payload: update.View})
	}
	return out
}

// ServeWS upgrades the request and drives a fresh attempt of the quiz in the URL.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "id")
	student, err := h.server.auth.Student(r.Context(), h.server.sid(r))
	if err != nil {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	attempt, err := h.server.quizzes.StartAttempt(r.Context(), student, quizID)
	if err != nil {
		msg := api.UserMessage(err, "Impossible de charger le quiz.")
		if errors.Is(err, domain.ErrQuizNotFound) {
			msg = "Quiz introuvable."
		} else if errors.Is(err, runner.ErrInvalidConfiguration) {
			msg = "Ce quiz ne contient aucune question."
		}
		_ = conn.WriteJSON(errorMessage(msg))
		return
	}
	defer attempt.Close()

	// The backend decides whether this student may take the quiz; without
	// its consent the countdown never starts.
	if err := attempt.Start(r.Context()); err != nil {
		log.Printf("ws start quiz %s: %v", quizID, err)
		_ = conn.WriteJSON(errorMessage(api.UserMessage(err, "Le quiz n'a pas pu démarrer.")))
		return
	}

	updates, cancel := attempt.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only this goroutine writes to the connection.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
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
				for _, msg := range updateMessages(update) {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	reply := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-closeSignals:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if err := h.dispatch(r, attempt, inbound); err != nil {
			reply(errorMessage(err.Error()))
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(r *http.Request, attempt *app.Attempt, inbound inboundMessage) error {
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == "" {
			return errors.New("invalid select payload")
		}
		return userError(attempt.Select(payload.Option))
	case "next":
		var payload nextPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Index == nil {
			return errors.New("invalid next payload")
		}
		return userError(attempt.Next(r.Context(), *payload.Index))
	case "previous":
		return userError(attempt.Previous())
	case "replay":
		return userError(attempt.Replay(r.Context()))
	default:
		return errors.New("unsupported message type")
	}
}

// userError keeps runner failures readable; a stale "next" lost the race
// against the countdown and needs no message.
func userError(err error) error {
	switch {
	case err == nil, errors.Is(err, runner.ErrStaleAdvance):
		return nil
	case errors.Is(err, runner.ErrSessionCompleted):
		return errors.New("le quiz est terminé")
	case errors.Is(err, runner.ErrInvalidOption):
		return errors.New("réponse inconnue")
	case errors.Is(err, runner.ErrCannotRetreat):
		return errors.New("impossible de revenir en arrière")
	default:
		return errors.New(api.UserMessage(err, "action impossible"))
	}
}
