package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// WSHandler wires websocket connections into the attempt use cases. The
// wallet address arrives already authenticated by the upstream auth layer;
// this handler trusts it completely.
type WSHandler struct {
	service  *app.AttemptService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AttemptService) *WSHandler {
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

type startPayload struct {
	QuizID string `json:"quizId"`
}

type answerPayload struct {
	SessionID     string `json:"sessionId"`
	QuestionID    string `json:"questionId"`
	SelectedIndex int    `json:"selectedIndex"`
	// Client wall clock in unix milliseconds; persisted for audit only.
	ClientTimestamp int64 `json:"clientTimestamp"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// expiredPayload is the answer result for a missed deadline, tagged with the
// TIME_EXPIRED code so clients can branch on it like any other error code.
type expiredPayload struct {
	Code string `json:"code"`
	app.SubmitResult
}

// ServeWS upgrades HTTP requests to websockets. The protocol is strict
// request/response: the client must read each answer result (which carries
// the next question) before submitting again, so a single loop owns both
// directions of the connection.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		http.Error(w, "missing wallet", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.writeError(conn, "BAD_REQUEST", "invalid start payload")
				continue
			}
			start, err := h.service.StartSession(r.Context(), payload.QuizID, wallet)
			if err != nil {
				h.writeError(conn, domain.ErrorCode(err), err.Error())
				continue
			}
			h.write(conn, "session", start)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.writeError(conn, "BAD_REQUEST", "invalid answer payload")
				continue
			}
			result, err := h.service.SubmitAnswer(r.Context(), payload.SessionID, wallet,
				payload.QuestionID, payload.SelectedIndex, time.UnixMilli(payload.ClientTimestamp))
			if err != nil {
				h.writeError(conn, domain.ErrorCode(err), err.Error())
				continue
			}
			if result.TimedOut {
				h.write(conn, "timeExpired", expiredPayload{Code: "TIME_EXPIRED", SubmitResult: result})
				continue
			}
			h.write(conn, "answerResult", result)
		default:
			h.writeError(conn, "BAD_REQUEST", "unsupported message type")
		}
	}
}

func (h *WSHandler) write(conn *websocket.Conn, msgType string, payload any) {
	if err := conn.WriteJSON(outboundMessage[any]{Type: msgType, Payload: payload}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}

func (h *WSHandler) writeError(conn *websocket.Conn, code, message string) {
	h.write(conn, "error", errorPayload{Code: code, Message: message})
}
