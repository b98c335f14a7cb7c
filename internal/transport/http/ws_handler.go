package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"psych-assessment-service/internal/app"
	"psych-assessment-service/internal/catalog"
	"psych-assessment-service/internal/domain"
)

// writeWait bounds a single frame write to the peer.
const writeWait = 10 * time.Second

var errConsentRequired = errors.New("consent required before answering")

type WSHandler struct {
	service  *app.AssessmentService
	verifier TokenVerifier
	logger   *zap.Logger
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService, verifier TokenVerifier, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service:  service,
		verifier: verifier,
		logger:   logger,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// wsConn is the part of *websocket.Conn a session loop needs.
type wsConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionIndex *int `json:"questionIndex" validate:"required,min=0"`
	Value         *int `json:"value" validate:"required,min=0"`
}

type startedPayload struct {
	Page       app.Page       `json:"page"`
	Progress   app.Progress   `json:"progress"`
	Instrument instrumentView `json:"instrument"`
}

type pagePayload struct {
	Page app.Page `json:"page"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request into one assessment session. Demo users land on
// the consent page and must send a consent message before answering; everyone
// else starts on the assessment page. Every accepted answer is acknowledged
// with the session's progress and page changes are pushed as page messages.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, err := identify(r, h.verifier)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	kind, err := catalog.ParseKind(r.URL.Query().Get("instrument"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// sessions outlive the upgrade request's context only as long as the socket
	ctx := context.WithoutCancel(r.Context())
	session, err := h.service.Start(ctx, user, kind)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	defer h.service.Discard(ctx, session.ID())

	nav, err := navigatorFor(user)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.String("session_id", session.ID()), zap.Error(err))
		return
	}
	defer conn.Close()

	h.serve(ctx, conn, session, nav)
}

// navigatorFor signs user in on a fresh navigator and moves to the first page
// the socket serves.
func navigatorFor(user domain.User) (*app.Navigator, error) {
	nav := app.NewNavigator()
	if user.IsDemo {
		_, err := nav.DemoLogin(user)
		return nav, err
	}
	if _, err := nav.Login(user); err != nil {
		return nil, err
	}
	_, err := nav.Open(app.PageAssessment)
	return nav, err
}

// serve runs the read loop until the peer goes away or the writer fails.
func (h *WSHandler) serve(ctx context.Context, conn wsConn, session *app.Session, nav *app.Navigator) {
	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.String("session_id", session.ID()), zap.Error(err))
				// unblock the reader
				_ = conn.Close()
				return
			}
		}
	}()

	push := func(msgType string, payload any) bool {
		select {
		case send <- outboundMessage[any]{Type: msgType, Payload: payload}:
			return true
		case <-writerDone:
			return false
		}
	}
	fail := func(msg string) bool {
		return push("error", errorPayload{Message: msg})
	}

	alive := push("started", startedPayload{
		Page:       nav.Page(),
		Progress:   session.Progress(),
		Instrument: newInstrumentView(session.Instrument()),
	})

	for alive {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "consent":
			page, err := nav.AcceptConsent()
			if err != nil {
				alive = fail(err.Error())
				continue
			}
			alive = push("page", pagePayload{Page: page})
		case "answer":
			if nav.Page() == app.PageConsent {
				alive = fail(errConsentRequired.Error())
				continue
			}
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				alive = fail("invalid answer payload")
				continue
			}
			if err := h.validate.Struct(payload); err != nil {
				alive = fail("invalid answer payload: " + err.Error())
				continue
			}
			progress, err := h.service.RecordAnswer(ctx, session.ID(), *payload.QuestionIndex, *payload.Value)
			if err != nil {
				alive = fail(err.Error())
				continue
			}
			alive = push("progress", progress)
		case "submit":
			if nav.Page() == app.PageConsent {
				alive = fail(errConsentRequired.Error())
				continue
			}
			record, err := h.service.Submit(ctx, session.ID())
			if err != nil {
				if !domain.IsValidationError(err) && !domain.IsStateError(err) {
					h.logger.Error("ws submit failed", zap.String("session_id", session.ID()), zap.Error(err))
				}
				alive = fail(err.Error())
				continue
			}
			alive = push("submitted", record)
			if page, err := nav.Submitted(); alive && err == nil {
				alive = push("page", pagePayload{Page: page})
			}
		case "sign_out":
			push("page", pagePayload{Page: nav.SignOut()})
			alive = false
		default:
			alive = fail("unsupported message type")
		}
	}

	close(send)
	<-writerDone
}
