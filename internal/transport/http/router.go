package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"psych-assessment-service/internal/app"
	"psych-assessment-service/internal/auth"
	"psych-assessment-service/internal/catalog"
	"psych-assessment-service/internal/domain"
)

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	Verify(token string) (domain.User, error)
}

// Tokens issues the bearer tokens it later verifies.
type Tokens interface {
	TokenVerifier
	Issue(user domain.User) (string, error)
}

const (
	// exportsPerMinute bounds data-export requests per client IP.
	exportsPerMinute = 3
	// authAttemptsPerMinute bounds sign-up and login attempts per client IP.
	authAttemptsPerMinute = 10
)

// NewRouter mounts the REST endpoints and the websocket session endpoint.
// requestsPerSecond <= 0 disables the per-IP limiter.
func NewRouter(service *app.AssessmentService, accounts *app.AccountService, tokens Tokens, logger *zap.Logger, requestsPerSecond int) http.Handler {
	api := &api{service: service, accounts: accounts, tokens: tokens, logger: logger}
	ws := NewWSHandler(service, tokens, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if requestsPerSecond > 0 {
		r.Use(httprate.LimitByIP(requestsPerSecond, time.Second))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/instruments", api.listInstruments)
	r.Get("/instruments/{kind}", api.getInstrument)
	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.LimitByIP(authAttemptsPerMinute, time.Minute))
		r.Post("/signup", api.signUp)
		r.Post("/login", api.login)
	})
	r.Route("/me", func(r chi.Router) {
		r.Get("/history", api.history)
		r.Get("/trend", api.trend)
		r.With(httprate.LimitByIP(exportsPerMinute, time.Minute)).Post("/export", api.export)
		r.Delete("/data", api.deleteData)
	})
	r.Get("/ws", ws.ServeWS)
	return r
}

type api struct {
	service  *app.AssessmentService
	accounts *app.AccountService
	tokens   Tokens
	logger   *zap.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse carries the page the client should show next.
type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
	Page  app.Page    `json:"page"`
}

type instrumentSummary struct {
	Kind          domain.InstrumentKind `json:"kind"`
	Title         string                `json:"title"`
	QuestionCount int                   `json:"questionCount"`
}

type questionView struct {
	Index   int             `json:"index"`
	Text    string          `json:"text"`
	Tag     string          `json:"tag,omitempty"`
	Options []domain.Option `json:"options"`
}

type instrumentView struct {
	Kind        domain.InstrumentKind `json:"kind"`
	Title       string                `json:"title"`
	Instruction string                `json:"instruction"`
	Reference   string                `json:"reference"`
	Questions   []questionView        `json:"questions"`
}

func newInstrumentView(inst catalog.Instrument) instrumentView {
	questions := make([]questionView, 0, inst.QuestionCount())
	for i, q := range inst.Questions {
		questions = append(questions, questionView{Index: i, Text: q.Text, Tag: q.Tag, Options: inst.OptionsFor(i)})
	}
	return instrumentView{
		Kind:        inst.Kind,
		Title:       inst.Title,
		Instruction: inst.Instruction,
		Reference:   inst.Reference,
		Questions:   questions,
	}
}

func (a *api) listInstruments(w http.ResponseWriter, r *http.Request) {
	out := make([]instrumentSummary, 0, len(catalog.Kinds()))
	for _, kind := range catalog.Kinds() {
		inst, err := catalog.Get(kind)
		if err != nil {
			a.writeError(w, err)
			return
		}
		out = append(out, instrumentSummary{Kind: kind, Title: inst.Title, QuestionCount: inst.QuestionCount()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *api) getInstrument(w http.ResponseWriter, r *http.Request) {
	kind, err := catalog.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorPayload{Message: err.Error()})
		return
	}
	inst, err := catalog.Get(kind)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newInstrumentView(inst))
}

func (a *api) history(w http.ResponseWriter, r *http.Request) {
	user, err := a.identify(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	var kind domain.InstrumentKind
	if raw := r.URL.Query().Get("instrument"); raw != "" {
		if kind, err = catalog.ParseKind(raw); err != nil {
			a.writeError(w, err)
			return
		}
	}
	records, err := a.service.History(r.Context(), user, kind)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (a *api) trend(w http.ResponseWriter, r *http.Request) {
	user, err := a.identify(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	points, err := a.service.DASS21Trend(r.Context(), user)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (a *api) export(w http.ResponseWriter, r *http.Request) {
	user, err := a.identify(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	location, err := a.service.ExportUserData(r.Context(), user)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"location": location})
}

func (a *api) signUp(w http.ResponseWriter, r *http.Request) {
	var req app.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid sign-up body"})
		return
	}
	user, err := a.accounts.SignUp(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}
	nav := app.NewNavigator()
	page, err := nav.SignUp(user)
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeAuth(w, http.StatusCreated, user, page)
}

// login accepts the demo email with any password and signs in as the demo
// account.
func (a *api) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid login body"})
		return
	}
	user, err := a.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.writeError(w, err)
		return
	}
	nav := app.NewNavigator()
	var page app.Page
	if user.IsDemo {
		page, err = nav.DemoLogin(user)
	} else {
		page, err = nav.Login(user)
	}
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeAuth(w, http.StatusOK, user, page)
}

func (a *api) writeAuth(w http.ResponseWriter, status int, user domain.User, page app.Page) {
	token, err := a.tokens.Issue(user)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, status, authResponse{Token: token, User: user, Page: page})
}

// deleteData erases the caller's records and profile.
func (a *api) deleteData(w http.ResponseWriter, r *http.Request) {
	user, err := a.identify(r)
	if err != nil {
		a.writeError(w, err)
		return
	}
	deleted, err := a.accounts.DeleteAccount(r.Context(), user)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deletedRecords": deleted})
}

func (a *api) identify(r *http.Request) (domain.User, error) {
	return identify(r, a.tokens)
}

// identify accepts ?demo=1 for the demonstration account, otherwise a bearer
// token from the Authorization header or the token query parameter (browsers
// cannot set headers on websocket upgrades).
func identify(r *http.Request, verifier TokenVerifier) (domain.User, error) {
	if r.URL.Query().Get("demo") == "1" {
		return auth.DemoUser(), nil
	}
	token := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); header != "" {
		token = strings.TrimPrefix(header, "Bearer ")
	}
	if verifier == nil {
		return domain.User{}, domain.ErrUnauthenticated
	}
	return verifier.Verify(token)
}

func (a *api) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUserRequired),
		errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrDemoAccount):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrExportDisabled):
		return http.StatusServiceUnavailable
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	case domain.IsStateError(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
