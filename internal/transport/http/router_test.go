package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"psych-assessment-service/internal/app"
	"psych-assessment-service/internal/domain"
)

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	return do(t, http.MethodGet, url, token)
}

func do(t *testing.T, method, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeAuth(t *testing.T, resp *http.Response) authResponse {
	t.Helper()
	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode auth response: %v", err)
	}
	return out
}

func TestListInstruments(t *testing.T) {
	f := newFixture(t)
	resp := get(t, f.server.URL+"/instruments", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out []instrumentSummary
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[domain.InstrumentKind]int{domain.InstrumentDASS21: 21, domain.InstrumentDSM5: 23, domain.InstrumentWHOQOL: 26}
	if len(out) != len(want) {
		t.Fatalf("expected %d instruments, got %d", len(want), len(out))
	}
	for _, s := range out {
		if want[s.Kind] != s.QuestionCount {
			t.Fatalf("%s: expected %d questions, got %d", s.Kind, want[s.Kind], s.QuestionCount)
		}
	}
}

func TestGetInstrument(t *testing.T) {
	f := newFixture(t)
	resp := get(t, f.server.URL+"/instruments/WHOQOL", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var view instrumentView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Kind != domain.InstrumentWHOQOL || len(view.Questions) != 26 {
		t.Fatalf("unexpected view %s with %d questions", view.Kind, len(view.Questions))
	}
	for _, q := range view.Questions {
		if len(q.Options) == 0 {
			t.Fatalf("question %d has no resolved options", q.Index)
		}
	}

	if resp := get(t, f.server.URL+"/instruments/phq9", ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown instrument, got %d", resp.StatusCode)
	}
}

func TestHistoryRequiresIdentity(t *testing.T) {
	f := newFixture(t)
	if resp := get(t, f.server.URL+"/me/history", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp := get(t, f.server.URL+"/me/history", "not-a-token"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", resp.StatusCode)
	}
}

func TestHistoryAndTrend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	for i, d := range []int{20, 10} {
		err := f.records.SaveRecord(ctx, domain.AssessmentRecord{
			ID: "r-" + string(rune('a'+i)), UserID: "u-1", Instrument: domain.InstrumentDASS21,
			Scores:    domain.DASS21Score{Depression: d, Anxiety: 4, Stress: 6},
			Responses: domain.Responses{0: 1}, CreatedAt: base.AddDate(0, 0, 7*i),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	token := f.token(t, "u-1")

	resp := get(t, f.server.URL+"/me/history?instrument=dass21", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var records []domain.AssessmentRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(records) != 2 || records[0].ID != "r-a" {
		t.Fatalf("expected 2 records oldest first, got %+v", records)
	}

	resp = get(t, f.server.URL+"/me/trend", token)
	var points []domain.TrendPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		t.Fatalf("decode trend: %v", err)
	}
	if len(points) != 2 || points[0].Depression != 20 || points[1].Depression != 10 {
		t.Fatalf("unexpected trend %+v", points)
	}

	if resp := get(t, f.server.URL+"/me/history?instrument=phq9", token); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown instrument filter, got %d", resp.StatusCode)
	}
}

func TestDemoTrend(t *testing.T) {
	f := newFixture(t)
	resp := get(t, f.server.URL+"/me/trend?demo=1", "")
	var points []domain.TrendPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		t.Fatalf("decode trend: %v", err)
	}
	if len(points) != 4 || points[0].Stress != 28 {
		t.Fatalf("unexpected demo trend %+v", points)
	}
}

type stubExporter struct{}

func (stubExporter) Export(_ context.Context, userID string, _ []domain.AssessmentRecord) (string, error) {
	return "exports/" + userID + "/x.json", nil
}

func TestExport(t *testing.T) {
	disabled := newFixture(t)
	if resp := do(t, http.MethodPost, disabled.server.URL+"/me/export", disabled.token(t, "u-1")); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without exporter, got %d", resp.StatusCode)
	}

	f := newFixture(t, app.WithExporter(stubExporter{}))
	if resp := do(t, http.MethodPost, f.server.URL+"/me/export?demo=1", ""); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for demo account, got %d", resp.StatusCode)
	}
	resp := do(t, http.MethodPost, f.server.URL+"/me/export", f.token(t, "u-1"))
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["location"] != "exports/u-1/x.json" {
		t.Fatalf("unexpected location %q", body["location"])
	}
}

func TestSignUpAndLogin(t *testing.T) {
	f := newFixture(t)
	signUp := map[string]any{"email": "ana@example.com", "password": "secret1", "age": 30, "gender": "Feminino"}

	resp := postJSON(t, f.server.URL+"/auth/signup", signUp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decodeAuth(t, resp)
	if created.Page != app.PageConsent || created.User.Email != "ana@example.com" || created.Token == "" {
		t.Fatalf("unexpected sign-up response %+v", created)
	}
	if profile, err := f.profiles.ProfileByEmail(context.Background(), "ana@example.com"); err != nil || profile.Age != 30 {
		t.Fatalf("expected stored profile with age, got %+v %v", profile, err)
	}
	if resp := get(t, f.server.URL+"/me/history", created.Token); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected sign-up token to authenticate, got %d", resp.StatusCode)
	}

	noAge := map[string]any{"email": "bia@example.com", "password": "secret1", "gender": "Outro"}
	if resp := postJSON(t, f.server.URL+"/auth/signup", noAge); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without age, got %d", resp.StatusCode)
	}
	if resp := postJSON(t, f.server.URL+"/auth/signup", signUp); resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}

	resp = postJSON(t, f.server.URL+"/auth/login", map[string]string{"email": "ana@example.com", "password": "secret1"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if login := decodeAuth(t, resp); login.Page != app.PageDashboard || login.User.UID != created.User.UID {
		t.Fatalf("unexpected login response %+v", login)
	}
	if resp := postJSON(t, f.server.URL+"/auth/login", map[string]string{"email": "ana@example.com", "password": "nope"}); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", resp.StatusCode)
	}
}

func TestDemoEmailLogin(t *testing.T) {
	f := newFixture(t)
	resp := postJSON(t, f.server.URL+"/auth/login", map[string]string{"email": "Cliente@demo.com", "password": "whatever"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	login := decodeAuth(t, resp)
	if !login.User.IsDemo || login.Page != app.PageConsent {
		t.Fatalf("expected demo user on consent page, got %+v", login)
	}

	// the issued token carries the demo flag
	resp = get(t, f.server.URL+"/me/trend", login.Token)
	var points []domain.TrendPoint
	if err := json.NewDecoder(resp.Body).Decode(&points); err != nil {
		t.Fatalf("decode trend: %v", err)
	}
	if len(points) != 4 {
		t.Fatalf("expected demo trend, got %+v", points)
	}
}

func TestDeleteMyData(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"r-1", "r-2"} {
		err := f.records.SaveRecord(ctx, domain.AssessmentRecord{
			ID: id, UserID: "u-1", Instrument: domain.InstrumentDSM5,
			Scores: domain.DSM5Score{TotalScore: 3}, Responses: domain.Responses{0: 3},
			CreatedAt: time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if resp := do(t, http.MethodDelete, f.server.URL+"/me/data", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.StatusCode)
	}
	if resp := do(t, http.MethodDelete, f.server.URL+"/me/data?demo=1", ""); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for demo account, got %d", resp.StatusCode)
	}

	resp := do(t, http.MethodDelete, f.server.URL+"/me/data", f.token(t, "u-1"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["deletedRecords"] != 2 {
		t.Fatalf("expected 2 deleted records, got %v", body)
	}
	if left, _ := f.records.ListRecords(ctx, "u-1", ""); len(left) != 0 {
		t.Fatalf("expected no records left, got %d", len(left))
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrUnauthenticated:     http.StatusUnauthorized,
		domain.ErrDemoAccount:         http.StatusForbidden,
		domain.ErrInvalidAnswerValue:  http.StatusBadRequest,
		domain.ErrAlreadySubmitted:    http.StatusConflict,
		domain.ErrSessionNotFound:     http.StatusNotFound,
		app.ErrExportDisabled:         http.StatusServiceUnavailable,
		domain.ErrInvalidCredentials:  http.StatusUnauthorized,
		domain.ErrInvalidProfile:      http.StatusBadRequest,
		domain.ErrEmailTaken:          http.StatusConflict,
		errors.New("connection reset"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := statusFor(err); got != want {
			t.Fatalf("%v: expected %d, got %d", err, want, got)
		}
	}
}
