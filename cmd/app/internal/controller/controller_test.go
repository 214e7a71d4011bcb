package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexiq-backend/internal/assessment"
	"lexiq-backend/internal/db"
	"lexiq-backend/internal/db/dbtest"
	"lexiq-backend/internal/mailer"
	"lexiq-backend/internal/model"
	"lexiq-backend/internal/repository"
	"lexiq-backend/internal/seed"
	"lexiq-backend/internal/service"
	"lexiq-backend/utilities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	sender *mailer.MemorySender
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn := dbtest.Open(t)
	store := repository.NewStore(conn)
	_, err := seed.Seed(context.Background(), store, false)
	require.NoError(t, err)

	cfg := assessment.DefaultConfig()
	bus := utilities.NewEventBus()
	sender := &mailer.MemorySender{}
	jwt := utilities.NewJWTManager("access", "refresh", time.Minute, time.Hour)
	blacklist := service.NewMemoryTokenBlacklist()
	profile := service.NewProfileService(store, mailer.NewDirectMailer(sender, 15), 10, 15*time.Minute)

	r := gin.New()
	qe := db.NewQueryExecutor(conn)
	RegisterRoutes(r, Services{
		Auth:      service.NewAuthService(store, jwt, blacklist, bus),
		Tests:     service.NewEnglishTestService(store, cfg, bus),
		Answers:   service.NewAnswerService(store),
		Diagnosis: service.NewDiagnosisService(store, cfg, bus),
		Profile:   profile,
		Progress:  service.NewProgressService(store),
		Reports:   service.NewReportService(profile),
		Health:    qe.Health,
	}, jwt, blacklist, nil)
	return &testServer{router: r, sender: sender}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"username": username, "password": "secret1", "password_repeat": "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/auth/token", "", gin.H{"username": username, "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pair service.TokenPair
	decode(t, w, &pair)
	return pair.AccessToken
}

func TestDiagnosticFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "flow")

	w := s.do(t, http.MethodPost, "/english-test/generate", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var test service.GeneratedTest
	decode(t, w, &test)
	assert.Equal(t, model.ModeDiagnostic, test.Mode)
	require.Len(t, test.Questions, 30)

	// correct answers are not exposed; a wrong A1 answer pins the level at A1
	var answers []model.AnswerSubmission
	for _, q := range test.Questions {
		if q.Type != model.TypeOpenText || q.Level != model.LevelA1 {
			continue
		}
		text := "whatever"
		answers = append(answers, model.AnswerSubmission{SessionID: test.SessionID, QuestionID: q.ID, AnswerText: &text})
	}
	require.NotEmpty(t, answers)

	w = s.do(t, http.MethodPost, "/english-test/answers", token, gin.H{"answers": answers})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved service.SubmitResult
	decode(t, w, &saved)
	assert.Equal(t, len(answers), saved.Saved)
	assert.Zero(t, saved.Correct)

	w = s.do(t, http.MethodPost, "/english-test/sessions/"+test.SessionID.String()+"/submit", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var eval service.Evaluation
	decode(t, w, &eval)
	assert.Equal(t, model.LevelA1, eval.DiagnosedLevel)

	w = s.do(t, http.MethodGet, "/profile/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me model.User
	decode(t, w, &me)
	assert.Equal(t, model.LevelA1, me.EnglishLevel)

	w = s.do(t, http.MethodGet, "/profile/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		History []service.SessionHistory `json:"history"`
	}
	decode(t, w, &history)
	require.Len(t, history.History, 1)
	assert.Len(t, history.History[0].Questions, len(answers))

	w = s.do(t, http.MethodGet, "/profile/history/report", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	w = s.do(t, http.MethodGet, "/profile/progress", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQuestionsHideAnswers(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "curious")

	w := s.do(t, http.MethodPost, "/english-test/diagnostic", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, "is_correct")
	assert.NotContains(t, body, "correct_answer")
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "mapper")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   interface{}
		status int
		code   service.Code
	}{
		{"no token", http.MethodPost, "/english-test/generate", "", nil, http.StatusUnauthorized, service.CodeUnauthorized},
		{"upgrade without level", http.MethodPost, "/english-test/upgrade", token, gin.H{"target_level": "B2"}, http.StatusBadRequest, service.CodeLevelNotSet},
		{"bad level", http.MethodPost, "/english-test/select-level", token, gin.H{"level": "Z9"}, http.StatusBadRequest, service.CodeValidation},
		{"bad session id", http.MethodPost, "/english-test/sessions/nope/submit", token, nil, http.StatusBadRequest, service.CodeValidation},
		{"unknown session", http.MethodPost, "/english-test/sessions/00000000-0000-0000-0000-000000000001/submit", token, nil, http.StatusNotFound, service.CodeNotFound},
		{"empty answers", http.MethodPost, "/english-test/answers", token, gin.H{"answers": []interface{}{}}, http.StatusBadRequest, service.CodeValidation},
		{"no progress yet", http.MethodGet, "/profile/progress", token, nil, http.StatusNotFound, service.CodeNotFound},
		{"duplicate user", http.MethodPost, "/auth/register", "", gin.H{"username": "mapper", "password": "secret1", "password_repeat": "secret1"}, http.StatusConflict, service.CodeConflict},
		{"wrong password", http.MethodPost, "/auth/token", "", gin.H{"username": "mapper", "password": "nope!"}, http.StatusUnauthorized, service.CodeUnauthorized},
		{"garbage token", http.MethodGet, "/auth/verify-token/garbage", "", nil, http.StatusForbidden, service.CodeForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			var body struct {
				Error string       `json:"error"`
				Code  service.Code `json:"code"`
			}
			decode(t, w, &body)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestNoAnswersIsBadRequest(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "quiet")

	w := s.do(t, http.MethodPost, "/english-test/generate", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var test service.GeneratedTest
	decode(t, w, &test)

	w = s.do(t, http.MethodPost, "/english-test/sessions/"+test.SessionID.String()+"/submit", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), string(service.CodeNoAnswers))
}

func TestSelectLevelAndUpgrade(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "picker")

	w := s.do(t, http.MethodPost, "/english-test/select-level", token, gin.H{"level": "b1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"english_level":"B1"`)

	w = s.do(t, http.MethodPost, "/english-test/upgrade", token, gin.H{"target_level": "A2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/english-test/upgrade", token, gin.H{"target_level": "C1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var test service.GeneratedTest
	decode(t, w, &test)
	assert.Equal(t, model.ModeUpgrade, test.Mode)
	for _, q := range test.Questions {
		assert.Equal(t, model.LevelC1, q.Level)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "leaver")

	w := s.do(t, http.MethodGet, "/auth/verify-token/"+token, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/auth/verify-token/"+token, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = s.do(t, http.MethodGet, "/profile/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEmailUpdateFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "mailer")

	w := s.do(t, http.MethodPost, "/profile/update-email", token, gin.H{"email": "mailer@example.com"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	msgs := s.sender.Messages()
	require.Len(t, msgs, 1)

	w = s.do(t, http.MethodPost, "/profile/verify-email", token, gin.H{"code": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"questions":36`)
	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
