package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"votebox/internal/clock"
	"votebox/internal/repository/sqlite"
	"votebox/internal/service"
	"votebox/internal/token"
)

type testServer struct {
	router *gin.Engine
	clk    *clock.Mock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "votebox_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	topics := sqlite.NewTopicRepository(db)
	sessions := sqlite.NewSessionRepository(db)
	votes := sqlite.NewVoteRepository(db)
	require.NoError(t, users.Init(ctx))
	require.NoError(t, topics.Init(ctx))
	require.NoError(t, sessions.Init(ctx))
	require.NoError(t, votes.Init(ctx))

	clk := clock.NewMock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	tokens := token.NewManager("test-secret", time.Hour, 24*time.Hour, clk)

	userService := service.NewUserService(users)
	votingService := service.NewVotingService(topics, sessions, votes, clk, nil, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(userService, votingService, tokens).RegisterRoutes(router)

	return &testServer{router: router, clk: clk}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *testServer) registerAndLogin(t *testing.T, cpf string) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/register", "", gin.H{
		"cpf": cpf, "name": "Ada Voter", "password": "secret-pass",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/login", "", gin.H{"cpf": cpf, "password": "secret-pass"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	tokens := decode[map[string]string](t, rec)
	require.NotEmpty(t, tokens["access"])
	require.NotEmpty(t, tokens["refresh"])
	return tokens["access"]
}

func (s *testServer) createTopic(t *testing.T, bearer, title string) int64 {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/topics/", bearer, gin.H{"title": title})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[TopicResponse](t, rec).ID
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/register", "", gin.H{
		"cpf": "12345678901", "name": "Ada Voter", "password": "12345",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	fieldErrs := decode[map[string][]string](t, rec)
	assert.Contains(t, fieldErrs, "password")

	// the rejected registration must not have created a user
	rec = s.do(t, http.MethodPost, "/login", "", gin.H{"cpf": "12345678901", "password": "12345"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginInvalidCredentials(t *testing.T) {
	s := newTestServer(t)
	s.registerAndLogin(t, "12345678901")

	rec := s.do(t, http.MethodPost, "/login", "", gin.H{"cpf": "12345678901", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decode[map[string]string](t, rec), "error")
}

func TestMe(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	access := s.registerAndLogin(t, "12345678901")
	rec = s.do(t, http.MethodGet, "/me", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	me := decode[UserResponse](t, rec)
	assert.Equal(t, "12345678901", me.CPF)
	assert.Equal(t, "Ada Voter", me.Name)
	assert.NotZero(t, me.ID)
}

func TestTopicsListIsPublicCreateIsNot(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/topics/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]TopicResponse](t, rec))

	rec = s.do(t, http.MethodPost, "/topics/", "", gin.H{"title": "Budget"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	access := s.registerAndLogin(t, "12345678901")
	topicID := s.createTopic(t, access, "Budget")

	rec = s.do(t, http.MethodGet, "/topics/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]TopicResponse](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, topicID, list[0].ID)
	assert.Equal(t, "waiting", list[0].Status)
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	access := s.registerAndLogin(t, "12345678901")
	topicID := s.createTopic(t, access, "Budget")

	base := "/topics/" + itoa(topicID)

	rec := s.do(t, http.MethodPost, "/topics/999/session/", access, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/session/?duration_minutes=5", access, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[SessionResponse](t, rec)
	assert.Equal(t, topicID, created.Topic)

	start, err := time.Parse(time.RFC3339, created.StartTime)
	require.NoError(t, err)
	end, err := time.Parse(time.RFC3339, created.EndTime)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, end.Sub(start))

	// second session while one is open
	rec = s.do(t, http.MethodPost, base+"/session/", access, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "a session is already open for this topic", decode[map[string]string](t, rec)["error"])

	// garbage duration silently falls back to the one-minute default
	s.clk.Advance(5 * time.Minute)
	rec = s.do(t, http.MethodPost, base+"/session/?duration_minutes=abc", access, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	fallback := decode[SessionResponse](t, rec)
	start, err = time.Parse(time.RFC3339, fallback.StartTime)
	require.NoError(t, err)
	end, err = time.Parse(time.RFC3339, fallback.EndTime)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, end.Sub(start))
}

func TestVotingFlow(t *testing.T) {
	s := newTestServer(t)
	access := s.registerAndLogin(t, "12345678901")
	topicID := s.createTopic(t, access, "Budget")
	base := "/topics/" + itoa(topicID)

	rec := s.do(t, http.MethodPost, base+"/vote/", "", gin.H{"choice": "Yes"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// no open session yet
	rec = s.do(t, http.MethodPost, base+"/vote/", access, gin.H{"choice": "Yes"})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "session not found or not open for this topic", decode[map[string]string](t, rec)["error"])

	rec = s.do(t, http.MethodPost, base+"/session/?duration_minutes=5", access, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/vote/", access, gin.H{"choice": "Maybe"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/vote/", access, gin.H{"choice": "Yes"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	vote := decode[VoteResponse](t, rec)
	assert.Equal(t, "Yes", vote.Choice)

	rec = s.do(t, http.MethodPost, base+"/vote/", access, gin.H{"choice": "Yes"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "you have already voted on this topic", decode[map[string]string](t, rec)["error"])

	// voting after the window closes
	other := s.registerAndLogin(t, "98765432100")
	s.clk.Advance(5 * time.Minute)
	rec = s.do(t, http.MethodPost, base+"/vote/", other, gin.H{"choice": "No"})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultFlow(t *testing.T) {
	s := newTestServer(t)
	access := s.registerAndLogin(t, "12345678901")
	topicID := s.createTopic(t, access, "Budget")
	base := "/topics/" + itoa(topicID)

	rec := s.do(t, http.MethodGet, "/topics/999/result/", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// topic exists but was never put to vote
	rec = s.do(t, http.MethodGet, base+"/result/", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/session/?duration_minutes=5", access, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(t, http.MethodPost, base+"/vote/", access, gin.H{"choice": "Yes"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, base+"/result/", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "session is still open", decode[map[string]string](t, rec)["error"])

	s.clk.Advance(5 * time.Minute)

	rec = s.do(t, http.MethodGet, base+"/result/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[ResultResponse](t, rec)
	assert.Equal(t, ResultResponse{Total: 1, Sim: 1, Nao: 0}, result)
}

func TestExpiredTokenRejected(t *testing.T) {
	s := newTestServer(t)
	access := s.registerAndLogin(t, "12345678901")

	s.clk.Advance(2 * time.Hour)

	rec := s.do(t, http.MethodGet, "/me", access, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
