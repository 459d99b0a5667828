package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/proovit/proovit/internal/app"
	"github.com/proovit/proovit/internal/config"
	"github.com/proovit/proovit/internal/db/dbtest"
	"github.com/proovit/proovit/internal/model"
	"github.com/proovit/proovit/internal/repository"
	"github.com/proovit/proovit/internal/service"
	"github.com/proovit/proovit/internal/storage"
	"github.com/proovit/proovit/internal/verifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngImage = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memStorage) Save(ctx context.Context, path string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *memStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *memStorage) PresignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; !ok {
		return "", storage.ErrObjectNotFound
	}
	return "https://files.test/" + path + "?signed=1", nil
}

func (s *memStorage) SignedURL(ctx context.Context, path string, expiry time.Duration) (string, error) {
	return "https://files.test/" + path + "?signed=1", nil
}

func (s *memStorage) URL(path string) string {
	return "https://files.test/" + path
}

func (s *memStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type stubVerifier struct {
	mu      sync.Mutex
	verdict model.Verdict
	err     error
	calls   int
}

func (v *stubVerifier) set(verdict model.Verdict, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.verdict, v.err = verdict, err
}

func (v *stubVerifier) callCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.calls
}

func (v *stubVerifier) Verify(ctx context.Context, imagePath, goalTitle string) (*model.Verdict, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	if imagePath == "" || goalTitle == "" {
		return nil, verifier.ErrInvalidInput
	}
	if v.err != nil {
		return nil, v.err
	}
	verdict := v.verdict
	return &verdict, nil
}

type testEnv struct {
	server   *httptest.Server
	app      *app.App
	storage  *memStorage
	verifier *stubVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

func newTestEnvWith(t *testing.T, configure func(*config.Config)) *testEnv {
	t.Helper()

	database := dbtest.Open(t)
	cfg := &config.Config{
		AppEnv:              "development",
		ProofMaxImageBytes:  1 << 20,
		ProofRatePerMinute:  100,
		UsernameSearchLimit: 20,
		FeedLimit:           50,
	}
	if configure != nil {
		configure(cfg)
	}

	store := &memStorage{objects: make(map[string][]byte)}
	stub := &stubVerifier{verdict: model.Verdict{Verified: true, Score: 0.9, Reason: "looks right"}}

	profileRepo := repository.NewProfileRepository(database)
	goalRepo := repository.NewGoalRepository(database)
	proofRepo := repository.NewProofRepository(database)
	streakRepo := repository.NewStreakRepository(database)
	friendshipRepo := repository.NewFriendshipRepository(database)

	a := &app.App{Cfg: cfg, DB: database, Location: time.UTC, Storage: store, Verifier: stub}
	a.AuthService = service.NewAuthService("test-secret", time.Hour)
	a.ProfileService = service.NewProfileService(profileRepo, friendshipRepo, goalRepo, streakRepo, cfg.UsernameSearchLimit)
	a.GoalService = service.NewGoalService(goalRepo, streakRepo)
	a.StreakEngine = service.NewStreakEngine(streakRepo, nil, 3)
	a.ProofService = service.NewProofService(proofRepo, store, stub, a.StreakEngine, service.ProofServiceConfig{})
	a.FeedService = service.NewFeedService(friendshipRepo, store, cfg.FeedLimit, time.Hour)
	a.ReconcileService = service.NewReconcileService(proofRepo, streakRepo, time.UTC)

	server := httptest.NewServer(SetupRoutes(a))
	t.Cleanup(server.Close)

	return &testEnv{server: server, app: a, storage: store, verifier: stub}
}

func (e *testEnv) token(t *testing.T, phone, username string) (string, *model.Profile) {
	t.Helper()
	profile, err := e.app.ProfileService.Create(context.Background(), phone, username, nil)
	require.NoError(t, err)
	token, err := e.app.AuthService.GenerateJWT(profile)
	require.NoError(t, err)
	return token, profile
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *testEnv) doJSON(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	return e.do(t, method, path, token, reader, "application/json")
}

func (e *testEnv) submit(t *testing.T, token, goalID string, image []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "proof.png")
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("caption", "morning run"))
	require.NoError(t, mw.Close())
	return e.do(t, http.MethodPost, "/api/goals/"+goalID+"/proofs", token, &buf, mw.FormDataContentType())
}

func (e *testEnv) createGoal(t *testing.T, token, title string) *model.Goal {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/goals", token, map[string]string{"title": title})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var goal model.Goal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&goal))
	return &goal
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type submitBody struct {
	Verified bool          `json:"verified"`
	Score    float64       `json:"score"`
	Reason   string        `json:"reason"`
	Proof    *model.Proof  `json:"proof"`
	Streak   *model.Streak `json:"streak"`
	Error    string        `json:"error"`
	Stage    string        `json:"stage"`
}

func TestHealthIsPublic(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/goals", "/api/me", "/api/feed"} {
		resp := env.do(t, http.MethodGet, path, "", nil, "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp := env.do(t, http.MethodGet, "/api/goals", "not-a-jwt", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGoalLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token, profile := env.token(t, "+15550000001", "runner")

	resp := env.doJSON(t, http.MethodPost, "/api/goals", token, map[string]string{"title": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	goal := env.createGoal(t, token, "Run 5km")
	assert.Equal(t, profile.ID, goal.UserID)
	assert.Equal(t, model.FrequencyDaily, goal.Frequency)

	resp = env.do(t, http.MethodGet, "/api/goals", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	goals := decode[[]model.GoalWithStreak](t, resp)
	require.Len(t, goals, 1)
	assert.Equal(t, 0, goals[0].Streak.CurrentCount)

	resp = env.doJSON(t, http.MethodPatch, "/api/goals/"+goal.ID, token, map[string]bool{"is_active": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.submit(t, token, goal.ID, pngImage)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Zero(t, env.storage.count())
}

func TestGoalOfAnotherUserIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ownerToken, _ := env.token(t, "+15550000001", "owner")
	otherToken, _ := env.token(t, "+15550000002", "other")

	goal := env.createGoal(t, ownerToken, "Read")

	resp := env.do(t, http.MethodGet, "/api/goals/"+goal.ID, otherToken, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.submit(t, otherToken, goal.ID, pngImage)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSubmitVerifiedProof(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, "+15550000001", "runner")
	goal := env.createGoal(t, token, "Run 5km")

	resp := env.submit(t, token, goal.ID, pngImage)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[submitBody](t, resp)
	assert.True(t, body.Verified)
	assert.InDelta(t, 0.9, body.Score, 1e-9)
	require.NotNil(t, body.Proof)
	require.NotNil(t, body.Streak)
	assert.Equal(t, 1, body.Streak.CurrentCount)
	assert.Equal(t, 1, env.storage.count())

	// A second proof on the same day leaves the streak alone
	resp = env.submit(t, token, goal.ID, pngImage)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode[submitBody](t, resp)
	require.NotNil(t, body.Streak)
	assert.Equal(t, 1, body.Streak.CurrentCount)

	resp = env.do(t, http.MethodGet, "/api/goals/"+goal.ID+"/streak", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	streak := decode[model.Streak](t, resp)
	assert.Equal(t, 1, streak.CurrentCount)
	assert.Equal(t, 1, streak.LongestCount)

	resp = env.do(t, http.MethodGet, "/api/goals/"+goal.ID+"/proofs", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	proofs := decode[[]model.Proof](t, resp)
	assert.Len(t, proofs, 2)
}

func TestSubmitRejectedProof(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, "+15550000001", "runner")
	goal := env.createGoal(t, token, "Run 5km")
	env.verifier.set(model.Verdict{Verified: false, Score: 0.2, Reason: "that is a cat"}, nil)

	resp := env.submit(t, token, goal.ID, pngImage)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[submitBody](t, resp)
	assert.False(t, body.Verified)
	assert.Equal(t, "that is a cat", body.Reason)
	assert.Nil(t, body.Streak)
	assert.Nil(t, body.Proof)
	assert.Equal(t, 1, env.storage.count())

	resp = env.do(t, http.MethodGet, "/api/goals/"+goal.ID+"/streak", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, decode[model.Streak](t, resp).CurrentCount)
}

func TestSubmitVerifierUnavailable(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, "+15550000001", "runner")
	goal := env.createGoal(t, token, "Run 5km")
	env.verifier.set(model.Verdict{}, fmt.Errorf("%w: model timed out", verifier.ErrUnavailable))

	resp := env.submit(t, token, goal.ID, pngImage)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	body := decode[submitBody](t, resp)
	assert.Equal(t, string(service.StageVerify), body.Stage)
	assert.Zero(t, env.storage.count())
}

func TestSubmitRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.token(t, "+15550000001", "runner")
	goal := env.createGoal(t, token, "Run 5km")

	resp := env.submit(t, token, goal.ID, []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.submit(t, token, goal.ID, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVerifyProofFunction(t *testing.T) {
	env := newTestEnv(t)
	token, profile := env.token(t, "+15550000001", "runner")
	_, other := env.token(t, "+15550000002", "walker")

	own := profile.ID + "/goal-1/proof_1.jpg"
	foreign := other.ID + "/goal-2/proof_1.jpg"

	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"verified", `{"imagePath":"` + own + `","goalTitle":"Run"}`, nil, http.StatusOK},
		{"missing goal", `{"imagePath":"` + own + `","goalTitle":""}`, nil, http.StatusBadRequest},
		{"missing path", `{"goalTitle":"Run"}`, nil, http.StatusBadRequest},
		{"malformed", `{"imagePath":`, nil, http.StatusBadRequest},
		{"unavailable", `{"imagePath":"` + own + `","goalTitle":"Run"}`, verifier.ErrUnavailable, http.StatusBadGateway},
		{"another user's image", `{"imagePath":"` + foreign + `","goalTitle":"Run"}`, nil, http.StatusNotFound},
		{"prefix without separator", `{"imagePath":"` + profile.ID + `x/g/proof_1.jpg","goalTitle":"Run"}`, nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.verifier.set(model.Verdict{Verified: true, Score: 0.8, Reason: "ok"}, tt.err)
			before := env.verifier.callCount()

			resp := env.do(t, http.MethodPost, "/functions/verify-proof", token, strings.NewReader(tt.body), "application/json")
			require.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusNotFound {
				assert.Equal(t, before, env.verifier.callCount())
			}

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, body["verified"])
				assert.InDelta(t, 0.8, body["score"], 1e-9)
				assert.Equal(t, "ok", body["reason"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestVerifyProofIsRateLimited(t *testing.T) {
	env := newTestEnvWith(t, func(cfg *config.Config) { cfg.ProofRatePerMinute = 1 })
	token, profile := env.token(t, "+15550000001", "runner")
	body := `{"imagePath":"` + profile.ID + `/goal-1/proof_1.jpg","goalTitle":"Run"}`

	resp := env.do(t, http.MethodPost, "/functions/verify-proof", token, strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/functions/verify-proof", token, strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, 1, env.verifier.callCount())
}

func TestFollowAndFeed(t *testing.T) {
	env := newTestEnv(t)
	aliceToken, alice := env.token(t, "+15550000001", "alice")
	bobToken, bob := env.token(t, "+15550000002", "bob")

	goal := env.createGoal(t, bobToken, "Meditate")
	resp := env.submit(t, bobToken, goal.ID, pngImage)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/profiles/"+alice.ID+"/follow", aliceToken, nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/profiles/"+bob.ID+"/follow", aliceToken, nil, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/feed", aliceToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var feed []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&feed))
	assert.Len(t, feed, 1)

	resp = env.do(t, http.MethodGet, "/api/profiles/"+bob.ID+"/stats", aliceToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := decode[model.ProfileStats](t, resp)
	assert.Equal(t, 1, stats.TotalGoals)
	assert.Equal(t, 1, stats.FollowersCount)
	assert.True(t, stats.IsFollowing)

	resp = env.do(t, http.MethodGet, "/api/profiles/"+bob.ID, aliceToken, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[model.Profile](t, resp).PhoneNumber)
}
