package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/typespeed/typespeed/internal/api"
	"github.com/typespeed/typespeed/internal/models"
	"github.com/typespeed/typespeed/internal/repository"
	"github.com/typespeed/typespeed/internal/repository/sqlite"
	"github.com/typespeed/typespeed/internal/scanner"
	"github.com/typespeed/typespeed/internal/services"
	"github.com/typespeed/typespeed/internal/session"
	"github.com/typespeed/typespeed/internal/snippet"
	"github.com/typespeed/typespeed/internal/testutil"
	"github.com/typespeed/typespeed/internal/worker"
)

type testEnv struct {
	ts       *httptest.Server
	client   *http.Client
	fileRepo repository.FileRepository
}

// newTestEnv wires a full server over an in-memory database. The client
// carries a cookie jar so the profile cookie persists across calls.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := testutil.NewTestDB(t)
	profileRepo := sqlite.NewProfileRepository(database.DB)
	fileRepo := sqlite.NewFileRepository(database.DB)
	recordRepo := sqlite.NewRecordRepository(database.DB)
	statsRepo := sqlite.NewStatsRepository(database.DB)

	manager := session.NewManager(time.Minute)
	pool := worker.NewPool(1, 4)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	srv := &api.Server{
		DB:             database,
		ProfileService: services.NewProfileService(profileRepo),
		FileService:    services.NewFileService(fileRepo),
		SessionService: services.NewSessionService(manager, fileRepo, recordRepo, snippet.NewSelector(20), 500),
		StatsService:   services.NewStatsService(statsRepo, recordRepo),
		Pool:           pool,
		Scanner:        scanner.New(t.TempDir(), 0),
		FileRepo:       fileRepo,
		StatsRepo:      statsRepo,
		LiveTick:       10 * time.Millisecond,
	}

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{ts: ts, client: &http.Client{Jar: jar}, fileRepo: fileRepo}
}

// insertFile seeds a code file directly; in production files only appear via
// scans.
func (e *testEnv) insertFile(t *testing.T, content string) int64 {
	t.Helper()
	id, err := e.fileRepo.Upsert(context.Background(), models.CodeFile{
		Path:      "sample/main.go",
		Language:  "go",
		Content:   content,
		LineCount: strings.Count(content, "\n") + 1,
		SizeBytes: int64(len(content)),
		ScannedAt: time.Now(),
	})
	require.NoError(t, err)
	return id
}

func (e *testEnv) doJSON(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := e.client.Get(e.ts.URL + path)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func (e *testEnv) createProfile(t *testing.T, username string) models.Profile {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/profiles", map[string]string{"username": username})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p models.Profile
	decodeBody(t, resp, &p)
	return p
}

func (e *testEnv) startSession(t *testing.T, fileID int64) (id, snippetText string) {
	t.Helper()
	var started struct {
		ID      string `json:"id"`
		Snippet string `json:"snippet"`
	}
	resp := e.doJSON(t, http.MethodPost, "/api/sessions", map[string]any{"file_id": fileID})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp, &started)
	return started.ID, started.Snippet
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp := env.get(t, "/healthz")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/readyz")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateProfile_SetsCookie(t *testing.T) {
	env := newTestEnv(t)

	p := env.createProfile(t, "Alice")
	assert.Equal(t, "alice", p.Username, "usernames are normalized")

	// The cookie authorizes profile-scoped routes.
	resp := env.get(t, "/api/stats/summary")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateProfile_EmptyUsername(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/profiles", map[string]string{"username": "  "})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProfileRoutes_RequireCookie(t *testing.T) {
	env := newTestEnv(t)

	bare := &http.Client{}
	for _, path := range []string{"/api/stats/summary", "/api/history", "/api/sessions/abc"} {
		resp, err := bare.Get(env.ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.createProfile(t, "alice")
	fileID := env.insertFile(t, "ab\ncd\n")

	id, snippetText := env.startSession(t, fileID)
	require.Equal(t, "ab\ncd", snippetText)

	// Typing the whole snippet completes the session.
	var metrics session.Metrics
	for _, r := range snippetText {
		resp := e2eKeystroke(t, env, id, string(r))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		decodeBody(t, resp, &metrics)
	}
	assert.Equal(t, "completed", metrics.State)
	assert.Equal(t, metrics.Length, metrics.Cursor)
	assert.InDelta(t, 100.0, metrics.Accuracy, 0.001)

	// Completing persists a record and removes the live session.
	var rec models.SessionRecord
	resp := env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/sessions/%s/complete", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &rec)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, 5, rec.CharsTyped)

	resp = env.get(t, "/api/sessions/"+id)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// The record shows up in history.
	var history struct {
		Records []models.SessionRecord `json:"records"`
		Total   int                    `json:"total"`
	}
	resp = env.get(t, "/api/history")
	decodeBody(t, resp, &history)
	assert.Equal(t, 1, history.Total)
}

func e2eKeystroke(t *testing.T, env *testEnv, id, char string) *http.Response {
	t.Helper()
	return env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/sessions/%s/keystrokes", id), map[string]string{"char": char})
}

func TestSession_BackspaceAndReset(t *testing.T) {
	env := newTestEnv(t)
	env.createProfile(t, "alice")
	fileID := env.insertFile(t, "ab\ncd\n")
	id, _ := env.startSession(t, fileID)

	resp := e2eKeystroke(t, env, id, "x")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var back struct {
		Moved   bool            `json:"moved"`
		Metrics session.Metrics `json:"metrics"`
	}
	resp = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/sessions/%s/backspace", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &back)
	assert.True(t, back.Moved)
	assert.Equal(t, 0, back.Metrics.Cursor)

	var view struct {
		Metrics session.Metrics `json:"metrics"`
	}
	resp = env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/sessions/%s/reset", id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &view)
	assert.Equal(t, "idle", view.Metrics.State)
	assert.Equal(t, 0, view.Metrics.CharsTyped)
}

func TestSession_CompleteBeforeFinishConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.createProfile(t, "alice")
	fileID := env.insertFile(t, "ab\ncd\n")
	id, _ := env.startSession(t, fileID)

	resp := env.doJSON(t, http.MethodPost, fmt.Sprintf("/api/sessions/%s/complete", id), nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestSession_KeystrokeValidation(t *testing.T) {
	env := newTestEnv(t)
	env.createProfile(t, "alice")
	fileID := env.insertFile(t, "ab\ncd\n")
	id, _ := env.startSession(t, fileID)

	for _, char := range []string{"", "ab"} {
		resp := e2eKeystroke(t, env, id, char)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "char=%q", char)
	}
}

func TestSession_OtherProfileCannotSee(t *testing.T) {
	env := newTestEnv(t)
	env.createProfile(t, "alice")
	fileID := env.insertFile(t, "ab\ncd\n")
	id, _ := env.startSession(t, fileID)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	other := &testEnv{ts: env.ts, client: &http.Client{Jar: jar}}
	other.createProfile(t, "bob")

	resp := other.get(t, "/api/sessions/"+id)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartSession_NoFiles(t *testing.T) {
	env := newTestEnv(t)
	env.createProfile(t, "alice")

	resp := env.doJSON(t, http.MethodPost, "/api/sessions", map[string]any{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListFilesAndLanguages(t *testing.T) {
	env := newTestEnv(t)
	env.insertFile(t, "package main\n")

	var files struct {
		Files []models.CodeFile `json:"files"`
		Total int               `json:"total"`
	}
	resp := env.get(t, "/api/files")
	decodeBody(t, resp, &files)
	assert.Equal(t, 1, files.Total)
	require.Len(t, files.Files, 1)
	assert.Empty(t, files.Files[0].Content, "listings omit content")

	var langs struct {
		Languages []string `json:"languages"`
	}
	resp = env.get(t, "/api/languages")
	decodeBody(t, resp, &langs)
	assert.Equal(t, []string{"go"}, langs.Languages)
}

func TestScanEndpointQueuesJob(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, http.MethodPost, "/api/scan", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestStatsRefreshQueuesJob(t *testing.T) {
	env := newTestEnv(t)
	env.createProfile(t, "quinn")

	resp := env.doJSON(t, http.MethodPost, "/api/stats/refresh", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}
