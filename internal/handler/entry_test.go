package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/thought-journal/internal/auth"
	"github.com/sakif/thought-journal/internal/handler"
	"github.com/sakif/thought-journal/internal/model"
	"github.com/sakif/thought-journal/internal/repository/sqlite"
	"github.com/sakif/thought-journal/internal/service"
)

// testApp wires the real stack — chi router, RequireAuth middleware,
// services, in-memory sqlite — so these tests cover the whole request
// path the way a browser hits it.
type testApp struct {
	router *chi.Mux
	tokens *auth.TokenService
	db     *sqlite.DB
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	tokens, err := auth.NewTokenService("test-secret-test-secret")
	require.NoError(t, err)

	entryService := service.NewEntryService(db, db, logger)
	competencyService := service.NewCompetencyService(db, logger)
	authService := service.NewAuthService(db, tokens, auth.NewPasswordServiceForTest(4), logger)
	entryHandler := handler.NewEntryHandler(entryService, logger)
	competencyHandler := handler.NewCompetencyHandler(competencyService, logger)
	authHandler := handler.NewAuthHandler(nil, authService, logger)

	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})
	router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/me", authHandler.HandleMe)
		r.Get("/competencies", competencyHandler.HandleList)
		r.Get("/entry", entryHandler.HandleList)
		r.Post("/entry", entryHandler.HandleCreate)
		r.Put("/entry/{id}", entryHandler.HandleUpdate)
		r.Delete("/entry/{id}", entryHandler.HandleDelete)
	})

	return &testApp{router: router, tokens: tokens, db: db}
}

// signIn creates a user row and returns a valid session cookie for it.
func (app *testApp) signIn(t *testing.T, login string) (*model.User, *http.Cookie) {
	t.Helper()
	user := &model.User{Login: login, PasswordHash: "x"}
	require.NoError(t, app.db.CreateUser(context.Background(), user))

	token, err := app.tokens.Generate(user.ID)
	require.NoError(t, err)

	return user, &http.Cookie{Name: auth.SessionCookie, Value: token}
}

// do runs one request through the router and returns the recorder.
func (app *testApp) do(method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	app.router.ServeHTTP(rr, req)
	return rr
}

func listEntries(t *testing.T, app *testApp, cookie *http.Cookie) []model.Entry {
	t.Helper()
	rr := app.do(http.MethodGet, "/api/entry", "", cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	var entries []model.Entry
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&entries))
	return entries
}

func TestEntryAPI_CreateAndList(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	rr := app.do(http.MethodPost, "/api/entry", `{"text":"hello","competencyIDs":[1,3]}`, alice)
	require.Equal(t, http.StatusOK, rr.Code)

	var created model.Entry
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "hello", created.Text)
	assert.Equal(t, []int64{1, 3}, created.Competencies)
	assert.False(t, created.CreatedAt.IsZero())

	entries := listEntries(t, app, alice)
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Text)
	assert.Equal(t, []int64{1, 3}, entries[0].Competencies)

	// User B's list does not include user A's entry.
	_, bob := app.signIn(t, "bob")
	assert.Empty(t, listEntries(t, app, bob))
}

func TestEntryAPI_Unauthenticated(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	for _, tc := range []struct {
		method, path, body string
	}{
		{http.MethodGet, "/api/entry", ""},
		{http.MethodPost, "/api/entry", `{"text":"x","competencyIDs":[]}`},
		{http.MethodPut, "/api/entry/1", `{"text":"x","competencyIDs":[]}`},
		{http.MethodDelete, "/api/entry/1", ""},
	} {
		rr := app.do(tc.method, tc.path, tc.body, nil)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
	}

	// And none of those attempts touched the store.
	assert.Empty(t, listEntries(t, app, alice))
}

func TestEntryAPI_UpdateReplacesCompetencySet(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	rr := app.do(http.MethodPost, "/api/entry", `{"text":"draft","competencyIDs":[1,2]}`, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	var created model.Entry
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))

	rr = app.do(http.MethodPut, "/api/entry/1", `{"text":"final","competencyIDs":[3]}`, alice)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Updated"}`, rr.Body.String())

	entries := listEntries(t, app, alice)
	require.Len(t, entries, 1)
	assert.Equal(t, "final", entries[0].Text)
	assert.Equal(t, []int64{3}, entries[0].Competencies)
}

func TestEntryAPI_UpdateWithEmptySetClearsTags(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	app.do(http.MethodPost, "/api/entry", `{"text":"tagged","competencyIDs":[1,2,3]}`, alice)

	rr := app.do(http.MethodPut, "/api/entry/1", `{"text":"tagged","competencyIDs":[]}`, alice)
	require.Equal(t, http.StatusOK, rr.Code)

	entries := listEntries(t, app, alice)
	require.Len(t, entries, 1)
	assert.Equal(t, []int64{}, entries[0].Competencies)
}

func TestEntryAPI_ForeignOwnerIsNotFound(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")
	_, bob := app.signIn(t, "bob")

	app.do(http.MethodPost, "/api/entry", `{"text":"alice's","competencyIDs":[1]}`, alice)

	// Bob updating or deleting Alice's entry gets 404 — never 200 or 403,
	// which would confirm the entry exists.
	rr := app.do(http.MethodPut, "/api/entry/1", `{"text":"stolen","competencyIDs":[]}`, bob)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = app.do(http.MethodDelete, "/api/entry/1", "", bob)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	entries := listEntries(t, app, alice)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice's", entries[0].Text)
}

func TestEntryAPI_Delete(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	app.do(http.MethodPost, "/api/entry", `{"text":"bye","competencyIDs":[1]}`, alice)

	rr := app.do(http.MethodDelete, "/api/entry/1", "", alice)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Deleted"}`, rr.Body.String())

	assert.Empty(t, listEntries(t, app, alice))

	// Deleting again is 404.
	rr = app.do(http.MethodDelete, "/api/entry/1", "", alice)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEntryAPI_MalformedBody(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	for _, body := range []string{
		`{"text":`,                                     // truncated JSON
		`{"text":123,"competencyIDs":[]}`,              // wrong type
		`{"text":"x","competencyIDs":["one"]}`,         // wrong element type
		`{"text":"x","competencyIDs":[],"extra":true}`, // unknown field
	} {
		rr := app.do(http.MethodPost, "/api/entry", body, alice)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body: %s", body)
	}

	assert.Empty(t, listEntries(t, app, alice))
}

func TestEntryAPI_EmptyTextRejected(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	rr := app.do(http.MethodPost, "/api/entry", `{"text":"   ","competencyIDs":[]}`, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
	assert.Equal(t, "validation_error", errResp.Error)
}

func TestEntryAPI_UnknownCompetencyRejected(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	rr := app.do(http.MethodPost, "/api/entry", `{"text":"x","competencyIDs":[42]}`, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, listEntries(t, app, alice))
}

func TestEntryAPI_BadIDParam(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	rr := app.do(http.MethodPut, "/api/entry/abc", `{"text":"x","competencyIDs":[]}`, alice)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCompetencyAPI_List(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.signIn(t, "alice")

	rr := app.do(http.MethodGet, "/api/competencies", "", alice)
	require.Equal(t, http.StatusOK, rr.Code)

	var competencies []model.Competency
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&competencies))
	require.Len(t, competencies, 8)
	assert.Equal(t, "Communication", competencies[0].Skill)

	// Catalog requires a session like the rest of the API.
	rr = app.do(http.MethodGet, "/api/competencies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
