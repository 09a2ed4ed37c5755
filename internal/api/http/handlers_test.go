package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GriffinCanCode/navcore/internal/domain/callback"
	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
	"github.com/GriffinCanCode/navcore/internal/domain/session"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type page struct {
	*navigation.Base
}

type env struct {
	router     *gin.Engine
	dispatcher *navigation.Dispatcher
	callbacks  *callback.Manager
	store      storage.BlobStore
}

func newEnv(t *testing.T, withSessions bool) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := monitoring.NewMetrics()
	callbacks := callback.NewManager(nil, metrics)
	dispatcher := navigation.NewDispatcher(callbacks, navigation.WithMetrics(metrics))

	e := &env{dispatcher: dispatcher, callbacks: callbacks, store: storage.NewMemory()}
	var sessions *session.Manager
	if withSessions {
		var err error
		sessions, err = session.NewManager(dispatcher, e.store, nil, metrics)
		require.NoError(t, err)
	}

	e.router = gin.New()
	NewHandlers(dispatcher, callbacks, sessions, metrics, nil).Register(e.router)
	return e
}

func (e *env) open(typ navigation.Type, ids ...string) {
	for _, vmID := range ids {
		vm := &page{Base: navigation.NewBase(vmID)}
		e.dispatcher.CommitNavigated(navigation.NewContext(typ, navigation.ModeNew, nil, vm, nil))
	}
}

func (e *env) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func TestRootAndHealth(t *testing.T) {
	e := newEnv(t, true)
	e.open(navigation.TypePage, "home")

	code, body := e.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "navcore", body["service"])

	code, body = e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	registry := body["registry"].(map[string]any)
	assert.EqualValues(t, 1, registry["open_types"])
	assert.EqualValues(t, 1, registry["tracked"])
	assert.Equal(t, true, body["sessions"].(map[string]any)["enabled"])
	assert.EqualValues(t, 1, body["navigations"].(map[string]any)["navigated"])
}

func TestNavigationEndpoints(t *testing.T) {
	e := newEnv(t, false)
	e.open(navigation.TypePage, "home", "details")
	e.open(navigation.NewType("inspector", navigation.OperationWindow), "props")

	code, body := e.do(t, http.MethodGet, "/navigation/types", "")
	require.Equal(t, http.StatusOK, code)
	types := body["types"].([]any)
	require.Len(t, types, 2)
	assert.Equal(t, "inspector:window", types[0].(map[string]any)["key"])
	assert.Equal(t, "page:page", types[1].(map[string]any)["key"])

	code, body = e.do(t, http.MethodGet, "/navigation/opened", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["total"])
	pages := body["opened"].(map[string]any)["page:page"].([]any)
	require.Len(t, pages, 2)
	assert.Equal(t, "home", pages[0].(map[string]any)["view_model"])
	assert.Equal(t, "details", pages[1].(map[string]any)["view_model"])

	code, body = e.do(t, http.MethodGet, "/navigation/opened/inspector", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "window", body["type"].(map[string]any)["operation"])
	assert.Len(t, body["opened"].([]any), 1)

	code, body = e.do(t, http.MethodGet, "/navigation/opened/inspector?operation=tab", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["opened"].([]any))

	code, body = e.do(t, http.MethodGet, "/navigation/opened/unknown", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["opened"].([]any))

	code, _ = e.do(t, http.MethodGet, "/navigation/opened/bad%20name", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestListOpenedKeepsTypesSharingAName(t *testing.T) {
	e := newEnv(t, false)
	e.open(navigation.TypePage, "home", "details")
	e.open(navigation.NewType("page", ""), "overlay")

	code, body := e.do(t, http.MethodGet, "/navigation/opened", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["total"])

	opened := body["opened"].(map[string]any)
	require.Len(t, opened, 2)
	assert.Len(t, opened["page:page"].([]any), 2)
	overlay := opened["page"].([]any)
	require.Len(t, overlay, 1)
	assert.Equal(t, "overlay", overlay[0].(map[string]any)["view_model"])
	assert.Equal(t, "page", overlay[0].(map[string]any)["type"])

	code, body = e.do(t, http.MethodGet, "/navigation/types", "")
	require.Equal(t, http.StatusOK, code)
	types := body["types"].([]any)
	require.Len(t, types, 2)
	assert.Equal(t, "page", types[0].(map[string]any)["key"])
	assert.Equal(t, "page:page", types[1].(map[string]any)["key"])
}

func TestCallbacksEndpoint(t *testing.T) {
	e := newEnv(t, false)
	vm := &page{Base: navigation.NewBase("dialog")}
	e.callbacks.Expect(navigation.OperationWindow, vm)

	code, body := e.do(t, http.MethodGet, "/callbacks", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["pending"])
	assert.EqualValues(t, 1, body["by_operation"].(map[string]any)["window"])
}

func TestSessionEndpoints(t *testing.T) {
	e := newEnv(t, true)
	e.open(navigation.TypePage, "home")

	code, body := e.do(t, http.MethodPost, "/sessions", `{"name":"morning"}`)
	require.Equal(t, http.StatusCreated, code)
	saved := body["session"].(map[string]any)
	sessionID := saved["id"].(string)
	assert.Equal(t, "morning", saved["name"])
	assert.EqualValues(t, 1, saved["entries"])

	code, body = e.do(t, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["sessions"].([]any), 1)

	code, body = e.do(t, http.MethodGet, "/sessions/"+sessionID, "")
	require.Equal(t, http.StatusOK, code)
	entries := body["session"].(map[string]any)["entries"].([]any)
	assert.Equal(t, "home", entries[0].(map[string]any)["view_model_id"])

	code, _ = e.do(t, http.MethodDelete, "/sessions/"+sessionID, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(t, http.MethodGet, "/sessions/"+sessionID, "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = e.do(t, http.MethodDelete, "/sessions/"+sessionID, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSessionValidation(t *testing.T) {
	e := newEnv(t, true)

	code, _ := e.do(t, http.MethodPost, "/sessions", `{"name":"bad\u0007name"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodPost, "/sessions", `not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodGet, "/sessions/"+strings.Repeat("x", MaxIDLength+1), "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestSessionsDisabled(t *testing.T) {
	e := newEnv(t, false)

	for _, path := range []string{"/sessions", "/sessions/abc"} {
		code, _ := e.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, code, path)
	}
}

// brokenStore fails every operation
type brokenStore struct{ *storage.Memory }

func (brokenStore) Put(string, []byte) error { return context.DeadlineExceeded }

func TestOpenBreakerIsUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	callbacks := callback.NewManager(nil, nil)
	dispatcher := navigation.NewDispatcher(callbacks)
	breaker := resilience.New("storage", resilience.Settings{Failures: 1, IsFailure: storage.IsBackendFailure})
	sessions, err := session.NewManager(dispatcher, storage.WithBreaker(brokenStore{storage.NewMemory()}, breaker), nil, nil)
	require.NoError(t, err)

	router := gin.New()
	NewHandlers(dispatcher, callbacks, sessions, nil, nil).Register(router)
	e := &env{router: router}

	code, _ := e.do(t, http.MethodPost, "/sessions", `{"name":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	code, _ = e.do(t, http.MethodPost, "/sessions", `{"name":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("", "name"))
	assert.NoError(t, ValidateName("Café layout", "name"))
	assert.Error(t, ValidateName(strings.Repeat("a", MaxNameLength+1), "name"))
	assert.Error(t, ValidateName("tab\tseparated", "name"))
	assert.Error(t, ValidateName(string([]byte{0xff}), "name"))
}
