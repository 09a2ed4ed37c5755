package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/navcore/internal/domain/navigation"
	"github.com/GriffinCanCode/navcore/internal/infrastructure/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type screen struct {
	*navigation.Base
}

func newScreen(id string) *screen {
	return &screen{Base: navigation.NewBase(id)}
}

func startServer(t *testing.T, d *navigation.Dispatcher, metrics *monitoring.Metrics) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/stream", NewHandler(d, 8, metrics, nil).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestStreamDeliversNavigations(t *testing.T) {
	d := navigation.NewDispatcher(navigation.CallbackManagerFunc(func(navigation.OperationResult) {}))
	metrics := monitoring.NewMetrics()
	conn := dial(t, startServer(t, d, metrics))

	var welcome Message
	require.NoError(t, conn.ReadJSON(&welcome))
	assert.Equal(t, "system", welcome.Type)
	assert.NotEmpty(t, welcome.ConnectionID)
	require.Eventually(t, func() bool { return d.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	home := newScreen("home")
	d.CommitNavigated(navigation.NewContext(navigation.TypePage, navigation.ModeNew, nil, home, nil))
	d.ReportCanceled(navigation.NewContext(navigation.TypePage, navigation.ModeClose, home, nil, nil))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "navigated", msg.Type)
	assert.Equal(t, "page:page", msg.NavigationType)
	assert.Equal(t, "New", msg.Mode)
	assert.Equal(t, "home", msg.To)
	assert.False(t, msg.Canceled)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Close", msg.Mode)
	assert.Equal(t, "home", msg.From)
	assert.True(t, msg.Canceled)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WSConnections))
}

func TestStreamPing(t *testing.T) {
	d := navigation.NewDispatcher(navigation.CallbackManagerFunc(func(navigation.OperationResult) {}))
	conn := dial(t, startServer(t, d, nil))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "ping"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "navigate"}))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "error", msg.Type)
}

func TestDisconnectUnsubscribes(t *testing.T) {
	d := navigation.NewDispatcher(navigation.CallbackManagerFunc(func(navigation.OperationResult) {}))
	conn := dial(t, startServer(t, d, nil))

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Eventually(t, func() bool { return d.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	assert.Eventually(t, func() bool { return d.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestStreamModeFilter(t *testing.T) {
	d := navigation.NewDispatcher(navigation.CallbackManagerFunc(func(navigation.OperationResult) {}))
	conn := dial(t, startServer(t, d, nil)+"?modes=Close,Back")

	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	require.Eventually(t, func() bool { return d.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	home := newScreen("home")
	d.CommitNavigated(navigation.NewContext(navigation.TypePage, navigation.ModeNew, nil, home, nil))
	d.CommitNavigated(navigation.NewContext(navigation.TypePage, navigation.ModeClose, home, nil, nil))

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "Close", msg.Mode, "New is filtered out")
}

func TestStreamRejectsUnknownMode(t *testing.T) {
	d := navigation.NewDispatcher(navigation.CallbackManagerFunc(func(navigation.OperationResult) {}))
	_, resp, err := websocket.DefaultDialer.Dial(startServer(t, d, nil)+"?modes=Sideways", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, d.Subscribers())
}

func TestParseModes(t *testing.T) {
	modes, err := parseModes("")
	require.NoError(t, err)
	assert.Nil(t, modes)

	modes, err = parseModes("New, Refresh")
	require.NoError(t, err)
	assert.Equal(t, map[navigation.Mode]bool{navigation.ModeNew: true, navigation.ModeRefresh: true}, modes)

	_, err = parseModes("New,")
	assert.Error(t, err)
}

func TestOfferNeverBlocks(t *testing.T) {
	ch := make(chan Message, 1)
	assert.True(t, offer(ch, Message{Type: "a"}))
	assert.False(t, offer(ch, Message{Type: "b"}))
	assert.Equal(t, "a", (<-ch).Type)
}

func TestFromEvent(t *testing.T) {
	nav := navigation.NewContext(navigation.TypeWindow, navigation.ModeBack, newScreen("dialog"), newScreen("main"), nil)

	msg := FromEvent(navigation.NavigatedEvent{Context: nav, Err: errors.New("platform refused")})
	assert.Equal(t, "navigated", msg.Type)
	assert.Equal(t, "window:window", msg.NavigationType)
	assert.Equal(t, "Back", msg.Mode)
	assert.Equal(t, "dialog", msg.From)
	assert.Equal(t, "main", msg.To)
	assert.Equal(t, "platform refused", msg.Error)
	assert.Positive(t, msg.Timestamp)

	msg = FromEvent(navigation.NavigatedEvent{Context: navigation.NewContext(navigation.TypePage, navigation.ModeNew, nil, nil, nil), Canceled: true})
	assert.Empty(t, msg.From)
	assert.True(t, msg.Canceled)
}
