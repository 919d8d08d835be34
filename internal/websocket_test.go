package internal_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/koopa0/system-design/14-chat-server/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startGateway 啟動帶 WebSocket 閘道的測試服務器
func startGateway(t *testing.T) (*internal.Server, *httptest.Server) {
	t.Helper()

	srv := internal.NewServer("Go Chat", testLogger())
	gateway := internal.NewGateway(srv, testLogger())
	handler := internal.NewHandler(srv, gateway, testLogger())

	ts := httptest.NewServer(handler.Routes())
	t.Cleanup(ts.Close)

	return srv, ts
}

// dialWS 建立 WebSocket 連接
func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { ws.Close() })

	return ws
}

// readText 讀取一則文字訊息，帶超時
func readText(t *testing.T, ws *websocket.Conn) string {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := ws.ReadMessage()
	require.NoError(t, err)
	return string(message)
}

// TestGateway_WelcomeAndLogin WebSocket 客戶端走同一套協議
func TestGateway_WelcomeAndLogin(t *testing.T) {
	srv, ts := startGateway(t)

	ws := dialWS(t, ts)
	welcome := readText(t, ws)
	assert.Contains(t, welcome, " * Welcome to Go Chat * ")
	assert.Contains(t, welcome, "Use '/login <name>' to log in")

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("/login carol")))

	require.Eventually(t, func() bool {
		return srv.UserCount() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"carol"}, srv.Users())
}

// TestGateway_ChatBetweenClients 兩個 WebSocket 客戶端互相聊天
func TestGateway_ChatBetweenClients(t *testing.T) {
	srv, ts := startGateway(t)

	carol := dialWS(t, ts)
	readText(t, carol) // 歡迎訊息
	require.NoError(t, carol.WriteMessage(websocket.TextMessage, []byte("/login carol")))
	require.Eventually(t, func() bool {
		return srv.UserCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	dave := dialWS(t, ts)
	readText(t, dave) // 歡迎訊息
	require.NoError(t, dave.WriteMessage(websocket.TextMessage, []byte("/login dave")))

	// carol 收到 dave 的入場通知
	arrival := readText(t, carol)
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] dave has entered the room\.\r\n$`, arrival)

	// 聊天訊息廣播給對方，發送者不回音
	require.NoError(t, carol.WriteMessage(websocket.TextMessage, []byte("hi dave")))
	message := readText(t, dave)
	assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] <carol> hi dave\r\n$`, message)
}

// TestGateway_Quit /quit 觸發服務器端關閉
func TestGateway_Quit(t *testing.T) {
	srv, ts := startGateway(t)

	ws := dialWS(t, ts)
	readText(t, ws)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("/login erin")))
	require.Eventually(t, func() bool {
		return srv.UserCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("/quit")))

	// 服務器發送關閉訊息後中斷連接
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	require.Eventually(t, func() bool {
		return srv.UserCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}

// TestHandler_Health 健康檢查端點
func TestHandler_Health(t *testing.T) {
	_, ts := startGateway(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Go Chat", body["server"])
}

// TestHandler_Stats 統計端點反映登入人數
func TestHandler_Stats(t *testing.T) {
	srv, ts := startGateway(t)

	s, transport := newTestSession(t, srv)
	loginSession(t, s, transport, "alice")

	resp, err := http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Go Chat", body["server_name"])
	assert.Equal(t, float64(1), body["logged_in"])
	assert.Equal(t, float64(1), body["lounge_members"])
}
