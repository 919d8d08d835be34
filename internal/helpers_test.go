package internal_test

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/koopa0/system-design/14-chat-server/internal"
	"github.com/stretchr/testify/require"
)

// 創建測試用的 logger
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // 測試時只顯示錯誤
	}))
}

// memTransport 記憶體傳輸（單元測試用）
type memTransport struct {
	mu     sync.Mutex
	writes []string
	closed bool
}

func (t *memTransport) WriteString(message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = append(t.writes, message)
	return nil
}

func (t *memTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *memTransport) RemoteAddr() string {
	return "mem:0"
}

// Writes 目前為止的所有寫入
func (t *memTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}

// Output 所有寫入串接後的輸出
func (t *memTransport) Output() string {
	return strings.Join(t.Writes(), "")
}

// Reset 清空已記錄的寫入
func (t *memTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = nil
}

// Closed 傳輸是否已被關閉
func (t *memTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// newTestSession 創建接在記憶體傳輸上的會話並放入新 Lobby
func newTestSession(t *testing.T, srv *internal.Server) (*internal.Session, *memTransport) {
	t.Helper()
	transport := &memTransport{}
	s := internal.NewSession(srv, transport, testLogger())
	s.EnterRoom(internal.NewLobby(srv))
	return s, transport
}

// loginSession 讓會話完成登入並清空輸出
func loginSession(t *testing.T, s *internal.Session, transport *memTransport, name string) {
	t.Helper()
	s.Dispatch("/login " + name)
	require.Equal(t, name, s.Name())
	transport.Reset()
}
