package internal

import (
	"net"
	"sync"
	"time"
)

// Transport 會話的底層位元組流
//
// 抽象出傳輸層讓同一套房間邏輯同時服務原生 TCP 連接
// 與 WebSocket 閘道（見 websocket.go）。
type Transport interface {
	// WriteString 將已編碼好的文字寫給客戶端
	WriteString(message string) error
	// Close 關閉底層連接（可重複呼叫）
	Close() error
	// RemoteAddr 對端位址（日誌用）
	RemoteAddr() string
}

// tcpTransport 原生 TCP 傳輸
type tcpTransport struct {
	conn         net.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
	closeOnce    sync.Once
	closeErr     error
}

func newTCPTransport(conn net.Conn, writeTimeout time.Duration) *tcpTransport {
	return &tcpTransport{
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

func (t *tcpTransport) WriteString(message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := t.conn.Write([]byte(message))
	return err
}

func (t *tcpTransport) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func (t *tcpTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}
