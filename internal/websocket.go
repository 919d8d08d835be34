package internal

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// 系統設計問題：
//   如何讓瀏覽器客戶端走同一套 Lobby/Lounge 協議，
//   而不為 WebSocket 另寫一份房間邏輯？
//
// 設計方案：
//   ✅ Transport 抽象 - wsTransport 與 tcpTransport 可互換，
//      會話與房間完全不感知傳輸類型
//   ✅ 緩衝發送 channel + writePump - 慢客戶端不阻塞廣播
//   ✅ Ping/Pong 心跳（54s/60s）- 檢測死連接
//   ✅ 每則文字訊息視為一塊輸入餵入同一個組幀器與分派器

const (
	// wsWriteTimeout 單次 WebSocket 寫入的期限
	wsWriteTimeout = 10 * time.Second
	// wsPongTimeout 讀取端超時；超過此時間未收到任何訊息
	// （含 Pong）即關閉連接
	wsPongTimeout = 60 * time.Second
	// wsPingInterval 發送 Ping 的間隔，略小於讀取超時留出餘量
	wsPingInterval = 54 * time.Second
	// wsSendBuffer 發送緩衝的訊息數
	wsSendBuffer = 256
)

// errTransportClosed 傳輸已關閉
var errTransportClosed = errors.New("transport closed")

// errSendBufferFull 發送緩衝已滿（慢客戶端）
var errSendBufferFull = errors.New("websocket send buffer full")

// Gateway WebSocket 閘道
//
// 將升級後的 WebSocket 連接橋接進與 TCP 相同的協議流程：
// 創建會話 → 進入新 Lobby → 組幀 → 命令分派。
type Gateway struct {
	server   *Server
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewGateway 創建 WebSocket 閘道
func NewGateway(server *Server, logger *slog.Logger) *Gateway {
	return &Gateway{
		server: server,
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 在生產環境應該檢查來源
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// ServeWS 處理一個 WebSocket 連接的完整生命週期
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error("升級 WebSocket 失敗", "error", err)
		return
	}

	transport := newWSTransport(conn, g.logger)
	go transport.writePump()

	s := NewSession(g.server, transport, g.logger)
	g.server.trackSession(s)
	defer g.server.untrackSession(s)

	s.logger.Info("WebSocket 客戶端已連接")
	s.EnterRoom(NewLobby(g.server))

	g.readPump(s, transport)
	s.Teardown()
}

// readPump 讀取客戶端訊息並餵入組幀器，直到連接關閉
func (g *Gateway) readPump(s *Session, t *wsTransport) {
	if err := t.conn.SetReadDeadline(time.Now().Add(wsPongTimeout)); err != nil {
		s.logger.Error("設置讀取期限失敗", "error", err)
	}
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	framer := &LineFramer{}
	for {
		messageType, message, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Info("WebSocket 讀取錯誤", "error", err)
			} else {
				s.logger.Info("WebSocket 客戶端已斷開")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		// 沒帶行分隔符的訊息視為一整行
		if !bytes.HasSuffix(message, []byte(lineTerminator)) {
			message = append(message, lineTerminator...)
		}

		lines, ferr := framer.Feed(message)
		for _, line := range lines {
			s.Dispatch(line)
		}
		if ferr != nil {
			s.logger.Warn("輸入不是合法的 UTF-8，關閉連接", "error", ferr)
			return
		}
	}
}

// wsTransport WebSocket 傳輸
//
// 所有寫入經由緩衝 channel 交給 writePump 串行處理；
// 緩衝滿時回報錯誤（慢客戶端由 Session 關閉），不阻塞廣播。
type wsTransport struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func newWSTransport(conn *websocket.Conn, logger *slog.Logger) *wsTransport {
	return &wsTransport{
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (t *wsTransport) WriteString(message string) error {
	select {
	case <-t.done:
		return errTransportClosed
	case t.send <- []byte(message):
		return nil
	default:
		return errSendBufferFull
	}
}

func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
	})
	return nil
}

func (t *wsTransport) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// writePump 串行寫入訊息並維持心跳，直到傳輸關閉或寫入失敗
func (t *wsTransport) writePump() {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		t.conn.Close()
	}()

	for {
		select {
		case message := <-t.send:
			if err := t.write(websocket.TextMessage, message); err != nil {
				return
			}

			// 批量發送隊列中的訊息
			n := len(t.send)
			for i := 0; i < n; i++ {
				if err := t.write(websocket.TextMessage, <-t.send); err != nil {
					t.logger.Error("發送訊息失敗", "error", err)
					return
				}
			}

		case <-ticker.C:
			if err := t.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-t.done:
			// 嘗試發送關閉訊息，忽略錯誤（連接可能已關閉）
			_ = t.write(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (t *wsTransport) write(messageType int, payload []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		t.logger.Error("設置寫入期限失敗", "error", err)
	}
	return t.conn.WriteMessage(messageType, payload)
}
