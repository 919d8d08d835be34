package internal

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Session 一個已接受連接的會話狀態
//
// 生命週期（狀態機）：
//
//	Connected-NoName（新 Lobby）→ LoggedIn（共享 Lounge）
//	  → LoggedOut（新 Lobby，僅能從 LoggedIn 經 /logout 到達）
//	  → Closed（終態：斷線、/quit 或 EOF，任何狀態皆可到達）
//
// 會話是自身所在房間的唯一權威：只有 Session 持有對當前房間的
// 引用，房間僅暴露成員變更入口，避免雙向強引用的所有權循環。
type Session struct {
	id        string
	server    *Server
	transport Transport
	logger    *slog.Logger

	mu   sync.RWMutex
	name string
	room Room
}

// NewSession 創建會話（連接被接受時呼叫）
func NewSession(server *Server, transport Transport, logger *slog.Logger) *Session {
	id := uuid.New().String()
	return &Session{
		id:        id,
		server:    server,
		transport: transport,
		logger: logger.With(
			"session_id", id,
			"remote_addr", transport.RemoteAddr()),
	}
}

// ID 會話唯一識別碼
func (s *Session) ID() string {
	return s.id
}

// Name 顯示名稱；登入成功前為空字串
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Session) setName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// Room 會話當前所在的房間
func (s *Session) Room() Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

// EnterRoom 轉換房間：先離開當前房間（若有），再加入新房間。
// 順序保證會話任一時刻至多屬於一個房間。
func (s *Session) EnterRoom(room Room) {
	if current := s.Room(); current != nil {
		current.Remove(s)
	}

	s.mu.Lock()
	s.room = room
	s.mu.Unlock()

	room.Add(s)
}

// Send 將文字直接寫給此會話的客戶端。
// 寫入失敗屬於傳輸錯誤：記錄日誌並關閉連接，不向外傳播。
func (s *Session) Send(message string) {
	if err := s.transport.WriteString(message); err != nil {
		s.logger.Warn("寫入客戶端失敗", "error", err)
		s.Close()
	}
}

// Close 關閉底層連接
func (s *Session) Close() {
	if err := s.transport.Close(); err != nil {
		s.logger.Debug("關閉連接失敗", "error", err)
	}
}

// Teardown 連接結束時的盡力清理：離開房間、釋放名稱、關閉連接。
// 任一步驟失敗只記錄日誌，不影響其他連接。
func (s *Session) Teardown() {
	if room := s.Room(); room != nil {
		room.Remove(s)
	}
	if name := s.Name(); name != "" {
		s.server.ReleaseName(name, s)
	}
	s.Close()
}
