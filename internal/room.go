package internal

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// 系統設計問題：
//   多個併發連接共享同一個聊天房間，如何在 goroutine per
//   connection 模型下保證成員變更與廣播的一致性？
//
// 核心挑戰：
//   1. 併發控制：加入、離開、廣播可能同時發生
//   2. 廣播一致性：同一次廣播的所有接收者必須看到
//      相同的訊息內容與時間戳（時間戳只計算一次）
//   3. 慢客戶端隔離：單一連接的寫入失敗不能拖垮整個房間
//
// 設計方案：
//   ✅ RWMutex - 成員映射讀多寫少
//   ✅ 先快照再投遞 - 廣播時不持鎖寫 socket
//   ✅ 寫入失敗由 Session 自行關閉，房間不傳播錯誤

// Room 房間的公共契約（Lobby 與 Lounge 兩種變體）
type Room interface {
	// Add 加入成員；Lounge 向其他成員廣播入場通知，
	// Lobby 只向加入者發送私有歡迎訊息
	Add(s *Session)
	// Remove 移除成員；成員不存在時記錄日誌，不視為錯誤
	Remove(s *Session)
	// Broadcast 向除 exclude 以外的所有成員投遞帶時間戳的訊息
	Broadcast(message string, exclude *Session)
	// Quit 將會話移出房間、釋放名稱並關閉連接；任何房間皆可安全呼叫
	Quit(s *Session)
	// Contains 回報會話是否為本房間成員
	Contains(s *Session) bool
	// Members 當前成員的顯示名稱（已排序）
	Members() []string

	// 命令分派（見 dispatch.go）
	commands() map[string]command
	unknown(s *Session, name string)
}

// baseRoom 兩種房間變體共享的成員管理與廣播
type baseRoom struct {
	server *Server
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session // session ID -> Session
}

func newBaseRoom(server *Server, logger *slog.Logger) baseRoom {
	return baseRoom{
		server:   server,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// add 插入成員
func (r *baseRoom) add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID()] = s
	r.mu.Unlock()
}

// remove 移除成員，回報是否確實移除。
// 移除不存在的成員屬於狀態錯誤：記錄後吞掉，成員映射不變。
func (r *baseRoom) remove(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID()]; !ok {
		r.logger.Info("會話不在房間內，略過移除",
			"session_id", s.ID(),
			"name", s.Name())
		return false
	}
	delete(r.sessions, s.ID())
	return true
}

// Broadcast 帶時間戳廣播。
// 時間戳對整次廣播只計算一次，所有接收者看到相同內容。
func (r *baseRoom) Broadcast(message string, exclude *Session) {
	stamped := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message)

	r.mu.RLock()
	targets := make([]*Session, 0, len(r.sessions))
	for _, member := range r.sessions {
		if member == exclude {
			continue
		}
		targets = append(targets, member)
	}
	r.mu.RUnlock()

	// 不持鎖投遞：單一成員的寫入失敗由其 Session 自行處理
	for _, member := range targets {
		member.Send(stamped)
	}
}

// quit 共享的退出流程：離開房間 → 釋放名稱 → 關閉連接。
// room 參數讓變體自己的 Remove（含離場廣播）被呼叫。
// 釋放後立即清空會話名稱，之後的 Teardown 不會再碰註冊表。
func (r *baseRoom) quit(room Room, s *Session) {
	room.Remove(s)
	if name := s.Name(); name != "" {
		r.server.ReleaseName(name, s)
		s.setName("")
	}
	s.Close()
}

// Contains 回報會話是否為本房間成員
func (r *baseRoom) Contains(s *Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[s.ID()]
	return ok
}

// Members 當前成員的顯示名稱（已排序）
func (r *baseRoom) Members() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.sessions))
	for _, member := range r.sessions {
		if name := member.Name(); name != "" {
			names = append(names, name)
		}
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Len 當前成員數
func (r *baseRoom) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// help 兩種房間共享的 /help 命令
func (r *baseRoom) help(s *Session, _ []string) {
	s.Send(helpMessage)
}

// helpMessage 可用命令清單（/help 的回覆，不帶時間戳）
const helpMessage = "Available commands:" + lineTerminator +
	lineTerminator +
	"/look     - Display users currently in this room" + lineTerminator +
	"/who      - Display users currently logged in" + lineTerminator +
	"/logout   - Log out and enter to Lobby" + lineTerminator +
	"/quit     - Close the connection" + lineTerminator
