package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sort"
	"sync"
	"time"
)

// readBufferSize 每次從連接讀取的最大位元組數
const readBufferSize = 4096

// defaultWriteTimeout 對單一客戶端寫入的超時；
// 超時視為傳輸錯誤，僅關閉該連接
const defaultWriteTimeout = 10 * time.Second

// Server 聊天服務器
//
// 進程級的單例狀態：
//   - users：全服務器已登入名稱的唯一權威（名稱 -> 會話）
//   - lounge：所有已登入使用者共享的聊天房間
//
// 每個接受的連接由獨立的 goroutine 服務，因此 users 映射與
// 各房間的成員映射都以互斥鎖保護；ClaimName 的檢查加插入是
// 單一臨界區，避免兩個會話同時認領同一名稱。
type Server struct {
	name   string
	logger *slog.Logger

	mu    sync.RWMutex
	users map[string]*Session

	lounge *Lounge

	sessMu   sync.Mutex
	sessions map[string]*Session // 所有存活會話（關閉用）

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started time.Time
}

// NewServer 創建聊天服務器
func NewServer(name string, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &Server{
		name:     name,
		logger:   logger,
		users:    make(map[string]*Session),
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cancel:   cancel,
		started:  time.Now(),
	}
	srv.lounge = NewLounge(srv)
	return srv
}

// Name 服務器顯示名稱（Lobby 歡迎訊息用）
func (srv *Server) Name() string {
	return srv.name
}

// Lounge 共享的主聊天房間
func (srv *Server) Lounge() *Lounge {
	return srv.lounge
}

// ClaimName 原子地認領名稱：名稱未被使用時插入註冊表並回報
// 成功。檢查與插入在同一臨界區內，併發認領同名時恰好一個成功。
func (srv *Server) ClaimName(name string, s *Session) bool {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if _, taken := srv.users[name]; taken {
		return false
	}
	srv.users[name] = s
	srv.logger.Info("名稱已認領", "name", name, "session_id", s.ID())
	return true
}

// ReleaseName 從註冊表移除 s 持有的名稱。
// 只有當前持有者能釋放：/quit 釋放後讀取循環結束時 Teardown 會
// 再次嘗試釋放，期間名稱可能已被其他會話認領，不得誤刪。
// 名稱不存在或屬於其他會話：記錄後吞掉。
func (srv *Server) ReleaseName(name string, s *Session) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	holder, ok := srv.users[name]
	if !ok {
		srv.logger.Info("名稱不在註冊表內，略過釋放", "name", name)
		return
	}
	if holder != s {
		srv.logger.Info("名稱已屬於其他會話，略過釋放",
			"name", name, "session_id", s.ID())
		return
	}
	delete(srv.users, name)
	srv.logger.Info("名稱已釋放", "name", name)
}

// Users 全服務器已登入的名稱（已排序）
func (srv *Server) Users() []string {
	srv.mu.RLock()
	names := make([]string, 0, len(srv.users))
	for name := range srv.users {
		names = append(names, name)
	}
	srv.mu.RUnlock()

	sort.Strings(names)
	return names
}

// UserCount 已登入的使用者數
func (srv *Server) UserCount() int {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	return len(srv.users)
}

// SessionCount 存活連接數（含未登入）
func (srv *Server) SessionCount() int {
	srv.sessMu.Lock()
	defer srv.sessMu.Unlock()
	return len(srv.sessions)
}

// Uptime 服務器已運行的時間
func (srv *Server) Uptime() time.Duration {
	return time.Since(srv.started)
}

// Serve 在指定的監聽器上接受連接直到服務器停止。
// 每個接受的連接由獨立的 goroutine 服務。
func (srv *Server) Serve(listener net.Listener) error {
	srv.wg.Add(1)
	go func() {
		defer srv.wg.Done()
		<-srv.ctx.Done()
		listener.Close()
	}()

	srv.logger.Info("聊天服務器開始監聽", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-srv.ctx.Done():
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			srv.logger.Warn("接受連接失敗", "error", err)
			continue
		}

		srv.wg.Add(1)
		go func() {
			defer srv.wg.Done()
			srv.handleConn(conn)
		}()
	}
}

// handleConn 單一 TCP 連接的完整生命週期：
// 創建會話 → 進入新 Lobby → 讀取循環（組幀 + 分派）→ 盡力清理
func (srv *Server) handleConn(conn net.Conn) {
	transport := newTCPTransport(conn, defaultWriteTimeout)
	s := NewSession(srv, transport, srv.logger)

	srv.trackSession(s)
	defer srv.untrackSession(s)

	s.logger.Info("客戶端已連接")
	s.EnterRoom(NewLobby(srv))

	framer := &LineFramer{}
	buf := make([]byte, readBufferSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			lines, ferr := framer.Feed(buf[:n])
			for _, line := range lines {
				s.Dispatch(line)
			}
			if ferr != nil {
				// 解碼失敗是連接級錯誤：關閉連接而非讓亂碼進入分派
				s.logger.Warn("輸入不是合法的 UTF-8，關閉連接", "error", ferr)
				break
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("客戶端已斷開")
			} else if !errors.Is(err, net.ErrClosed) {
				s.logger.Info("讀取連接失敗", "error", err)
			}
			break
		}
	}

	s.Teardown()
}

// trackSession 登記存活會話（關閉時統一清理）
func (srv *Server) trackSession(s *Session) {
	srv.sessMu.Lock()
	srv.sessions[s.ID()] = s
	srv.sessMu.Unlock()
}

func (srv *Server) untrackSession(s *Session) {
	srv.sessMu.Lock()
	delete(srv.sessions, s.ID())
	srv.sessMu.Unlock()
}

// Shutdown 優雅關閉：停止接受新連接、關閉所有存活會話，
// 並在 ctx 期限內等待連接 goroutine 結束。
func (srv *Server) Shutdown(ctx context.Context) error {
	srv.cancel()

	srv.sessMu.Lock()
	for _, s := range srv.sessions {
		s.Close()
	}
	srv.sessMu.Unlock()

	done := make(chan struct{})
	go func() {
		srv.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		srv.logger.Info("聊天服務器已停止")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
