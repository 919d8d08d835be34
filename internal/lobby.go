package internal

import (
	"fmt"
	"strings"
)

// Lobby 登入房間
//
// 每個連接獨享一個 Lobby 實例（不共享），唯一職責是把完成
// /login 的會話轉送到共享的 Lounge。Lobby 的入場不廣播：
// 房間裡永遠只有加入者自己，改為發送私有歡迎訊息。
type Lobby struct {
	baseRoom
	cmds map[string]command
}

// NewLobby 創建登入房間
func NewLobby(server *Server) *Lobby {
	l := &Lobby{
		baseRoom: newBaseRoom(server, server.logger.With("room", "lobby")),
	}
	l.cmds = map[string]command{
		"login": {arity: 1, handler: l.login},
		"help":  {arity: 0, handler: l.help},
		"quit":  {arity: 0, handler: l.quitCommand},
	}
	return l
}

// Add 加入成員並發送私有歡迎訊息（不廣播）
func (l *Lobby) Add(s *Session) {
	l.add(s)
	s.Send(fmt.Sprintf(" * Welcome to %s * %s%s"+
		"Use '/login <name>' to log in%s",
		l.server.Name(), lineTerminator, lineTerminator, lineTerminator))
}

// Remove 移除成員；Lobby 沒有其他人可通知，不廣播離場
func (l *Lobby) Remove(s *Session) {
	l.remove(s)
}

// Quit 退出：移出房間、釋放名稱（若已登入）、關閉連接
func (l *Lobby) Quit(s *Session) {
	l.quit(l, s)
}

func (l *Lobby) commands() map[string]command {
	return l.cmds
}

// unknown 無論輸入什麼，一律提示登入方式
func (l *Lobby) unknown(s *Session, _ string) {
	s.Send("Use '/login <name>' to log in." + lineTerminator)
}

// login 認領名稱並進入 Lounge。
// 名稱檢查與註冊必須是單一臨界區（見 Server.ClaimName），
// 兩個連接同時搶同一名稱時恰好一個成功。
func (l *Lobby) login(s *Session, args []string) {
	name := strings.TrimSpace(args[0])

	switch {
	case name == "":
		s.Send("Please enter a name." + lineTerminator)

	case !l.server.ClaimName(name, s):
		s.Send(fmt.Sprintf("The name '%s' is taken.%s", name, lineTerminator))
		s.Send("Please try again." + lineTerminator)

	default:
		s.setName(name)
		s.EnterRoom(l.server.Lounge())
	}
}

func (l *Lobby) quitCommand(s *Session, _ []string) {
	l.Quit(s)
}
