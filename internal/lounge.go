package internal

import (
	"fmt"
)

// Lounge 主聊天房間
//
// 全服務器唯一的共享實例（由 Server 持有）。提供聊天廣播
// 與使用者命令：say、look、who、logout。
type Lounge struct {
	baseRoom
	cmds map[string]command
}

// NewLounge 創建主聊天房間
func NewLounge(server *Server) *Lounge {
	l := &Lounge{
		baseRoom: newBaseRoom(server, server.logger.With("room", "lounge")),
	}
	l.cmds = map[string]command{
		"say":    {arity: 1, handler: l.say},
		"look":   {arity: 0, handler: l.look},
		"who":    {arity: 0, handler: l.who},
		"logout": {arity: 0, handler: l.logout},
		"help":   {arity: 0, handler: l.help},
		"quit":   {arity: 0, handler: l.quitCommand},
	}
	return l
}

// Add 加入成員並向房間裡的其他人廣播入場通知
func (l *Lounge) Add(s *Session) {
	l.add(s)
	l.Broadcast(fmt.Sprintf("%s has entered the room.%s", s.Name(), lineTerminator), s)
}

// Remove 移除成員並向剩餘成員廣播離場通知
func (l *Lounge) Remove(s *Session) {
	if l.remove(s) {
		l.Broadcast(fmt.Sprintf("%s has left the room.%s", s.Name(), lineTerminator), nil)
	}
}

// Quit 退出：移出房間、釋放名稱、關閉連接
func (l *Lounge) Quit(s *Session) {
	l.quit(l, s)
}

func (l *Lounge) commands() map[string]command {
	return l.cmds
}

// unknown 未知命令的兩行回覆
func (l *Lounge) unknown(s *Session, name string) {
	s.Send(fmt.Sprintf("Unknown command: '%s'%s", name, lineTerminator))
	s.Send("See a list of commands with '/help'" + lineTerminator)
}

// say 把整行聊天內容廣播給除發送者以外的所有成員
func (l *Lounge) say(s *Session, args []string) {
	l.Broadcast(fmt.Sprintf("<%s> %s%s", s.Name(), args[0], lineTerminator), s)
}

// look 僅向呼叫者列出本房間的其他成員
func (l *Lounge) look(s *Session, _ []string) {
	s.Send("The following are in this room:" + lineTerminator)
	for _, name := range l.Members() {
		if name == s.Name() {
			continue
		}
		s.Send(name + lineTerminator)
	}
}

// who 僅向呼叫者列出全服務器已登入的使用者
func (l *Lounge) who(s *Session, _ []string) {
	s.Send("The following are logged in:" + lineTerminator)
	for _, name := range l.server.Users() {
		s.Send(name + lineTerminator)
	}
}

// logout 登出：釋放名稱、離開 Lounge（含離場廣播）、回到全新的 Lobby
func (l *Lounge) logout(s *Session, _ []string) {
	l.server.ReleaseName(s.Name(), s)
	s.EnterRoom(NewLobby(l.server))
	s.setName("")
}

func (l *Lounge) quitCommand(s *Session, _ []string) {
	l.Quit(s)
}
