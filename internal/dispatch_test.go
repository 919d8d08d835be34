package internal_test

import (
	"testing"

	"github.com/koopa0/system-design/14-chat-server/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDispatch_Lobby 測試 Lobby 的命令分派
func TestDispatch_Lobby(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		validate func(t *testing.T, s *internal.Session, transport *memTransport)
	}{
		{
			name: "empty line is a no-op",
			line: "",
			validate: func(t *testing.T, s *internal.Session, transport *memTransport) {
				assert.Empty(t, transport.Writes())
			},
		},
		{
			name: "whitespace-only line is a no-op",
			line: "   \t  ",
			validate: func(t *testing.T, s *internal.Session, transport *memTransport) {
				assert.Empty(t, transport.Writes())
			},
		},
		{
			name: "unknown command prompts login",
			line: "/dance",
			validate: func(t *testing.T, s *internal.Session, transport *memTransport) {
				assert.Equal(t, "Use '/login <name>' to log in.\r\n", transport.Output())
			},
		},
		{
			name: "chat line without prefix prompts login",
			line: "hello there",
			validate: func(t *testing.T, s *internal.Session, transport *memTransport) {
				assert.Equal(t, "Use '/login <name>' to log in.\r\n", transport.Output())
			},
		},
		{
			name: "login without argument prompts login",
			line: "/login",
			validate: func(t *testing.T, s *internal.Session, transport *memTransport) {
				assert.Equal(t, "Use '/login <name>' to log in.\r\n", transport.Output())
			},
		},
		{
			name: "login with too many arguments prompts login",
			line: "/login bob smith",
			validate: func(t *testing.T, s *internal.Session, transport *memTransport) {
				assert.Equal(t, "Use '/login <name>' to log in.\r\n", transport.Output())
				assert.Empty(t, s.Name())
			},
		},
		{
			name: "login with trailing space only prompts login",
			line: "/login ",
			validate: func(t *testing.T, s *internal.Session, transport *memTransport) {
				assert.Equal(t, "Use '/login <name>' to log in.\r\n", transport.Output())
				assert.Empty(t, s.Name())
			},
		},
		{
			name: "successful login moves session to lounge",
			line: "/login alice",
			validate: func(t *testing.T, s *internal.Session, transport *memTransport) {
				assert.Equal(t, "alice", s.Name())
				assert.True(t, s.Room().Contains(s))
				assert.Empty(t, transport.Writes())
			},
		},
		{
			name: "help is available before login",
			line: "/help",
			validate: func(t *testing.T, s *internal.Session, transport *memTransport) {
				assert.Contains(t, transport.Output(), "Available commands:")
				assert.Contains(t, transport.Output(), "/quit")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := internal.NewServer("Go Chat", testLogger())
			s, transport := newTestSession(t, srv)
			transport.Reset() // 丟掉歡迎訊息

			s.Dispatch(tt.line)
			tt.validate(t, s, transport)
		})
	}
}

// TestDispatch_Lounge 測試 Lounge 的命令分派
func TestDispatch_Lounge(t *testing.T) {
	srv := internal.NewServer("Go Chat", testLogger())

	s, transport := newTestSession(t, srv)
	loginSession(t, s, transport, "alice")

	t.Run("unknown command lists help", func(t *testing.T) {
		transport.Reset()
		s.Dispatch("/dance")
		require.Len(t, transport.Writes(), 2)
		assert.Equal(t, "Unknown command: 'dance'\r\n", transport.Writes()[0])
		assert.Equal(t, "See a list of commands with '/help'\r\n", transport.Writes()[1])
	})

	t.Run("say with explicit prefix and spaces is rejected", func(t *testing.T) {
		transport.Reset()
		s.Dispatch("/say hello world")
		assert.Contains(t, transport.Output(), "Unknown command: 'say'")
	})

	t.Run("look alone prints header only", func(t *testing.T) {
		transport.Reset()
		s.Dispatch("/look")
		assert.Equal(t, []string{"The following are in this room:\r\n"}, transport.Writes())
	})

	t.Run("who lists all logged-in users", func(t *testing.T) {
		transport.Reset()
		s.Dispatch("/who")
		require.NotEmpty(t, transport.Writes())
		assert.Equal(t, "The following are logged in:\r\n", transport.Writes()[0])
		assert.Contains(t, transport.Writes(), "alice\r\n")
	})

	t.Run("chat line does not echo to sender", func(t *testing.T) {
		transport.Reset()
		s.Dispatch("hello there")
		assert.Empty(t, transport.Writes())
	})

	t.Run("logout returns session to a fresh lobby", func(t *testing.T) {
		transport.Reset()
		s.Dispatch("/logout")

		assert.Empty(t, s.Name())
		assert.False(t, srv.Lounge().Contains(s))
		assert.True(t, s.Room().Contains(s))
		assert.NotSame(t, internal.Room(srv.Lounge()), s.Room())
		assert.Contains(t, transport.Output(), "Welcome to Go Chat")
		assert.Empty(t, srv.Users())
	})
}

// TestDispatch_HandlerPanicIsContained 處理器 panic 不得向外傳播
func TestDispatch_HandlerPanicIsContained(t *testing.T) {
	srv := internal.NewServer("Go Chat", testLogger())
	s, _ := newTestSession(t, srv)

	// 會話被強制移出房間後分派仍不得 panic
	s.Room().Remove(s)

	assert.NotPanics(t, func() {
		s.Dispatch("/help")
		s.Dispatch("anything")
	})
}
