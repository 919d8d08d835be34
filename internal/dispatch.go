package internal

import (
	"strings"
)

// 系統設計問題：
//   如何把一行輸入解析為命令並路由到正確的處理器，
//   且保證任何失敗都不會終止連接或拖垮進程？
//
// 設計方案：
//   ✅ 顯式命令表 - 每個房間變體一張 name -> handler 映射，
//      調用前檢查存在性與參數個數（而非反射式屬性查找）
//   ✅ 逐房間 unknown 處理器 - Lobby 提示 /login，
//      Lounge 提示 /help
//   ✅ recover 防護 - 處理器內的任何 panic 只記錄日誌

// commandPrefix 命令前綴；無前綴的行視為聊天內容（say）
const commandPrefix = "/"

// command 一個房間命令：固定的位置參數個數加處理器
type command struct {
	arity   int
	handler func(s *Session, args []string)
}

// Dispatch 解析一行輸入並在會話當前的房間裡執行對應命令。
//
// 流程：
//  1. 去除首尾空白；空行不產生任何效果
//  2. 無前綴 → 整行作為 say 命令的單一參數
//  3. 有前綴 → 以單一空格切分，首個 token 去除前綴為命令名，
//     其餘 token 各自去除空白後為位置參數
//  4. 在當前房間的命令表中解析；命令不存在或參數個數不符時
//     改由房間的 unknown 處理器回覆
//
// 保證：分派永遠不向外拋出未捕獲的失敗。
func (s *Session) Dispatch(raw string) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("命令處理器 panic", "panic", rec, "line", raw)
		}
	}()

	line := strings.TrimSpace(raw)
	if line == "" {
		return
	}

	room := s.Room()
	if room == nil {
		s.logger.Warn("會話不在任何房間內，丟棄輸入")
		return
	}

	name := "say"
	args := []string{line}

	if strings.HasPrefix(line, commandPrefix) {
		parts := strings.Split(line, " ")
		name = strings.TrimPrefix(parts[0], commandPrefix)
		args = args[:0]
		for _, part := range parts[1:] {
			args = append(args, strings.TrimSpace(part))
		}
	}

	cmd, ok := room.commands()[name]
	if !ok || len(args) != cmd.arity {
		room.unknown(s, name)
		return
	}
	cmd.handler(s, args)
}
