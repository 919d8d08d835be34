// Package chatserver 實現了一個多房間的行導向文字聊天服務器。
//
// 系統設計問題：
//   如何在單一 TCP 監聽器上服務大量併發連接，並將每個連接
//   在「未登入的 Lobby」與「共享的 Lounge 聊天室」之間正確路由？
//
// 核心功能
//
// 連接與會話管理：
//   - 每個連接一個 Session（goroutine per connection）
//   - 狀態機：Connected-NoName → LoggedIn → LoggedOut → Closed
//   - 名稱先到先得（first-come name reservation）
//
// 房間模型：
//   - Lobby：每個連接獨享的登入房間
//   - Lounge：全服務器共享的聊天房間
//   - 廣播支援排除發送者（broadcast with exclusion）
//
// 命令分派：
//   - 顯式命令表（非反射），逐房間解析
//   - /login /help /look /who /logout /quit
//   - 無前綴的行視為聊天訊息（say）
//
// 傳輸層
//
// 支援兩種客戶端傳輸：
//   - 原生 TCP：CRLF 行分隔的純文字協議
//   - WebSocket 閘道：瀏覽器客戶端走同一套協議
//     （心跳檢測 Ping/Pong、緩衝發送、閒置清理）
//
// 併發安全設計
//
// 採用了多層次的併發控制策略：
//   - RWMutex 保護每個房間的成員映射
//   - 名稱註冊表的 check-then-insert 為單一臨界區
//     （兩個連接同時 /login 同名時恰好一個成功）
//   - Channel 緩衝 WebSocket 發送路徑
//
// 錯誤處理
//
// 任一連接的錯誤不影響其他連接：
//   - 協議錯誤：回覆 unknown-command 訊息，連接保持開啟
//   - 狀態錯誤：記錄日誌後吞掉（如移除不存在的成員）
//   - 傳輸錯誤：僅關閉受影響的連接，盡力清理房間與註冊表
//
// 配置選項
//
// 透過 YAML 配置檔與命令行旗標：
//   - server.host / server.port：TCP 監聽位址
//   - server.name：Lobby 歡迎訊息中的服務器名稱
//   - gateway.enabled / gateway.addr：WebSocket 閘道
//   - log.level / log.format：結構化日誌
//
// 使用範例
//
// 啟動服務器：
//
//	srv := internal.NewServer("Go Chat", logger)
//	listener, _ := net.Listen("tcp", ":2323")
//	go srv.Serve(listener)
//
// 客戶端連接（telnet 或 nc）：
//
//	$ nc localhost 2323
//	 * Welcome to Go Chat *
//	Use '/login <name>' to log in
//	/login alice
package chatserver
