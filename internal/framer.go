package internal

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

// lineTerminator 協議的行分隔符（CR LF）
const lineTerminator = "\r\n"

// LineFramer 行組幀器
//
// 系統設計問題：
//   TCP 是位元組流，一次 Read 可能包含半行、一行或多行，
//   如何可靠地還原出以 CRLF 分隔的完整文字行？
//
// 設計方案：
//   - 單一累積緩衝區：未消費的位元組跨越 Read 邊界保留
//   - 每提取一行即丟棄已消費的位元組（只保留剩餘部分），
//     避免舊輸入被重複投遞
//   - UTF-8 驗證失敗視為連接級錯誤（呼叫方應關閉連接），
//     不讓亂碼進入命令分派
type LineFramer struct {
	buf []byte
}

// Feed 餵入一塊原始資料，返回其中完成的文字行（不含分隔符）。
//
// 返回錯誤表示資料不是合法的 UTF-8，此時該連接應被關閉；
// 錯誤之前已完成的行仍會一併返回。
func (f *LineFramer) Feed(chunk []byte) ([]string, error) {
	f.buf = append(f.buf, chunk...)

	var lines []string
	for {
		i := bytes.Index(f.buf, []byte(lineTerminator))
		if i < 0 {
			return lines, nil
		}

		raw := f.buf[:i]
		if !utf8.Valid(raw) {
			return lines, fmt.Errorf("line is not valid UTF-8")
		}

		lines = append(lines, string(raw))

		// 只保留分隔符之後尚未消費的部分
		rest := f.buf[i+len(lineTerminator):]
		f.buf = append(f.buf[:0:0], rest...)
	}
}

// Pending 返回尚未組成完整行的位元組數（測試與監控用）
func (f *LineFramer) Pending() int {
	return len(f.buf)
}
