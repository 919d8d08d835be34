package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// Handler HTTP 請求處理器（健康檢查、統計與 WebSocket 入口）
type Handler struct {
	server  *Server
	gateway *Gateway
	logger  *slog.Logger
}

// NewHandler 創建 HTTP 處理器
func NewHandler(server *Server, gateway *Gateway, logger *slog.Logger) *Handler {
	return &Handler{
		server:  server,
		gateway: gateway,
		logger:  logger,
	}
}

// Routes 設定路由
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	// 中間件鏈
	wrap := func(handler http.HandlerFunc) http.HandlerFunc {
		return h.recoverer(h.loggerMiddleware(handler))
	}

	// WebSocket 入口
	mux.HandleFunc("GET /ws", wrap(h.gateway.ServeWS))

	// 健康檢查
	mux.HandleFunc("GET /health", wrap(h.health))
	mux.HandleFunc("GET /stats", wrap(h.stats))

	return mux
}

// health 健康檢查
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]any{
		"status": "ok",
		"server": h.server.Name(),
	}, http.StatusOK)
}

// stats 統計資訊
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, map[string]any{
		"server_name":    h.server.Name(),
		"uptime_seconds": int64(h.server.Uptime().Seconds()),
		"logged_in":      h.server.UserCount(),
		"lounge_members": h.server.Lounge().Len(),
		"sessions":       h.server.SessionCount(),
	}, http.StatusOK)
}

// jsonResponse 回傳 JSON
func (h *Handler) jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("序列化回應失敗", "error", err)
	}
}

// errorResponse 回傳錯誤
func (h *Handler) errorResponse(w http.ResponseWriter, message string, status int) {
	h.jsonResponse(w, map[string]any{"error": message}, status)
}

// loggerMiddleware 記錄請求
func (h *Handler) loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		h.logger.Debug("HTTP 請求",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	}
}

// recoverer 捕獲處理器 panic，避免單一請求拖垮進程
func (h *Handler) recoverer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("處理器 panic", "panic", rec, "path", r.URL.Path)
				h.errorResponse(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next(w, r)
	}
}
