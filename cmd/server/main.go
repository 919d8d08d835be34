package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/koopa0/system-design/14-chat-server/internal"
)

func main() {
	// 解析命令行參數
	var (
		configPath = flag.String("config", "config.yaml", "配置檔案路徑")
		logLevel   = flag.String("log-level", "", "覆蓋日誌級別 (debug, info, warn, error)")
		logFormat  = flag.String("log-format", "", "覆蓋日誌格式 (text, json)")
	)
	flag.Parse()

	// 載入配置
	config, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		config.Log.Level = *logLevel
	}
	if *logFormat != "" {
		config.Log.Format = *logFormat
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// 設置日誌
	logger := setupLogger(config.Log.Level, config.Log.Format)

	// 創建聊天服務器
	srv := internal.NewServer(config.Server.Name, logger)

	listener, err := net.Listen("tcp", config.ListenAddr())
	if err != nil {
		logger.Error("監聽失敗", "addr", config.ListenAddr(), "error", err)
		os.Exit(1)
	}

	serverErrors := make(chan error, 2)
	go func() {
		logger.Info("啟動聊天服務器",
			"addr", config.ListenAddr(),
			"name", config.Server.Name)
		serverErrors <- srv.Serve(listener)
	}()

	// WebSocket 閘道與健康檢查
	var httpSrv *http.Server
	if config.Gateway.Enabled {
		gateway := internal.NewGateway(srv, logger)
		handler := internal.NewHandler(srv, gateway, logger)

		httpSrv = &http.Server{
			Addr:         config.Gateway.Addr,
			Handler:      handler.Routes(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			logger.Info("啟動 WebSocket 閘道", "addr", config.Gateway.Addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrors <- err
			}
		}()
	}

	// 等待中斷信號
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			logger.Error("服務器錯誤", "error", err)
			os.Exit(1)
		}

	case sig := <-shutdown:
		logger.Info("收到關閉信號，開始優雅關閉", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if httpSrv != nil {
			if err := httpSrv.Shutdown(ctx); err != nil {
				logger.Error("關閉 WebSocket 閘道失敗", "error", err)
			}
		}

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("關閉聊天服務器失敗", "error", err)
		}
	}

	logger.Info("服務器已關閉")
}

// loadConfig 載入配置檔案；檔案不存在時使用預設配置
func loadConfig(path string) (*internal.Config, error) {
	// #nosec G304 - path 來自命令行旗標，非遠端輸入
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return internal.DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := internal.DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return config, nil
}

// setupLogger 設置日誌
func setupLogger(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(level),
		AddSource: level == "debug",
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// parseLogLevel 解析日誌級別
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
