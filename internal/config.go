package internal

import (
	"fmt"
	"net"
	"strconv"
)

// Config 整個應用的配置
type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Name string `yaml:"name"`
	} `yaml:"server"`

	Gateway struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"gateway"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// DefaultConfig 預設配置
func DefaultConfig() *Config {
	c := &Config{}
	c.Server.Host = "0.0.0.0"
	c.Server.Port = 2323
	c.Server.Name = "Go Chat"
	c.Gateway.Enabled = true
	c.Gateway.Addr = ":8080"
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// Validate 驗證配置
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Name == "" {
		return fmt.Errorf("server name must not be empty")
	}
	if c.Gateway.Enabled && c.Gateway.Addr == "" {
		return fmt.Errorf("gateway enabled but no address configured")
	}
	return nil
}

// ListenAddr 生成 TCP 監聽位址
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
