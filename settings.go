package mvc

import "time"

// SettingsSection 应用设置在配置中的节名
const SettingsSection = "mvc"

// Settings 应用设置，从配置节 "mvc" 绑定
//
//	mvc:
//	  server:
//	    port: 8080
//	    mode: release
//	    prefix: /api
//	  logging:
//	    level: info
//	    format: json
type Settings struct {
	Server  ServerSettings  `json:"server"`
	Logging LoggingSettings `json:"logging"`
}

// ServerSettings HTTP 服务设置
type ServerSettings struct {
	Port   int    `json:"port"`
	Mode   string `json:"mode"`
	Prefix string `json:"prefix"`
	// ShutdownTimeout 优雅关闭的超时秒数
	ShutdownTimeout int `json:"shutdown_timeout"`
}

// LoggingSettings 日志设置
type LoggingSettings struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Port:            8080,
			Mode:            "release",
			ShutdownTimeout: 5,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "text",
		},
	}
}

func (s ServerSettings) shutdownTimeout() time.Duration {
	if s.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(s.ShutdownTimeout) * time.Second
}
