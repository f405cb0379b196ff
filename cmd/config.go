package main

import (
	"strings"
	"time"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=3000"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration    time.Duration `env:"AUTH_TOKEN_DURATION,default=168h"`
	StoreTimeout         time.Duration `env:"STORE_TIMEOUT,default=5s"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	MaxMessageSize       int64         `env:"MAX_MESSAGE_SIZE,default=65536"`
	RateLimitBurst       int           `env:"RATE_LIMIT_BURST,default=20"`
	RateLimitInterval    time.Duration `env:"RATE_LIMIT_INTERVAL,default=100ms"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS,default=*"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`
	ReportInterval       time.Duration `env:"REPORT_INTERVAL,default=1m"`
}

// Origins splits the comma separated ALLOWED_ORIGINS.
func (c Config) Origins() []string {
	return strings.Split(c.AllowedOrigins, ",")
}
