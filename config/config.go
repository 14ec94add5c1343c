package config

import (
	"log"
	"net"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system,
// such as server settings, the static front end and the Baostock connection.
//
// Example ENV equivalent:
//
//	SERVER_PORT=5001
//	REQUEST_TIMEOUT=0
//	STATIC_DIR=./web
//	STATIC_INDEX=index.html
//	BAOSTOCK_HOST=public-api.baostock.com
//	BAOSTOCK_PORT=10030
//	BAOSTOCK_USER=anonymous
//	BAOSTOCK_PASSWORD=123456
//	BAOSTOCK_DIAL_TIMEOUT=10s
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Static   StaticConfig   // Front-end files
	Baostock BaostockConfig // Market-data provider settings
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string        // The TCP port the HTTP server will listen on (e.g., "5001")
	RequestTimeout time.Duration // Per-request deadline; 0 disables it
}

// StaticConfig points at the directory served under GET /.
type StaticConfig struct {
	Dir   string
	Index string
}

// BaostockConfig defines connection details for the Baostock API.
//
// Fields:
//   - Host: hostname of the API server.
//   - Port: port number of the API server (default 10030).
//   - User, Password: login credentials (anonymous access by default).
//   - DialTimeout: TCP connect timeout.
//   - Addr: computed host:port used by the client.
type BaostockConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DialTimeout time.Duration
	Addr        string
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Fatal exit:
//   - If required variables are missing, validateConfig() will terminate the app
//     with a descriptive log message.
func LoadConfig() {
	// Default values
	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("REQUEST_TIMEOUT", "0s")

	viper.SetDefault("STATIC_DIR", "./web")
	viper.SetDefault("STATIC_INDEX", "index.html")

	viper.SetDefault("BAOSTOCK_HOST", "public-api.baostock.com")
	viper.SetDefault("BAOSTOCK_PORT", 10030)
	viper.SetDefault("BAOSTOCK_USER", "anonymous")
	viper.SetDefault("BAOSTOCK_PASSWORD", "123456")
	viper.SetDefault("BAOSTOCK_DIAL_TIMEOUT", "10s")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			RequestTimeout: viper.GetDuration("REQUEST_TIMEOUT"),
		},
		Static: StaticConfig{
			Dir:   viper.GetString("STATIC_DIR"),
			Index: viper.GetString("STATIC_INDEX"),
		},
		Baostock: BaostockConfig{
			Host:        viper.GetString("BAOSTOCK_HOST"),
			Port:        viper.GetInt("BAOSTOCK_PORT"),
			User:        viper.GetString("BAOSTOCK_USER"),
			Password:    viper.GetString("BAOSTOCK_PASSWORD"),
			DialTimeout: viper.GetDuration("BAOSTOCK_DIAL_TIMEOUT"),
		},
	}

	AppConfig.Baostock.Addr = net.JoinHostPort(AppConfig.Baostock.Host, strconv.Itoa(AppConfig.Baostock.Port))

	validateConfig()
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing.
//
// Behavior:
//   - Checks each critical field of AppConfig.
//   - Collects missing ones in a slice.
//   - If any are missing, logs them and terminates the app with log.Fatalf().
func validateConfig() {
	var missing []string

	if AppConfig.Server.Port == "" {
		missing = append(missing, "SERVER_PORT")
	}
	if AppConfig.Server.RequestTimeout < 0 {
		missing = append(missing, "REQUEST_TIMEOUT")
	}
	if AppConfig.Static.Dir == "" {
		missing = append(missing, "STATIC_DIR")
	}
	if AppConfig.Static.Index == "" {
		missing = append(missing, "STATIC_INDEX")
	}
	if AppConfig.Baostock.Host == "" {
		missing = append(missing, "BAOSTOCK_HOST")
	}
	if AppConfig.Baostock.Port == 0 {
		missing = append(missing, "BAOSTOCK_PORT")
	}
	if AppConfig.Baostock.User == "" {
		missing = append(missing, "BAOSTOCK_USER")
	}
	if AppConfig.Baostock.DialTimeout <= 0 {
		missing = append(missing, "BAOSTOCK_DIAL_TIMEOUT")
	}

	if len(missing) > 0 {
		log.Fatalf("❌ Missing or invalid environment variables: %v\n", missing)
	}
}
