package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/johnleshan/SwiftChat/internal/logger"
	"gopkg.in/yaml.v3"
)

// loadEnv читает .env только вне production (в контейнере/prod конфиг только из env).
func loadEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		path := dir + "/.env"
		f, err := os.Open(path)
		if err == nil {
			loadEnvFrom(f)
			f.Close()
			return
		}
		parent := strings.TrimSuffix(dir, "/")
		if idx := strings.LastIndex(parent, "/"); idx <= 0 {
			return
		} else {
			dir = parent[:idx]
			if dir == "" {
				dir = "/"
			}
		}
	}
}

func loadEnvFrom(f *os.File) {
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if key == "" {
			continue
		}
		if len(val) >= 2 && (val[0] == '"' && val[len(val)-1] == '"' || val[0] == '\'' && val[len(val)-1] == '\'') {
			val = val[1 : len(val)-1]
		}
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

// AdvisorConfig — настройки advisory-вызовов (генерация ответов и focus mode).
type AdvisorConfig struct {
	// OpenAIAPIKey берётся только из env (OPENAI_API_KEY), не из YAML.
	OpenAIAPIKey string `yaml:"-"`
	OpenAIModel  string `yaml:"openai_model"`
	// RequestTimeout — таймаут одного advisory-вызова.
	RequestTimeout time.Duration `yaml:"-"`
	// HistoryWindow — сколько последних сообщений чата уходит в запрос.
	HistoryWindow int `yaml:"history_window"`
	// ReplyDelayMinMs/MaxMs — искусственная задержка "печатает..." перед
	// синтетическим ответом, равномерно из [min, max) миллисекунд.
	ReplyDelayMinMs int `yaml:"reply_delay_min_ms"`
	ReplyDelayMaxMs int `yaml:"reply_delay_max_ms"`
}

// Config содержит настройки приложения.
// Приоритет: переменные окружения > YAML-файл > значения по умолчанию.
type Config struct {
	// Сервер
	ServerAddr   string        `yaml:"server_addr"`
	ReadTimeout  time.Duration `yaml:"-"`
	WriteTimeout time.Duration `yaml:"-"`
	IdleTimeout  time.Duration `yaml:"-"`

	// WebSocket
	MaxWSConnections int `yaml:"max_ws_connections"`
	WSSendBufferSize int `yaml:"ws_send_buffer_size"`

	// CORS
	CORSAllowedOrigins string `yaml:"cors_allowed_origins"`

	// Логирование
	LogLevel string `yaml:"log_level"`

	// SessionUserID — пользователь демо-сессии (в реальном приложении — auth).
	SessionUserID string `yaml:"session_user_id"`

	Advisor AdvisorConfig `yaml:"advisor"`
}

// yamlConfig — промежуточная структура для парсинга YAML.
type yamlConfig struct {
	ServerAddr         string `yaml:"server_addr"`
	ReadTimeout        int    `yaml:"read_timeout"`
	WriteTimeout       int    `yaml:"write_timeout"`
	IdleTimeout        int    `yaml:"idle_timeout"`
	MaxWSConnections   int    `yaml:"max_ws_connections"`
	WSSendBufferSize   int    `yaml:"ws_send_buffer_size"`
	CORSAllowedOrigins string `yaml:"cors_allowed_origins"`
	LogLevel           string `yaml:"log_level"`
	SessionUserID      string `yaml:"session_user_id"`
	OpenAIModel        string `yaml:"openai_model"`
	AdvisorTimeout     int    `yaml:"advisor_timeout"`
	HistoryWindow      int    `yaml:"history_window"`
	ReplyDelayMinMs    int    `yaml:"reply_delay_min_ms"`
	ReplyDelayMaxMs    int    `yaml:"reply_delay_max_ms"`
}

// Load загружает конфигурацию.
// Сначала подгружаются переменные из .env (если есть), затем YAML и env (env имеет приоритет).
func Load() *Config {
	loadEnv()
	// Значения по умолчанию
	yc := yamlConfig{
		ServerAddr:         ":8080",
		ReadTimeout:        15,
		WriteTimeout:       15,
		IdleTimeout:        60,
		MaxWSConnections:   1000,
		WSSendBufferSize:   64,
		CORSAllowedOrigins: "*",
		LogLevel:           "info",
		SessionUserID:      "user-1",
		OpenAIModel:        "",
		AdvisorTimeout:     20,
		HistoryWindow:      10,
		ReplyDelayMinMs:    1000,
		ReplyDelayMaxMs:    2000,
	}

	// Загрузка конфигурации приложения: CONFIG_PATH → config/api.yaml
	appPaths := []string{os.Getenv("CONFIG_PATH"), "config/api.yaml"}
	for _, path := range appPaths {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &yc); err != nil {
			logger.Errorf("config: ошибка парсинга %s: %v (используются значения по умолчанию)", path, err)
		} else {
			logger.Infof("config: загружен %s", path)
		}
		break
	}

	delayMin := envInt("REPLY_DELAY_MIN_MS", yc.ReplyDelayMinMs)
	delayMax := envInt("REPLY_DELAY_MAX_MS", yc.ReplyDelayMaxMs)
	if delayMin < 0 {
		delayMin = 0
	}
	if delayMax <= delayMin {
		delayMax = delayMin + 1
	}

	history := envInt("HISTORY_WINDOW", yc.HistoryWindow)
	if history <= 0 {
		history = 10
	}

	cfg := &Config{
		ServerAddr:         envStr("SERVER_ADDR", yc.ServerAddr),
		ReadTimeout:        time.Duration(envInt("READ_TIMEOUT", yc.ReadTimeout)) * time.Second,
		WriteTimeout:       time.Duration(envInt("WRITE_TIMEOUT", yc.WriteTimeout)) * time.Second,
		IdleTimeout:        time.Duration(envInt("IDLE_TIMEOUT", yc.IdleTimeout)) * time.Second,
		MaxWSConnections:   envInt("MAX_WS_CONNECTIONS", yc.MaxWSConnections),
		WSSendBufferSize:   envInt("WS_SEND_BUFFER_SIZE", yc.WSSendBufferSize),
		CORSAllowedOrigins: envStr("CORS_ALLOWED_ORIGINS", yc.CORSAllowedOrigins),
		LogLevel:           envStr("LOG_LEVEL", yc.LogLevel),
		SessionUserID:      envStr("SESSION_USER_ID", yc.SessionUserID),
		Advisor: AdvisorConfig{
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:     envStr("OPENAI_MODEL", yc.OpenAIModel),
			RequestTimeout:  time.Duration(envInt("ADVISOR_TIMEOUT", yc.AdvisorTimeout)) * time.Second,
			HistoryWindow:   history,
			ReplyDelayMinMs: delayMin,
			ReplyDelayMaxMs: delayMax,
		},
	}

	if os.Getenv("APP_ENV") == "production" {
		if cfg.CORSAllowedOrigins == "" || cfg.CORSAllowedOrigins == "*" {
			logger.Errorf("config: в production задайте CORS_ALLOWED_ORIGINS (явный список origins, не *)")
			// Не роняем процесс — CORS можно задать позже
		}
	}

	return cfg
}

// envStr возвращает значение переменной окружения или fallback.
func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt возвращает числовое значение переменной окружения или fallback.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
