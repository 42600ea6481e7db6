package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AfterHoursAction is the routing action applied outside business hours
type AfterHoursAction string

const (
	AfterHoursVoicemail AfterHoursAction = "voicemail"
	AfterHoursHangup    AfterHoursAction = "hangup"
	AfterHoursTransfer  AfterHoursAction = "transfer"
)

// Config holds all configuration for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string

	// WebSocket timing
	WSReadTimeout  time.Duration
	WSWriteTimeout time.Duration
	PingPeriod     time.Duration
	PongWait       time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64

	// Presence registry
	PresenceTimeout time.Duration
	SweepInterval   time.Duration

	// Auth: HS256 shared secret, or JWKS when JWKSURL is set
	JWTSecret string
	JWKSURL   string

	// Routing
	CRMTimeout         time.Duration
	TaskTimeout        time.Duration
	Timezone           string
	AfterHours         AfterHoursAction
	TransferNumber     string
	DefaultQueueSid    string
	DefaultWorkflowSid string
	QueueMap           map[string]string // department -> task queue SID
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173"), ","),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWKSURL:            getEnv("JWKS_URL", ""),
		Timezone:           getEnv("TIMEZONE", "America/Denver"),
		TransferNumber:     getEnv("AFTER_HOURS_TRANSFER_NUMBER", ""),
		DefaultQueueSid:    getEnv("DEFAULT_QUEUE_SID", "WQdefault"),
		DefaultWorkflowSid: getEnv("DEFAULT_WORKFLOW_SID", "WWdefault"),
	}

	// Parse WebSocket timeouts
	wsReadTimeout, err := strconv.Atoi(getEnv("WS_READ_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_READ_TIMEOUT: %w", err)
	}
	config.WSReadTimeout = time.Duration(wsReadTimeout) * time.Second

	wsWriteTimeout, err := strconv.Atoi(getEnv("WS_WRITE_TIMEOUT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WS_WRITE_TIMEOUT: %w", err)
	}
	config.WSWriteTimeout = time.Duration(wsWriteTimeout) * time.Second

	// Calculate WebSocket constants
	config.PongWait = config.WSReadTimeout
	config.PingPeriod = (config.PongWait * 9) / 10 // Must be less than pongWait
	config.WriteWait = config.WSWriteTimeout
	config.MaxMessageSize = 4096

	// Presence sweep
	presenceTimeout, err := strconv.Atoi(getEnv("PRESENCE_TIMEOUT", "90"))
	if err != nil {
		return nil, fmt.Errorf("invalid PRESENCE_TIMEOUT: %w", err)
	}
	config.PresenceTimeout = time.Duration(presenceTimeout) * time.Second
	config.SweepInterval = config.PresenceTimeout / 3
	if v := os.Getenv("PRESENCE_SWEEP_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PRESENCE_SWEEP_INTERVAL: %w", err)
		}
		config.SweepInterval = time.Duration(secs) * time.Second
	}

	// Routing timeouts
	crmTimeout, err := strconv.Atoi(getEnv("CRM_TIMEOUT_MS", "5000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CRM_TIMEOUT_MS: %w", err)
	}
	config.CRMTimeout = time.Duration(crmTimeout) * time.Millisecond

	taskTimeout, err := strconv.Atoi(getEnv("TASK_TIMEOUT_MS", "10000"))
	if err != nil {
		return nil, fmt.Errorf("invalid TASK_TIMEOUT_MS: %w", err)
	}
	config.TaskTimeout = time.Duration(taskTimeout) * time.Millisecond

	// After-hours policy
	action := AfterHoursAction(getEnv("AFTER_HOURS_ACTION", "voicemail"))
	switch action {
	case AfterHoursVoicemail, AfterHoursHangup, AfterHoursTransfer:
		config.AfterHours = action
	default:
		return nil, fmt.Errorf("invalid AFTER_HOURS_ACTION: %q", action)
	}
	if config.AfterHours == AfterHoursTransfer && config.TransferNumber == "" {
		return nil, fmt.Errorf("AFTER_HOURS_ACTION=transfer requires AFTER_HOURS_TRANSFER_NUMBER")
	}

	// Department -> task queue SID table, format "dept=SID,dept=SID"
	config.QueueMap = parseQueueMap(getEnv("QUEUE_MAP", defaultQueueMap))

	// Trim spaces from allowed origins
	for i, origin := range config.AllowedOrigins {
		config.AllowedOrigins[i] = strings.TrimSpace(origin)
	}

	return config, nil
}

// defaultQueueMap covers the stock departments; override with QUEUE_MAP
const defaultQueueMap = "sales=WQsales,scheduling=WQscheduling,billing=WQbilling,support=WQsupport,utilities=WQutilities,emergency=WQemergency"

func parseQueueMap(raw string) map[string]string {
	m := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		m[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return m
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
