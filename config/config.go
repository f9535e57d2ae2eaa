package config

import (
	"os"
	"strconv"
	"time"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type BrowserConfig struct {
	Headless        bool
	NavigateTimeout time.Duration
	SelectorTimeout time.Duration
	SettleTimeout   time.Duration
}

type RunConfig struct {
	ScoreFloor      float64
	MaxApplications int
	PauseMin        time.Duration
	PauseMax        time.Duration
	ResumePath      string
	HeuristicsPath  string
	ManualSolveWait time.Duration
	LeadsPath       string
	DiscoveryURL    string
}

type AppConfig struct {
	Port        string
	Database    DatabaseConfig
	Browser     BrowserConfig
	Run         RunConfig
	JWTSecret   string
	Environment string
}

func GetDatabaseConfig() DatabaseConfig {
	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "applypilot"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}
}

func GetBrowserConfig() BrowserConfig {
	headless := true
	if getEnv("HEADLESS", "true") == "false" {
		headless = false
	}

	return BrowserConfig{
		Headless:        headless,
		NavigateTimeout: getDurationEnv("NAVIGATE_TIMEOUT_MS", 30000),
		SelectorTimeout: getDurationEnv("SELECTOR_TIMEOUT_MS", 10000),
		SettleTimeout:   getDurationEnv("SETTLE_TIMEOUT_MS", 15000),
	}
}

func GetRunConfig() RunConfig {
	floor, _ := strconv.ParseFloat(getEnv("SCORE_FLOOR", "0.5"), 64)
	maxApps, _ := strconv.Atoi(getEnv("MAX_APPLICATIONS", "25"))

	return RunConfig{
		ScoreFloor:      floor,
		MaxApplications: maxApps,
		PauseMin:        getDurationEnv("PAUSE_MIN_MS", 15000),
		PauseMax:        getDurationEnv("PAUSE_MAX_MS", 45000),
		ResumePath:      getEnv("RESUME_PATH", "./assets/resume.docx"),
		HeuristicsPath:  getEnv("HEURISTICS_PATH", ""),
		ManualSolveWait: getDurationEnv("MANUAL_SOLVE_WAIT_MS", 60000),
		LeadsPath:       getEnv("LEADS_PATH", "./leads.json"),
		DiscoveryURL:    getEnv("DISCOVERY_URL", "https://www.indeed.com"),
	}
}

func GetAppConfig() AppConfig {
	return AppConfig{
		Port:        getEnv("PORT", "8081"),
		Database:    GetDatabaseConfig(),
		Browser:     GetBrowserConfig(),
		Run:         GetRunConfig(),
		JWTSecret:   getEnv("JWT_SECRET", "your-secret-key"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultMs int) time.Duration {
	ms, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultMs)))
	if err != nil || ms <= 0 {
		ms = defaultMs
	}
	return time.Duration(ms) * time.Millisecond
}
