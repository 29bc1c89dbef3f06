package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/example/room-scheduler/internal/scheduler"
)

// Storage backends accepted by SCHEDULER_STORAGE.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// Config captures environment driven configuration values for the room scheduler service.
type Config struct {
	HTTPPort        int
	Storage         string
	SQLiteDSN       string
	Redis           RedisConfig
	SessionSecret   string
	SessionTTL      time.Duration
	MaxRoomCapacity int
	BusinessHours   scheduler.Window
	AllowedOrigins  []string
	AdminEmail      string
	AdminPassword   string
	LogLevel        string
	LogFormat       string
}

// RedisConfig locates the Redis server used when Storage is "redis".
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// fileConfig is the optional TOML file named by SCHEDULER_CONFIG_FILE. Empty values keep defaults.
type fileConfig struct {
	HTTP struct {
		Port           int      `toml:"port"`
		AllowedOrigins []string `toml:"allowed_origins"`
	} `toml:"http"`
	Storage struct {
		Backend   string `toml:"backend"`
		SQLiteDSN string `toml:"sqlite_dsn"`
	} `toml:"storage"`
	Redis struct {
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
		Prefix   string `toml:"prefix"`
	} `toml:"redis"`
	Session struct {
		TTL string `toml:"ttl"`
	} `toml:"session"`
	Rooms struct {
		MaxCapacity int `toml:"max_capacity"`
	} `toml:"rooms"`
	Calendar struct {
		StartHour *int `toml:"start_hour"`
		EndHour   *int `toml:"end_hour"`
	} `toml:"calendar"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPPort:       8080,
		Storage:        StorageSQLite,
		SQLiteDSN:      "roomsched.db",
		Redis:          RedisConfig{Addr: "localhost:6379", Prefix: "roomsched"},
		SessionTTL:     24 * time.Hour,
		BusinessHours:  scheduler.DefaultWindow(),
		AllowedOrigins: []string{"*"},
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load parses configuration values from the current process environment.
//
// Values are layered: defaults, then a .env file in the working directory, then the TOML
// file named by SCHEDULER_CONFIG_FILE, then SCHEDULER_* variables. Missing required values
// and invalid entries are collected and reported together in one localized error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if path := strings.TrimSpace(os.Getenv("SCHEDULER_CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if portValue := strings.TrimSpace(os.Getenv("SCHEDULER_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.TrimSpace(os.Getenv("SCHEDULER_STORAGE")); storage != "" {
		cfg.Storage = strings.ToLower(storage)
	}
	switch cfg.Storage {
	case StorageMemory, StorageSQLite, StorageRedis:
	default:
		invalid = append(invalid, "SCHEDULER_STORAGE")
	}

	if dsn := strings.TrimSpace(os.Getenv("SCHEDULER_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if addr := strings.TrimSpace(os.Getenv("SCHEDULER_REDIS_ADDR")); addr != "" {
		cfg.Redis.Addr = addr
	}
	if password, ok := os.LookupEnv("SCHEDULER_REDIS_PASSWORD"); ok {
		cfg.Redis.Password = password
	}
	if dbValue := strings.TrimSpace(os.Getenv("SCHEDULER_REDIS_DB")); dbValue != "" {
		db, err := strconv.Atoi(dbValue)
		if err != nil || db < 0 {
			invalid = append(invalid, "SCHEDULER_REDIS_DB")
		} else {
			cfg.Redis.DB = db
		}
	}
	if prefix, ok := os.LookupEnv("SCHEDULER_REDIS_PREFIX"); ok {
		cfg.Redis.Prefix = strings.TrimSpace(prefix)
	}

	if secret := strings.TrimSpace(os.Getenv("SCHEDULER_SESSION_SECRET")); secret == "" {
		missing = append(missing, "SCHEDULER_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("SCHEDULER_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SCHEDULER_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if capacityValue := strings.TrimSpace(os.Getenv("SCHEDULER_MAX_ROOM_CAPACITY")); capacityValue != "" {
		capacity, err := strconv.Atoi(capacityValue)
		if err != nil || capacity < 0 {
			invalid = append(invalid, "SCHEDULER_MAX_ROOM_CAPACITY")
		} else {
			cfg.MaxRoomCapacity = capacity
		}
	}

	hoursValid := true
	for _, entry := range []struct {
		key    string
		target *int
	}{
		{"SCHEDULER_BUSINESS_START_HOUR", &cfg.BusinessHours.StartHour},
		{"SCHEDULER_BUSINESS_END_HOUR", &cfg.BusinessHours.EndHour},
	} {
		value := strings.TrimSpace(os.Getenv(entry.key))
		if value == "" {
			continue
		}
		hour, err := strconv.Atoi(value)
		if err != nil {
			invalid = append(invalid, entry.key)
			hoursValid = false
			continue
		}
		*entry.target = hour
	}
	if hoursValid && cfg.BusinessHours.Validate() != nil {
		invalid = append(invalid, "SCHEDULER_BUSINESS_START_HOUR", "SCHEDULER_BUSINESS_END_HOUR")
	}

	if origins := strings.TrimSpace(os.Getenv("SCHEDULER_ALLOWED_ORIGINS")); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	cfg.AdminEmail = strings.TrimSpace(os.Getenv("SCHEDULER_ADMIN_EMAIL"))
	cfg.AdminPassword = os.Getenv("SCHEDULER_ADMIN_PASSWORD")
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		if cfg.AdminEmail == "" {
			missing = append(missing, "SCHEDULER_ADMIN_EMAIL")
		} else {
			missing = append(missing, "SCHEDULER_ADMIN_PASSWORD")
		}
	}

	if level := strings.TrimSpace(os.Getenv("SCHEDULER_LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "SCHEDULER_LOG_LEVEL")
	}
	if format := strings.TrimSpace(os.Getenv("SCHEDULER_LOG_FORMAT")); format != "" {
		cfg.LogFormat = strings.ToLower(format)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		invalid = append(invalid, "SCHEDULER_LOG_FORMAT")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("variáveis de ambiente obrigatórias não definidas: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valores inválidos nas variáveis de ambiente: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("arquivo de configuração não encontrado: %s", path)
		}
		return fmt.Errorf("falha ao ler o arquivo de configuração %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("arquivo de configuração inválido %s: %w", path, err)
	}

	if fc.HTTP.Port != 0 {
		cfg.HTTPPort = fc.HTTP.Port
	}
	if len(fc.HTTP.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = fc.HTTP.AllowedOrigins
	}
	if fc.Storage.Backend != "" {
		cfg.Storage = strings.ToLower(fc.Storage.Backend)
	}
	if fc.Storage.SQLiteDSN != "" {
		cfg.SQLiteDSN = fc.Storage.SQLiteDSN
	}
	if fc.Redis.Addr != "" {
		cfg.Redis.Addr = fc.Redis.Addr
	}
	if fc.Redis.Password != "" {
		cfg.Redis.Password = fc.Redis.Password
	}
	if fc.Redis.DB != 0 {
		cfg.Redis.DB = fc.Redis.DB
	}
	if fc.Redis.Prefix != "" {
		cfg.Redis.Prefix = fc.Redis.Prefix
	}
	if fc.Session.TTL != "" {
		ttl, err := time.ParseDuration(fc.Session.TTL)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("arquivo de configuração inválido %s: session.ttl", path)
		}
		cfg.SessionTTL = ttl
	}
	if fc.Rooms.MaxCapacity != 0 {
		cfg.MaxRoomCapacity = fc.Rooms.MaxCapacity
	}
	if fc.Calendar.StartHour != nil {
		cfg.BusinessHours.StartHour = *fc.Calendar.StartHour
	}
	if fc.Calendar.EndHour != nil {
		cfg.BusinessHours.EndHour = *fc.Calendar.EndHour
	}
	if fc.Log.Level != "" {
		cfg.LogLevel = strings.ToLower(fc.Log.Level)
	}
	if fc.Log.Format != "" {
		cfg.LogFormat = strings.ToLower(fc.Log.Format)
	}
	return nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
