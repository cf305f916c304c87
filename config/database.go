package config

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

var (
	db *gorm.DB
)

func GetDB() *gorm.DB {
	return db
}

func init() {
	// Load env from .env
	godotenv.Load()
	// IMPORTANT (Cloud Run):
	// Do NOT block startup in init() waiting for DB.
	// Cloud Run requires the container to start listening on $PORT quickly.
}

// DatabaseDriver returns the configured dialect, mysql unless DB_DRIVER=postgres.
func DatabaseDriver() string {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("DB_DRIVER")), DriverPostgres) {
		return DriverPostgres
	}
	return DriverMySQL
}

func dialector() gorm.Dialector {
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbName := os.Getenv("DB_NAME")

	if DatabaseDriver() == DriverPostgres {
		sslMode := os.Getenv("DB_SSLMODE")
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			dbHost, dbUser, dbPassword, dbName, dbPort, sslMode)
		return postgres.Open(dsn)
	}

	network := "tcp"
	address := fmt.Sprintf("%s:%s", dbHost, dbPort)

	// Cloud Run + Cloud SQL: when DB_HOST is "/cloudsql/<CONNECTION_NAME>",
	// connect using a Unix domain socket provided by Cloud SQL Auth Proxy.
	if strings.HasPrefix(dbHost, "/cloudsql/") {
		network = "unix"
		address = dbHost
	}

	dsn := fmt.Sprintf("%s:%s@%s(%s)/%s?multiStatements=true&parseTime=true&loc=UTC",
		dbUser,
		dbPassword,
		network,
		address,
		dbName,
	)
	return mysql.Open(dsn)
}

// poolSettings are the database/sql pool limits. Zero or negative values
// leave the driver default in place, except MaxIdle where 0 is meaningful.
type poolSettings struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME_SECONDS and
// DB_CONN_MAX_IDLE_TIME_SECONDS override the defaults.
func poolSettingsFromEnv() poolSettings {
	return poolSettings{
		MaxOpen:     intFromEnv("DB_MAX_OPEN_CONNS", 50),
		MaxIdle:     intFromEnv("DB_MAX_IDLE_CONNS", 25),
		MaxLifetime: time.Duration(intFromEnv("DB_CONN_MAX_LIFETIME_SECONDS", 300)) * time.Second,
		MaxIdleTime: time.Duration(intFromEnv("DB_CONN_MAX_IDLE_TIME_SECONDS", 60)) * time.Second,
	}
}

func (p poolSettings) apply(sqlDB *sql.DB) {
	if p.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(p.MaxOpen)
	}
	if p.MaxIdle >= 0 {
		sqlDB.SetMaxIdleConns(p.MaxIdle)
	}
	if p.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(p.MaxLifetime)
	}
	if p.MaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(p.MaxIdleTime)
	}
}

// ConnectDatabaseWithRetry blocks until the database answers, then installs
// the tracing and tenant guard plugins. Call it after the HTTP listener is up.
func ConnectDatabaseWithRetry() {
	entry := GetLogger().WithFields(logrus.Fields{"module": "config", "driver": DatabaseDriver()})
	for attempt := 1; ; attempt++ {
		conn, err := gorm.Open(dialector(), initConfig())
		if err != nil {
			sleep := backoff(attempt)
			entry.WithField("attempt", attempt).Warnf("database connect failed: %v; retrying in %s", err, sleep)
			time.Sleep(sleep)
			continue
		}

		if sqlDB, derr := conn.DB(); derr == nil && sqlDB != nil {
			poolSettingsFromEnv().apply(sqlDB)
		}
		for _, plugin := range []gorm.Plugin{otelgorm.NewPlugin(), NewTenantGuardPlugin()} {
			if perr := conn.Use(plugin); perr != nil {
				entry.WithField("plugin", plugin.Name()).Errorf("plugin install failed: %v", perr)
			}
		}
		db = conn
		entry.WithField("attempt", attempt).Info("connected to database")
		return
	}
}

// backoff is the shared connect-loop delay: 2^attempt seconds, capped at 30s.
func backoff(attempt int) time.Duration {
	sleep := time.Second * time.Duration(1<<min(attempt, 5))
	if sleep > 30*time.Second {
		sleep = 30 * time.Second
	}
	return sleep
}

func intFromEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// IntFromEnv is the exported form for other packages reading numeric settings.
func IntFromEnv(key string, def int) int {
	return intFromEnv(key, def)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// InitConfig Initialize Config
func initConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         writeGormLog(),
		NamingStrategy: initNamingStrategy(),
		// maps driver-specific unique violations to gorm.ErrDuplicatedKey
		TranslateError: true,
	}
}

// InitLog Connection Log Configuration
func initLog() logger.Interface {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			Colorful:      false,
			LogLevel:      logger.Error,
			SlowThreshold: time.Second,
		},
	)
	return newLogger
}

// InitNamingStrategy Init NamingStrategy
func initNamingStrategy() *schema.NamingStrategy {
	return &schema.NamingStrategy{
		SingularTable: false,
		TablePrefix:   "",
	}
}

func writeGormLog() logger.Interface {
	logFile := os.Getenv("GORM_LOG")
	if logFile == "" {
		return initLog()
	}
	f, err := os.Create(logFile)
	if err != nil {
		return initLog()
	}
	newLogger := logger.New(log.New(io.MultiWriter(f), "\r\n", log.LstdFlags), logger.Config{
		Colorful:      true,
		LogLevel:      logger.Info,
		SlowThreshold: time.Second,
	})
	return newLogger
}
