package data

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dsnParam is a driver parameter appended to the DSN unless it is already set.
type dsnParam struct {
	key, val string
}

type mysqlOptions struct {
	params        []dsnParam
	maxOpen       int
	maxIdle       int
	maxLifetime   time.Duration
	slowThreshold time.Duration
}

// MySQLOption tunes ConnectMySQL.
type MySQLOption func(*mysqlOptions)

// WithDSNParam adds or replaces a default driver parameter. Values already in
// the DSN still win.
func WithDSNParam(key, val string) MySQLOption {
	return func(o *mysqlOptions) {
		for i := range o.params {
			if o.params[i].key == key {
				o.params[i].val = val
				return
			}
		}
		o.params = append(o.params, dsnParam{key, val})
	}
}

// WithPool sizes the connection pool. Zero values keep the defaults.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) MySQLOption {
	return func(o *mysqlOptions) {
		if maxOpen > 0 {
			o.maxOpen = maxOpen
		}
		if maxIdle > 0 {
			o.maxIdle = maxIdle
		}
		if maxLifetime > 0 {
			o.maxLifetime = maxLifetime
		}
	}
}

// WithSlowThreshold sets the duration above which gorm logs a query as slow.
func WithSlowThreshold(d time.Duration) MySQLOption {
	return func(o *mysqlOptions) { o.slowThreshold = d }
}

func defaultMySQLOptions() mysqlOptions {
	return mysqlOptions{
		params: []dsnParam{
			{"parseTime", "true"},
			{"charset", "utf8mb4"},
			{"collation", "utf8mb4_unicode_ci"},
		},
		// Only the settings table lives here and it is read at startup.
		maxOpen:       2,
		maxIdle:       1,
		maxLifetime:   30 * time.Minute,
		slowThreshold: time.Second,
	}
}

// ConnectMySQL opens the settings database. The charset defaults apply only
// when the DSN names no charset of its own.
func ConnectMySQL(dsn string, opts ...MySQLOption) (*gorm.DB, error) {
	o := defaultMySQLOptions()
	for _, opt := range opts {
		opt(&o)
	}

	gormLogger := logger.New(&log.Logger, logger.Config{
		SlowThreshold:             o.slowThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})

	db, err := gorm.Open(mysql.Open(buildDSN(dsn, o.params)), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("mysql pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(o.maxOpen)
	sqlDB.SetMaxIdleConns(o.maxIdle)
	sqlDB.SetConnMaxLifetime(o.maxLifetime)
	return db, nil
}

func buildDSN(dsn string, params []dsnParam) string {
	customCharset := strings.Contains(dsn, "charset=")
	for _, p := range params {
		if customCharset && p.key == "collation" {
			continue
		}
		dsn = ensureParam(dsn, p.key, p.val)
	}
	return dsn
}

func ensureParam(dsn, key, val string) string {
	if strings.Contains(dsn, key+"=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + key + "=" + val
}
