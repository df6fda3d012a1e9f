/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

// driverSpec resolves a connection config into a database/sql driver name,
// a DSN and the matching Bun dialect.
type driverSpec func(cfg *ConnectionConfig) (driver, dsn string, dialect schema.Dialect)

var drivers = map[string]driverSpec{
	"mysql":      mysqlSpec,
	"postgres":   postgresSpec,
	"postgresql": postgresSpec,
	"sqlite":     sqliteSpec,
	"sqlite3":    sqliteSpec,
}

func mysqlSpec(cfg *ConnectionConfig) (string, string, schema.Dialect) {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.Timeout = cfg.ConnectTimeout
	mc.ReadTimeout = cfg.ReadTimeout
	mc.WriteTimeout = cfg.WriteTimeout
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return "mysql", mc.FormatDSN(), mysqldialect.New()
}

func postgresSpec(cfg *ConnectionConfig) (string, string, schema.Dialect) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.Username, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.DBName,
		RawQuery: url.Values{
			"sslmode":         {sslMode},
			"connect_timeout": {strconv.Itoa(int(cfg.ConnectTimeout.Seconds()))},
		}.Encode(),
	}
	return "postgres", u.String(), pgdialect.New()
}

func sqliteSpec(cfg *ConnectionConfig) (string, string, schema.Dialect) {
	if cfg.IsMemory() {
		// A private in-memory db lives exactly as long as its single connection.
		return sqliteshim.ShimName, "file::memory:", sqlitedialect.New()
	}
	return sqliteshim.ShimName, cfg.DBName + ".db", sqlitedialect.New()
}

type defaultDatabaseManager struct {
	config *ConnectionConfig
	hooks  []bun.QueryHook

	mu     sync.RWMutex
	db     *bun.DB
	logger Logger

	stopWatch chan struct{}
	watchOnce sync.Once
	stopOnce  sync.Once
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun. hooks
// are added to the connection after the query log and slow query hooks.
func NewDatabaseManager(config *ConnectionConfig, hooks ...bun.QueryHook) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{
		config:    config,
		hooks:     hooks,
		stopWatch: make(chan struct{}),
	}
}

func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if dm.db != nil {
		return nil
	}

	db, err := dm.open()
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dm.connectTimeout())
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return fmt.Errorf("database connection test failed: %w", err)
	}

	dm.db = db
	if dm.config.HealthCheckInterval > 0 {
		dm.watchOnce.Do(func() { go dm.watch() })
	}
	dm.logLocked().Info("Database connected", "type", dm.config.Type, "host", dm.config.Host, "dbname", dm.config.DBName)
	return nil
}

func (dm *defaultDatabaseManager) open() (*bun.DB, error) {
	spec, ok := drivers[dm.config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported database type: %s", dm.config.Type)
	}
	driver, dsn, dialect := spec(dm.config)
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	dm.tunePool(sqlDB)

	db := bun.NewDB(sqlDB, dialect)
	if dm.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true), bundebug.FromEnv("BUNDEBUG")))
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(&slowQueryHook{threshold: dm.config.SlowQueryTime, manager: dm})
	}
	for _, hook := range dm.hooks {
		db.AddQueryHook(hook)
	}
	return db, nil
}

func (dm *defaultDatabaseManager) tunePool(sqlDB *sql.DB) {
	if dm.config.IsMemory() {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}
	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)
}

func (dm *defaultDatabaseManager) connectTimeout() time.Duration {
	if dm.config.ConnectTimeout > 0 {
		return dm.config.ConnectTimeout
	}
	return 30 * time.Second
}

func (dm *defaultDatabaseManager) Disconnect() error {
	dm.stopOnce.Do(func() { close(dm.stopWatch) })
	return dm.closeDB()
}

func (dm *defaultDatabaseManager) closeDB() error {
	dm.mu.Lock()
	db := dm.db
	dm.db = nil
	dm.mu.Unlock()
	if db == nil {
		return nil
	}

	if err := db.Close(); err != nil {
		dm.log().Error("Failed to close database connection", "error", err)
		return err
	}
	dm.log().Info("Database connection closed")
	return nil
}

func (dm *defaultDatabaseManager) Reconnect(ctx context.Context) error {
	dm.log().Info("Reconnecting to the database")
	if err := dm.closeDB(); err != nil {
		dm.log().Warn("Error closing previous connection", "error", err)
	}
	return dm.Connect(ctx)
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) GetSQLDB() *sql.DB {
	if db := dm.GetDB(); db != nil {
		return db.DB
	}
	return nil
}

// HealthCheck pings the database and records pool usage.
func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	start := time.Now()
	status := &HealthStatus{LastCheckTime: start}

	db := dm.GetDB()
	if db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err := db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)
	status.Connected = err == nil
	status.Healthy = err == nil
	if err != nil {
		status.LastError = err.Error()
	}

	stats := db.DB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

// watch runs periodic health checks and reconnects while allowed.
func (dm *defaultDatabaseManager) watch() {
	ticker := time.NewTicker(dm.config.HealthCheckInterval)
	defer ticker.Stop()
	failures := 0
	for {
		select {
		case <-dm.stopWatch:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		status := dm.HealthCheck(ctx)
		cancel()
		if status.Healthy {
			failures = 0
			continue
		}
		if !dm.config.EnableReconnect {
			continue
		}
		if failures >= dm.config.MaxReconnectTries {
			dm.log().Error("Max reconnect attempts reached", "tries", failures)
			continue
		}
		failures++
		time.Sleep(dm.config.ReconnectInterval)

		ctx, cancel = context.WithTimeout(context.Background(), dm.connectTimeout())
		if err := dm.Reconnect(ctx); err != nil {
			dm.log().Error("Reconnect failed", "error", err, "try", failures)
		}
		cancel()
	}
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	sqlDB := dm.GetSQLDB()
	if sqlDB == nil {
		return &DBStats{}
	}
	s := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      s.MaxOpenConnections,
		OpenConns:         s.OpenConnections,
		InUse:             s.InUse,
		Idle:              s.Idle,
		WaitCount:         s.WaitCount,
		WaitDuration:      s.WaitDuration,
		MaxIdleClosed:     s.MaxIdleClosed,
		MaxIdleTimeClosed: s.MaxIdleTimeClosed,
		MaxLifetimeClosed: s.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) RunMigrations(ctx context.Context) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, dm.log()).RunMigrations(ctx)
}

func (dm *defaultDatabaseManager) SeedFixtures(ctx context.Context, path string) error {
	db := dm.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	fixtures, err := LoadFixtures(path)
	if err != nil {
		return err
	}
	return fixtures.Seed(ctx, db, dm.log())
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}

// log falls back to the package logger when none was set.
func (dm *defaultDatabaseManager) log() Logger {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.logLocked()
}

func (dm *defaultDatabaseManager) logLocked() Logger {
	if dm.logger == nil {
		return GetLogger()
	}
	return dm.logger
}

type slowQueryHook struct {
	threshold time.Duration
	manager   *defaultDatabaseManager
}

func (h *slowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *slowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if event.Err != nil {
		return
	}
	if d := time.Since(event.StartTime); d > h.threshold {
		h.manager.log().Warn("Slow query", "duration", d, "threshold", h.threshold, "query", event.Query)
	}
}
