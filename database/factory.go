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
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// SQLEnvName turns on the colored QueryHook when set ("2" for verbose).
const SQLEnvName = "HUMMER_SQL"

var supportedTypes = []string{"mysql", "postgres", "postgresql", "sqlite", "sqlite3"}

// BaseDatabaseFactory creates and manages a configured database manager and
// provides helpers for initialization, health checks, and statistics.
type BaseDatabaseFactory struct {
	manager AbstractDatabaseManager
	logger  Logger
	hooks   []bun.QueryHook
}

// NewDatabaseFactory returns a new database factory using the global logger.
// hooks are attached to every connection the factory opens.
func NewDatabaseFactory(hooks ...bun.QueryHook) *BaseDatabaseFactory {
	return &BaseDatabaseFactory{
		logger: GetLogger(),
		hooks:  hooks,
	}
}

// CreateFromConfig constructs a database manager from the given connection
// configuration, applying environment overrides and setting the factory logger.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	f.overrideFromEnv(cfg)

	if !slices.Contains(supportedTypes, cfg.Type) {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, supportedTypes)
	}

	hooks := append([]bun.QueryHook{&QueryHook{EnvName: SQLEnvName, Writer: os.Stderr}}, f.hooks...)
	manager := NewDatabaseManager(cfg, hooks...)
	manager.SetLogger(f.logger)

	f.manager = manager
	return manager, nil
}

// envOverrides maps DB_* variables onto connection fields. Values that fail
// to parse are ignored.
var envOverrides = map[string]func(cfg *ConnectionConfig, v string){
	"DB_TYPE":     func(cfg *ConnectionConfig, v string) { cfg.Type = v },
	"DB_HOST":     func(cfg *ConnectionConfig, v string) { cfg.Host = v },
	"DB_USERNAME": func(cfg *ConnectionConfig, v string) { cfg.Username = v },
	"DB_PASSWORD": func(cfg *ConnectionConfig, v string) { cfg.Password = v },
	"DB_NAME":     func(cfg *ConnectionConfig, v string) { cfg.DBName = v },
	"DB_SSLMODE":  func(cfg *ConnectionConfig, v string) { cfg.SSLMode = v },
	"DB_PORT":     intEnv(func(cfg *ConnectionConfig, n int) { cfg.Port = n }),
	"DB_MAX_IDLE_CONNS": intEnv(func(cfg *ConnectionConfig, n int) {
		cfg.MaxIdleConns = n
	}),
	"DB_MAX_OPEN_CONNS": intEnv(func(cfg *ConnectionConfig, n int) {
		cfg.MaxOpenConns = n
	}),
	"DB_CONN_MAX_LIFETIME": intEnv(func(cfg *ConnectionConfig, n int) {
		cfg.ConnMaxLifetime = time.Duration(n) * time.Second
	}),
	"DB_ENABLE_QUERY_LOG": func(cfg *ConnectionConfig, v string) {
		cfg.EnableQueryLog = v == "true"
	},
}

func intEnv(set func(cfg *ConnectionConfig, n int)) func(*ConnectionConfig, string) {
	return func(cfg *ConnectionConfig, v string) {
		if n, err := strconv.Atoi(v); err == nil {
			set(cfg, n)
		}
	}
}

func (f *BaseDatabaseFactory) overrideFromEnv(cfg *ConnectionConfig) {
	for name, apply := range envOverrides {
		if v := os.Getenv(name); v != "" {
			apply(cfg, v)
		}
	}
}

// InitializeDatabase connects to the database and optionally runs migrations.
func (f *BaseDatabaseFactory) InitializeDatabase(ctx context.Context, runMigrations bool) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}

	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if runMigrations {
		if err := f.manager.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database initialization completed!")
	return nil
}

// GetManager returns the underlying database manager.
func (f *BaseDatabaseFactory) GetManager() AbstractDatabaseManager {
	return f.manager
}

// GetDB returns the Bun database instance, or nil if not initialized.
func (f *BaseDatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger sets the logger on the factory and the underlying manager.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

// Close closes the database connection managed by the factory.
func (f *BaseDatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus returns the current database health status from the manager.
func (f *BaseDatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			LastError:     "Database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns database connection statistics from the manager.
func (f *BaseDatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
