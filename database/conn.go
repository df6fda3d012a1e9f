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

	"github.com/uptrace/bun"
)

var (
	globalFactory *BaseDatabaseFactory
	globalConfig  *Config
)

// GetDB returns the global Bun database instance, or nil before InitDB.
func GetDB() *bun.DB {
	if globalFactory != nil {
		return globalFactory.GetDB()
	}
	return nil
}

// GetDatabaseManager returns the global database manager.
func GetDatabaseManager() AbstractDatabaseManager {
	if globalFactory != nil {
		return globalFactory.GetManager()
	}
	return nil
}

// GetDatabaseFactory returns the global database factory.
func GetDatabaseFactory() *BaseDatabaseFactory {
	return globalFactory
}

// InitDB initializes the global database using the provided configuration,
// running migrations and seeding fixtures as the config asks.
func InitDB(cfg *Config, hooks ...bun.QueryHook) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	globalConfig = cfg
	db, err := InitDatabaseWithOptions(cfg, cfg.DataMigrateConfig.EnableMigrateOnStartup, hooks...)
	if err != nil {
		return nil, err
	}
	if cfg.DataInitConfig.AutoInitOnStartup && cfg.DataInitConfig.FixturesFile != "" {
		if err := InitData(context.Background()); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// InitDatabaseWithOptions initializes the database and optionally runs migrations.
func InitDatabaseWithOptions(cfg *Config, runMigrations bool, hooks ...bun.QueryHook) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	factory := NewDatabaseFactory(hooks...)
	manager, err := factory.CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := factory.InitializeDatabase(context.Background(), runMigrations); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	globalFactory = factory
	db := manager.GetDB()
	db.RegisterModel(RegisteredModelInstances()...)
	return db, nil
}

// CloseDB closes the global database connection.
func CloseDB() error {
	if globalFactory == nil {
		return nil
	}
	err := globalFactory.Close()
	globalFactory = nil
	return err
}

// GetHealthStatus returns the current database health status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if globalFactory != nil {
		return globalFactory.GetHealthStatus(ctx)
	}
	return &HealthStatus{LastError: "Database not initialized"}
}

// GetDatabaseStats returns global database statistics.
func GetDatabaseStats() *DBStats {
	if globalFactory != nil {
		return globalFactory.GetStats()
	}
	return &DBStats{}
}

// RunMigrations executes database migrations on the global database.
func RunMigrations(ctx context.Context) error {
	manager := GetDatabaseManager()
	if manager == nil {
		return fmt.Errorf("database not initialized")
	}
	return manager.RunMigrations(ctx)
}

// InitData seeds the fixtures file named by the global configuration.
func InitData(ctx context.Context) error {
	if globalConfig == nil || globalConfig.DataInitConfig.FixturesFile == "" {
		return fmt.Errorf("no fixtures file configured")
	}
	return InitDataWithFile(ctx, globalConfig.DataInitConfig.FixturesFile)
}

// InitDataWithFile seeds the global database from the given fixtures file.
func InitDataWithFile(ctx context.Context, path string) error {
	manager := GetDatabaseManager()
	if manager == nil {
		return fmt.Errorf("database not initialized")
	}
	return manager.SeedFixtures(ctx, path)
}
