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
	"reflect"
	"sort"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// MigrationManager applies versioned schema migrations built from the
// registered models and records them in the migration table.
type MigrationManager struct {
	db               *bun.DB
	logger           Logger
	enableForeignKey bool
}

// Migration represents an applied migration record stored in the database.
type Migration struct {
	bun.BaseModel `bun:"table:schema_migration"`

	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name,notnull"`
	AppliedAt   time.Time `bun:"applied_at,notnull"`
	Description string    `bun:"description"`
}

// MigrationFunc is a migration step executed within a transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem describes a single migration version with up/down functions.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// NewMigrationManager constructs a MigrationManager. Foreign keys follow the
// global configuration and default to on.
func NewMigrationManager(db *bun.DB, logger Logger) *MigrationManager {
	enableFK := true
	if globalConfig != nil {
		enableFK = globalConfig.DataMigrateConfig.EnableForeignKey
	}
	return &MigrationManager{db: db, logger: logger, enableForeignKey: enableFK}
}

// SetForeignKeys toggles foreign key clauses in CREATE TABLE statements.
func (mm *MigrationManager) SetForeignKeys(enable bool) {
	mm.enableForeignKey = enable
}

// RunMigrations creates the migration table if needed and applies every
// pending migration in ascending version order. Already applied versions are
// skipped, so the call is idempotent.
func (mm *MigrationManager) RunMigrations(ctx context.Context) error {
	if mm.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, ok := os.LookupEnv("HUMMER_SQL_MIGRATION"); !ok {
		EnableSilent(true)
		defer EnableSilent(false)
	}

	if err := mm.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, migration := range mm.getAllMigrations() {
		if err := mm.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	mm.info("Database migrations completed!")
	return nil
}

// GetAppliedMigrations returns migration records ordered by version.
func (mm *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := mm.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

// RollbackMigration runs the Down step of an applied version and removes its
// record. Rolling back a version that is not applied is a no-op.
func (mm *MigrationManager) RollbackMigration(ctx context.Context, version string) error {
	var target *MigrationItem
	for _, m := range mm.getAllMigrations() {
		if m.Version == version {
			m := m
			target = &m
			break
		}
	}
	if target == nil {
		return fmt.Errorf("unknown migration version: %s", version)
	}

	applied, err := mm.isApplied(ctx, version)
	if err != nil || !applied {
		return err
	}

	return mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if target.Down != nil {
			if err := target.Down(ctx, tx); err != nil {
				return err
			}
		}
		_, err := tx.NewDelete().
			Model((*Migration)(nil)).
			Where("version = ?", version).
			Exec(ctx)
		if err == nil {
			mm.info("Migration rolled back", "version", version, "name", target.Name)
		}
		return err
	})
}

func (mm *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := mm.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

func (mm *MigrationManager) getAllMigrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create the registered model tables",
			Up:          mm.createBaseTables,
			Down:        mm.dropBaseTables,
		},
		{
			Version:     "002",
			Name:        "create_indexes",
			Description: "Create secondary indexes declared by models",
			Up:          mm.createIndexes,
			Down:        mm.dropIndexes,
		},
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations
}

func (mm *MigrationManager) isApplied(ctx context.Context, version string) (bool, error) {
	return mm.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", version).
		Exists(ctx)
}

func (mm *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	applied, err := mm.isApplied(ctx, migration.Version)
	if err != nil || applied {
		return err
	}

	err = mm.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewInsert().
			Model(&Migration{
				Version:     migration.Version,
				Name:        migration.Name,
				AppliedAt:   time.Now(),
				Description: migration.Description,
			}).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}

	mm.info("Migration executed successfully", "version", migration.Version, "name", migration.Name)
	return nil
}

func (mm *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		q := db.NewCreateTable().Model(model).IfNotExists()
		if fkModel, ok := model.(ForeignKeyModel); ok && mm.enableForeignKey {
			for _, fk := range fkModel.ForeignKeys() {
				q = q.ForeignKey(fk)
			}
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table %s: %w", getModelName(model), err)
		}
	}
	return nil
}

func (mm *MigrationManager) dropBaseTables(ctx context.Context, db bun.IDB) error {
	models := RegisteredModelInstances()
	for i := len(models) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", getModelName(models[i]), err)
		}
	}
	return nil
}

func (mm *MigrationManager) createIndexes(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		indexed, ok := model.(IndexedModel)
		if !ok {
			continue
		}
		for _, idx := range indexed.Indexes() {
			q := db.NewCreateIndex().Model(model).Index(idx.Name).Column(idx.Columns...)
			if idx.Unique {
				q = q.Unique()
			}
			if db.Dialect().Name() != dialect.MySQL {
				q = q.IfNotExists()
			}
			if _, err := q.Exec(ctx); err != nil {
				return fmt.Errorf("failed to create index %s: %w", idx.Name, err)
			}
		}
	}
	return nil
}

func (mm *MigrationManager) dropIndexes(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		indexed, ok := model.(IndexedModel)
		if !ok {
			continue
		}
		for _, idx := range indexed.Indexes() {
			var err error
			if db.Dialect().Name() == dialect.MySQL {
				table := db.Dialect().Tables().Get(reflect.TypeOf(model))
				_, err = db.ExecContext(ctx, "DROP INDEX ? ON ?", bun.Ident(idx.Name), bun.Ident(table.Name))
			} else {
				_, err = db.NewDropIndex().Model(model).Index(idx.Name).IfExists().Exec(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to drop index %s: %w", idx.Name, err)
			}
		}
	}
	return nil
}

func (mm *MigrationManager) info(msg string, fields ...interface{}) {
	if mm.logger != nil {
		mm.logger.Info(msg, fields...)
	}
}

func getModelName(model interface{}) string {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
