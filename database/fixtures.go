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

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"gopkg.in/yaml.v3"
)

// resetSequenceSQL moves a postgres id sequence past the highest seeded id.
const resetSequenceSQL = "SELECT setval(pg_get_serial_sequence(?, 'id'), (SELECT COALESCE(MAX(id), 0) + 1 FROM ?), false)"

// Fixtures is a YAML document of rows to insert, table by table, in order:
//
//	tables:
//	  - table: team
//	    rows:
//	      - {id: 1, name: teamA}
//	  - table: member
//	    rows:
//	      - {id: 1, username: member1, age: 10, team_id: 1}
type Fixtures struct {
	Tables []TableFixture `yaml:"tables"`
}

// TableFixture holds the rows of a single table keyed by column name.
type TableFixture struct {
	Table string                   `yaml:"table"`
	Rows  []map[string]interface{} `yaml:"rows"`
}

// LoadFixtures reads and parses a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixtures file: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures parses a fixtures document.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	for i, t := range fx.Tables {
		if t.Table == "" {
			return nil, fmt.Errorf("fixtures table #%d has no name", i)
		}
	}
	return &fx, nil
}

// Seed inserts every row inside one transaction; either all rows land or none.
func (fx *Fixtures) Seed(ctx context.Context, db bun.IDB, logger Logger) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, t := range fx.Tables {
			for _, row := range t.Rows {
				values := row
				if _, err := tx.NewInsert().Model(&values).TableExpr("?", bun.Ident(t.Table)).Exec(ctx); err != nil {
					return fmt.Errorf("failed to seed table %s: %w", t.Table, err)
				}
			}
			if tx.Dialect().Name() == dialect.PG && t.hasExplicitIDs() {
				if _, err := tx.NewRaw(resetSequenceSQL, t.Table, bun.Ident(t.Table)).Exec(ctx); err != nil {
					return fmt.Errorf("failed to reset id sequence of %s: %w", t.Table, err)
				}
			}
			if logger != nil {
				logger.Info("Fixtures seeded", "table", t.Table, "rows", len(t.Rows))
			}
		}
		return nil
	})
}

func (t TableFixture) hasExplicitIDs() bool {
	for _, row := range t.Rows {
		if _, ok := row["id"]; ok {
			return true
		}
	}
	return false
}
