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
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"github.com/uptrace/bun"
)

var silentMode atomic.Bool

// EnableSilent mutes QueryHook output, e.g. while migrations run.
func EnableSilent(b bool) {
	silentMode.Store(b)
}

// QueryHook prints executed statements colored by operation. With verbose
// off only failing statements are printed. The env variable named by EnvName,
// when set, overrides both switches: "0" or empty disables, "2" is verbose.
type QueryHook struct {
	EnvName string
	Enabled bool
	Verbose bool
	Writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if silentMode.Load() {
		return
	}
	enabled, verbose := h.Enabled, h.Verbose
	if h.EnvName != "" {
		if env, ok := os.LookupEnv(h.EnvName); ok {
			enabled = env != "" && env != "0"
			verbose = env == "2"
		}
	}
	if !enabled {
		return
	}
	if !verbose {
		switch {
		case event.Err == nil, errors.Is(event.Err, sql.ErrNoRows), errors.Is(event.Err, sql.ErrTxDone):
			return
		}
	}

	now := time.Now()
	args := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		color.CyanString("%10s", "[BUN]"),
		fmt.Sprintf("%12s", now.Sub(event.StartTime).Round(time.Microsecond)),
		" ", operationColor(event.Operation()).Sprint(event.Query),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		args = append(args, "\t", color.New(color.BgRed).Sprintf(" %s ", typ+": "+event.Err.Error()))
	}

	w := h.Writer
	if w == nil {
		w = os.Stdout
	}
	_, _ = fmt.Fprintln(w, args...)
}

func operationColor(operation string) *color.Color {
	switch operation {
	case "SELECT":
		return color.New(color.FgGreen)
	case "INSERT":
		return color.New(color.FgBlue)
	case "UPDATE":
		return color.New(color.FgYellow)
	case "DELETE":
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgRed)
	}
}

// QueryCounter counts statements per operation. Attach it to a db to assert
// how many round trips a call made.
type QueryCounter struct {
	mu      sync.Mutex
	counts  map[string]int
	queries []string
}

var _ bun.QueryHook = (*QueryCounter)(nil)

func NewQueryCounter() *QueryCounter {
	return &QueryCounter{counts: make(map[string]int)}
}

func (c *QueryCounter) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (c *QueryCounter) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[event.Operation()]++
	c.queries = append(c.queries, event.Query)
}

// Count returns the number of statements seen for operation, e.g. "SELECT".
func (c *QueryCounter) Count(operation string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[strings.ToUpper(operation)]
}

// Queries returns a copy of every statement seen, in execution order.
func (c *QueryCounter) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.queries))
	copy(out, c.queries)
	return out
}

func (c *QueryCounter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[string]int)
	c.queries = nil
}
