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
	"sort"
	"sync"
)

var defaultRegistry = newModelRegistry()

// SQLModel represents a table created by the base migration. Instance returns
// a Bun model pointer; Priority orders table creation (lower first), so
// referenced tables must have a lower priority than the tables pointing at them.
type SQLModel interface {
	Instance() interface{}
	Priority() int
}

// ForeignKeyModel is implemented by models whose CREATE TABLE carries foreign
// key clauses, e.g. "(team_id) REFERENCES team (id) ON DELETE SET NULL".
type ForeignKeyModel interface {
	ForeignKeys() []string
}

// IndexSpec names a secondary index on a model's table.
type IndexSpec struct {
	Name    string
	Columns []string
	Unique  bool
}

// IndexedModel is implemented by models that declare secondary indexes.
type IndexedModel interface {
	Indexes() []IndexSpec
}

// ModelRegistry stores SQL models and exposes them in a deterministic order.
type ModelRegistry interface {
	Register(model SQLModel)
	Models() []SQLModel
}

type modelRegistry struct {
	models []SQLModel
	mutex  sync.RWMutex
}

func newModelRegistry() ModelRegistry {
	return &modelRegistry{}
}

func (r *modelRegistry) Register(model SQLModel) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.models = append(r.models, model)
}

func (r *modelRegistry) Models() []SQLModel {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]SQLModel, len(r.models))
	copy(result, r.models)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority() < result[j].Priority()
	})
	return result
}

type modelAdapter struct {
	instance interface{}
	priority int
}

// NewModelAdapter wraps a Bun model pointer and priority into an SQLModel.
func NewModelAdapter(instance interface{}, priority int) SQLModel {
	return &modelAdapter{instance: instance, priority: priority}
}

func (a *modelAdapter) Instance() interface{} { return a.instance }

func (a *modelAdapter) Priority() int { return a.priority }

// GetRegisteredModels returns the default registry's models by ascending priority.
func GetRegisteredModels() []SQLModel {
	return defaultRegistry.Models()
}

// RegisterModel adds a model to the default registry.
func RegisterModel(model SQLModel) {
	defaultRegistry.Register(model)
}

func RegisteredModelInstances() []interface{} {
	models := GetRegisteredModels()
	instances := make([]interface{}, len(models))
	for i, model := range models {
		instances[i] = model.Instance()
	}
	return instances
}
