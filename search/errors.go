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

package search

import (
	"fmt"

	"github.com/tomoncle/hummer-querydsl/database"
	"github.com/tomoncle/hummer-querydsl/types"
)

// ErrInvalidArgument is returned for bad paging before any query runs.
var ErrInvalidArgument = types.ErrInvalidArgument

// QueryExecutionError reports a failed content or count query. Err is the
// data source error, unchanged.
type QueryExecutionError struct {
	Op   string
	Kind database.SQLError
	Err  error
}

// NewQueryExecutionError wraps a failed op query, classifying err.
func NewQueryExecutionError(op string, err error) *QueryExecutionError {
	return &QueryExecutionError{Op: op, Kind: database.ClassifyError(err), Err: err}
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("search: %s query failed (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }
