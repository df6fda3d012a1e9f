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
	"context"
	"fmt"

	"github.com/tomoncle/hummer-querydsl/database"
	"github.com/tomoncle/hummer-querydsl/model"
	"github.com/tomoncle/hummer-querydsl/predicate"
	"github.com/tomoncle/hummer-querydsl/types"
)

const (
	OpContent = "content"
	OpCount   = "count"
)

const loggerName = "SEARCH"

// Query is the content request handed to a DataSource. Orders excludes the
// primary key tiebreaker, which the data source appends.
type Query struct {
	Predicate predicate.Predicate
	Offset    int
	Limit     int
	Orders    []types.Order
}

// DataSource runs the two queries behind a page. Count must apply the same
// predicate and joins as Fetch and ignore paging.
type DataSource[T any] interface {
	Fetch(ctx context.Context, q Query) ([]T, error)
	Count(ctx context.Context, p predicate.Predicate) (int, error)
}

// Executor assembles pages from a DataSource, skipping the count query when
// the content alone determines the total.
type Executor[T any] struct {
	source DataSource[T]
	logger database.Logger
}

func NewExecutor[T any](source DataSource[T]) *Executor[T] {
	return &Executor[T]{source: source, logger: database.NewNamedLogger(loggerName)}
}

// Execute validates req, fetches the content window and resolves the total.
// No page is returned alongside an error.
func (e *Executor[T]) Execute(ctx context.Context, pred predicate.Predicate, req types.PageRequest) (*types.Page[T], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	content, err := e.source.Fetch(ctx, Query{
		Predicate: pred,
		Offset:    req.Offset,
		Limit:     req.Limit,
		Orders:    req.Orders,
	})
	if err != nil {
		return nil, NewQueryExecutionError(OpContent, err)
	}

	total, counted := totalFromContent(req.Offset, req.Limit, len(content))
	if !counted {
		total, err = e.source.Count(ctx, pred)
		if err != nil {
			return nil, NewQueryExecutionError(OpCount, err)
		}
	}

	e.logger.Debug("search page assembled",
		"predicate", pred.String(),
		"offset", req.Offset,
		"limit", req.Limit,
		"rows", len(content),
		"total", total,
		"count_skipped", counted)
	return types.NewPage(content, total, req), nil
}

// totalFromContent reports the total when the fetched window already proves
// it: an under-full first page, or an under-full non-empty later page. An
// empty later page says nothing since the offset may overshoot.
func totalFromContent(offset, limit, n int) (int, bool) {
	if n >= limit {
		return 0, false
	}
	if offset == 0 {
		return n, true
	}
	if n > 0 {
		return offset + n, true
	}
	return 0, false
}

// MemberSearcher pages member/team rows for a SearchCondition.
type MemberSearcher struct {
	executor *Executor[model.MemberTeamDto]
}

func NewMemberSearcher(source DataSource[model.MemberTeamDto]) *MemberSearcher {
	return &MemberSearcher{executor: NewExecutor(source)}
}

// Search returns one page of rows matching cond ordered by member id.
func (s *MemberSearcher) Search(ctx context.Context, cond model.SearchCondition, offset, limit int) (*types.Page[model.MemberTeamDto], error) {
	return s.executor.Execute(ctx, BuildPredicate(cond), types.NewPageRequest(offset, limit))
}

// SearchPage is Search with explicit ordering. Orders on fields outside the
// sortable set fail with ErrInvalidArgument before any query runs.
func (s *MemberSearcher) SearchPage(ctx context.Context, cond model.SearchCondition, req types.PageRequest) (*types.Page[model.MemberTeamDto], error) {
	if err := CheckSortable(req.Orders); err != nil {
		return nil, err
	}
	return s.executor.Execute(ctx, BuildPredicate(cond), req)
}

// CheckSortable rejects orders on fields members cannot be sorted by.
func CheckSortable(orders []types.Order) error {
	for _, o := range orders {
		if !model.IsSortable(o.Field) {
			return fmt.Errorf("%w: field %q is not sortable", ErrInvalidArgument, o.Field)
		}
	}
	return nil
}
