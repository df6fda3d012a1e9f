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

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomoncle/hummer-querydsl/database"
	"github.com/tomoncle/hummer-querydsl/predicate"
	"github.com/tomoncle/hummer-querydsl/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db *bun.DB
}

// NewRepository returns a generic repository backed by the provided Bun DB.
func NewRepository[T any](db *bun.DB) Repository[T] {
	return &baseRepositoryImpl[T]{db: db}
}

func (r *baseRepositoryImpl[T]) DB() *bun.DB { return r.db }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id any) (*T, error) {
	var entity T
	err := r.db.NewSelect().Model(&entity).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id=%v", database.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	return r.List(ctx, predicate.True())
}

// List returns entities matching pred. Fields in pred must use the model's
// table alias. Results are ordered by orders, then by id.
func (r *baseRepositoryImpl[T]) List(ctx context.Context, pred predicate.Predicate, orders ...types.Order) ([]*T, error) {
	entities := make([]*T, 0)
	query := pred.Apply(r.db.NewSelect().Model(&entities))
	query = applyOrders(query, orders).OrderExpr("?TableAlias.id ASC")
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context, pred predicate.Predicate) (int, error) {
	return pred.Apply(r.db.NewSelect().Model((*T)(nil))).Count(ctx)
}

// Page counts first and skips the content query when nothing matches.
func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pred predicate.Predicate, req types.PageRequest) (*types.Page[*T], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	total, err := r.Count(ctx, pred)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return types.NewPage[*T](nil, 0, req), nil
	}
	entities := make([]*T, 0, req.Limit)
	query := pred.Apply(r.db.NewSelect().Model(&entities))
	err = applyOrders(query, req.Orders).
		OrderExpr("?TableAlias.id ASC").
		Offset(req.Offset).
		Limit(req.Limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return types.NewPage(entities, total, req), nil
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	return r.CreateWithTx(ctx, r.db, entity...)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	return r.UpdateWithTx(ctx, r.db, entity)
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	return r.DeleteWithTx(ctx, r.db, id)
}

func (r *baseRepositoryImpl[T]) CreateWithTx(ctx context.Context, tx bun.IDB, entity ...*T) error {
	if len(entity) == 0 {
		return nil
	}
	entities := make([]*T, len(entity))
	copy(entities, entity)
	_, err := tx.NewInsert().Model(&entities).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) UpdateWithTx(ctx context.Context, tx bun.IDB, entity *T) error {
	_, err := tx.NewUpdate().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) DeleteWithTx(ctx context.Context, tx bun.IDB, id any) error {
	_, err := tx.NewDelete().Model((*T)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func applyOrders(q *bun.SelectQuery, orders []types.Order) *bun.SelectQuery {
	for _, o := range orders {
		if o.Desc {
			q = q.OrderExpr("? DESC", bun.Ident(string(o.Field)))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(string(o.Field)))
		}
	}
	return q
}
