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

package hummer

import (
	"context"
	"sync"

	"github.com/tomoncle/hummer-querydsl/database"
	"github.com/tomoncle/hummer-querydsl/model"
	"github.com/tomoncle/hummer-querydsl/predicate"
	"github.com/tomoncle/hummer-querydsl/repository"
	"github.com/tomoncle/hummer-querydsl/types"
	"github.com/uptrace/bun"
)

type Service[T any] interface {
	// Get returns a single entity by its identifier.
	Get(ctx context.Context, id any) (*T, error)

	// All returns all entities ordered by id.
	All(ctx context.Context) ([]*T, error)

	// List returns entities that match pred.
	List(ctx context.Context, pred predicate.Predicate, orders ...types.Order) ([]*T, error)

	// Count returns the number of entities matching pred.
	Count(ctx context.Context, pred predicate.Predicate) (int, error)

	// Page returns a window of entities matching pred.
	Page(ctx context.Context, pred predicate.Predicate, req types.PageRequest) (*types.Page[*T], error)

	// Save inserts one or more new entities.
	Save(ctx context.Context, model ...*T) error

	// Update modifies an existing entity.
	Update(ctx context.Context, model *T) error

	// Delete removes an entity by its identifier.
	Delete(ctx context.Context, id any) error

	// SelectBuilder returns a Bun select query builder.
	SelectBuilder() *bun.SelectQuery
}

type baseServiceImpl[T any] struct {
	repo repository.Repository[T]
	once sync.Once
}

// NewService returns a default Service implementation using the generic
// repository backed by the global database connection.
func NewService[T any]() Service[T] {
	return &baseServiceImpl[T]{}
}

func (s *baseServiceImpl[T]) baseRepo() repository.Repository[T] {
	s.once.Do(func() { s.repo = repository.NewRepository[T](database.GetDB()) })
	return s.repo
}

func (s *baseServiceImpl[T]) Get(ctx context.Context, id any) (*T, error) {
	return s.baseRepo().GetOne(ctx, id)
}

func (s *baseServiceImpl[T]) All(ctx context.Context) ([]*T, error) {
	return s.baseRepo().GetAll(ctx)
}

func (s *baseServiceImpl[T]) List(ctx context.Context, pred predicate.Predicate, orders ...types.Order) ([]*T, error) {
	return s.baseRepo().List(ctx, pred, orders...)
}

func (s *baseServiceImpl[T]) Count(ctx context.Context, pred predicate.Predicate) (int, error) {
	return s.baseRepo().Count(ctx, pred)
}

func (s *baseServiceImpl[T]) Page(ctx context.Context, pred predicate.Predicate, req types.PageRequest) (*types.Page[*T], error) {
	return s.baseRepo().Page(ctx, pred, req)
}

func (s *baseServiceImpl[T]) Save(ctx context.Context, model ...*T) error {
	return s.baseRepo().Create(ctx, model...)
}

func (s *baseServiceImpl[T]) Update(ctx context.Context, model *T) error {
	return s.baseRepo().Update(ctx, model)
}

func (s *baseServiceImpl[T]) Delete(ctx context.Context, id any) error {
	return s.baseRepo().Delete(ctx, id)
}

func (s *baseServiceImpl[T]) SelectBuilder() *bun.SelectQuery {
	return s.baseRepo().NewSelect()
}

// MemberService exposes member storage and the member/team searches.
type MemberService interface {
	Save(ctx context.Context, members ...*model.Member) error
	FindByID(ctx context.Context, id int64) (*model.Member, error)
	FindAll(ctx context.Context) ([]*model.Member, error)
	FindByUsername(ctx context.Context, username string) ([]*model.Member, error)
	Search(ctx context.Context, cond model.SearchCondition) ([]model.MemberTeamDto, error)
	SearchMembers(ctx context.Context, cond model.SearchCondition) ([]*model.Member, error)
	SearchPageSimple(ctx context.Context, cond model.SearchCondition, req types.PageRequest) (*types.Page[model.MemberTeamDto], error)
	SearchPageComplex(ctx context.Context, cond model.SearchCondition, req types.PageRequest) (*types.Page[model.MemberTeamDto], error)
	Teams() Service[model.Team]
}

type memberServiceImpl struct {
	repo  *repository.MemberRepository
	teams Service[model.Team]
	once  sync.Once
}

// NewMemberService binds to the global database on first use, so it may be
// created before database.InitDB runs.
func NewMemberService() MemberService {
	return &memberServiceImpl{teams: NewService[model.Team]()}
}

func (s *memberServiceImpl) memberRepo() *repository.MemberRepository {
	s.once.Do(func() { s.repo = repository.NewMemberRepository(database.GetDB()) })
	return s.repo
}

func (s *memberServiceImpl) Teams() Service[model.Team] { return s.teams }

func (s *memberServiceImpl) Save(ctx context.Context, members ...*model.Member) error {
	return s.memberRepo().Save(ctx, members...)
}

func (s *memberServiceImpl) FindByID(ctx context.Context, id int64) (*model.Member, error) {
	return s.memberRepo().FindByID(ctx, id)
}

func (s *memberServiceImpl) FindAll(ctx context.Context) ([]*model.Member, error) {
	return s.memberRepo().FindAll(ctx)
}

func (s *memberServiceImpl) FindByUsername(ctx context.Context, username string) ([]*model.Member, error) {
	return s.memberRepo().FindByUsername(ctx, username)
}

func (s *memberServiceImpl) Search(ctx context.Context, cond model.SearchCondition) ([]model.MemberTeamDto, error) {
	return s.memberRepo().Search(ctx, cond)
}

func (s *memberServiceImpl) SearchMembers(ctx context.Context, cond model.SearchCondition) ([]*model.Member, error) {
	return s.memberRepo().SearchMembers(ctx, cond)
}

func (s *memberServiceImpl) SearchPageSimple(ctx context.Context, cond model.SearchCondition, req types.PageRequest) (*types.Page[model.MemberTeamDto], error) {
	return s.memberRepo().SearchPageSimple(ctx, cond, req)
}

func (s *memberServiceImpl) SearchPageComplex(ctx context.Context, cond model.SearchCondition, req types.PageRequest) (*types.Page[model.MemberTeamDto], error) {
	return s.memberRepo().SearchPageComplex(ctx, cond, req)
}
