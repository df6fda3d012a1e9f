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
	"fmt"
	"strings"

	"github.com/tomoncle/hummer-querydsl/model"
	"github.com/tomoncle/hummer-querydsl/predicate"
	"github.com/tomoncle/hummer-querydsl/search"
	"github.com/tomoncle/hummer-querydsl/types"
	"github.com/uptrace/bun"
)

// MemberRepository stores members and runs the member/team searches.
type MemberRepository struct {
	Repository[model.Member]
	Teams Repository[model.Team]

	source   search.DataSource[model.MemberTeamDto]
	searcher *search.MemberSearcher
}

func NewMemberRepository(db *bun.DB) *MemberRepository {
	source := NewMemberTeamSource(db)
	return &MemberRepository{
		Repository: NewRepository[model.Member](db),
		Teams:      NewRepository[model.Team](db),
		source:     source,
		searcher:   search.NewMemberSearcher(source),
	}
}

// Save inserts members in one transaction. Members carrying a Team whose id
// is still unset get that team inserted first.
func (r *MemberRepository) Save(ctx context.Context, members ...*model.Member) error {
	if len(members) == 0 {
		return nil
	}
	return r.DB().RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, m := range members {
			if m.Team != nil && m.Team.ID == 0 {
				if err := r.Teams.CreateWithTx(ctx, tx, m.Team); err != nil {
					return fmt.Errorf("save team %q: %w", m.Team.Name, err)
				}
			}
			if m.Team != nil {
				m.ChangeTeam(m.Team)
			}
		}
		return r.CreateWithTx(ctx, tx, members...)
	})
}

// FindByID returns database.ErrNotFound when no member has id.
func (r *MemberRepository) FindByID(ctx context.Context, id int64) (*model.Member, error) {
	return r.GetOne(ctx, id)
}

func (r *MemberRepository) FindAll(ctx context.Context) ([]*model.Member, error) {
	return r.GetAll(ctx)
}

// FindByUsername returns members named username ordered by id. A blank name
// matches nobody and issues no query.
func (r *MemberRepository) FindByUsername(ctx context.Context, username string) ([]*model.Member, error) {
	if strings.TrimSpace(username) == "" {
		return []*model.Member{}, nil
	}
	return r.List(ctx, predicate.True().And(predicate.Eq(model.FieldMemberUsername, username)))
}

// Search returns every row matching cond, ordered by member id.
func (r *MemberRepository) Search(ctx context.Context, cond model.SearchCondition) ([]model.MemberTeamDto, error) {
	rows, err := r.source.Fetch(ctx, search.Query{Predicate: search.BuildPredicate(cond)})
	if err != nil {
		return nil, search.NewQueryExecutionError(search.OpContent, err)
	}
	return rows, nil
}

// SearchMembers returns the members matching cond with their Team loaded.
func (r *MemberRepository) SearchMembers(ctx context.Context, cond model.SearchCondition) ([]*model.Member, error) {
	members := make([]*model.Member, 0)
	q := r.NewSelect().
		Model(&members).
		Relation("Team").
		Join(teamJoin)
	err := search.BuildPredicate(cond).Apply(q).
		OrderExpr("? ASC", bun.Ident(string(model.FieldMemberID))).
		Scan(ctx)
	if err != nil {
		return nil, search.NewQueryExecutionError(search.OpContent, err)
	}
	return members, nil
}

// SearchPageSimple always counts first and fetches content only when
// something matches.
func (r *MemberRepository) SearchPageSimple(ctx context.Context, cond model.SearchCondition, req types.PageRequest) (*types.Page[model.MemberTeamDto], error) {
	if err := validatePageRequest(req); err != nil {
		return nil, err
	}
	pred := search.BuildPredicate(cond)
	total, err := r.source.Count(ctx, pred)
	if err != nil {
		return nil, search.NewQueryExecutionError(search.OpCount, err)
	}
	if total == 0 {
		return types.NewPage[model.MemberTeamDto](nil, 0, req), nil
	}
	content, err := r.source.Fetch(ctx, search.Query{
		Predicate: pred,
		Offset:    req.Offset,
		Limit:     req.Limit,
		Orders:    req.Orders,
	})
	if err != nil {
		return nil, search.NewQueryExecutionError(search.OpContent, err)
	}
	return types.NewPage(content, total, req), nil
}

// SearchPageComplex runs the content query first and issues the count query
// only when the window does not determine the total.
func (r *MemberRepository) SearchPageComplex(ctx context.Context, cond model.SearchCondition, req types.PageRequest) (*types.Page[model.MemberTeamDto], error) {
	if err := validatePageRequest(req); err != nil {
		return nil, err
	}
	return r.searcher.SearchPage(ctx, cond, req)
}

func validatePageRequest(req types.PageRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	return search.CheckSortable(req.Orders)
}
