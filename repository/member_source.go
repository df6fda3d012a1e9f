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

	"github.com/tomoncle/hummer-querydsl/model"
	"github.com/tomoncle/hummer-querydsl/predicate"
	"github.com/tomoncle/hummer-querydsl/search"
	"github.com/uptrace/bun"
)

const teamJoin = "LEFT JOIN team AS t ON t.id = m.team_id"

// memberTeamSource is the Bun backed search.DataSource for member/team rows.
type memberTeamSource struct {
	db bun.IDB
}

var _ search.DataSource[model.MemberTeamDto] = (*memberTeamSource)(nil)

// NewMemberTeamSource returns a search.DataSource selecting member rows left
// joined to their team.
func NewMemberTeamSource(db bun.IDB) search.DataSource[model.MemberTeamDto] {
	return &memberTeamSource{db: db}
}

func (s *memberTeamSource) joined(pred predicate.Predicate) *bun.SelectQuery {
	q := s.db.NewSelect().
		Model((*model.Member)(nil)).
		Join(teamJoin)
	return pred.Apply(q)
}

// Fetch returns the window in q ordered by q.Orders then member id. A zero
// limit returns every matching row.
func (s *memberTeamSource) Fetch(ctx context.Context, q search.Query) ([]model.MemberTeamDto, error) {
	if err := search.CheckSortable(q.Orders); err != nil {
		return nil, err
	}
	query := s.joined(q.Predicate).
		ColumnExpr("m.id AS member_id").
		ColumnExpr("m.username AS username").
		ColumnExpr("m.age AS age").
		ColumnExpr("t.id AS team_id").
		ColumnExpr("t.name AS team_name")
	query = applyOrders(query, q.Orders).OrderExpr("? ASC", bun.Ident(string(model.FieldMemberID)))
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	rows := make([]model.MemberTeamDto, 0)
	if err := query.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *memberTeamSource) Count(ctx context.Context, pred predicate.Predicate) (int, error) {
	return s.joined(pred).Count(ctx)
}
