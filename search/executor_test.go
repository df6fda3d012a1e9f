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
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/hummer-querydsl/database"
	"github.com/tomoncle/hummer-querydsl/model"
	"github.com/tomoncle/hummer-querydsl/predicate"
	"github.com/tomoncle/hummer-querydsl/types"
)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

func sampleRows() []model.MemberTeamDto {
	return []model.MemberTeamDto{
		{MemberID: 1, Username: "member1", Age: 10, TeamID: int64Ptr(1), TeamName: strPtr("teamA")},
		{MemberID: 2, Username: "member2", Age: 20, TeamID: int64Ptr(1), TeamName: strPtr("teamA")},
		{MemberID: 3, Username: "member3", Age: 30, TeamID: int64Ptr(2), TeamName: strPtr("teamB")},
		{MemberID: 4, Username: "member4", Age: 40, TeamID: int64Ptr(2), TeamName: strPtr("teamB")},
	}
}

// memorySource evaluates queries over a slice and counts calls.
type memorySource struct {
	rows       []model.MemberTeamDto
	fetchCalls int
	countCalls int
	fetchErr   error
	countErr   error
	lastQuery  Query
}

func (s *memorySource) matching(p predicate.Predicate) []model.MemberTeamDto {
	out := make([]model.MemberTeamDto, 0, len(s.rows))
	for _, r := range s.rows {
		if p.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s *memorySource) Fetch(ctx context.Context, q Query) ([]model.MemberTeamDto, error) {
	s.fetchCalls++
	s.lastQuery = q
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	rows := s.matching(q.Predicate)
	orders := append(append([]types.Order{}, q.Orders...), types.Asc(model.FieldMemberID))
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compareField(rows[i], rows[j], o.Field)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	if q.Offset >= len(rows) {
		return []model.MemberTeamDto{}, nil
	}
	rows = rows[q.Offset:]
	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func (s *memorySource) Count(ctx context.Context, p predicate.Predicate) (int, error) {
	s.countCalls++
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.matching(p)), nil
}

func compareField(a, b model.MemberTeamDto, f predicate.Field) int {
	av, _ := a.Value(f)
	bv, _ := b.Value(f)
	switch x := av.(type) {
	case string:
		y, _ := bv.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	default:
		xs, ys := fmt.Sprint(av), fmt.Sprint(bv)
		if len(xs) != len(ys) {
			return len(xs) - len(ys)
		}
		switch {
		case xs < ys:
			return -1
		case xs > ys:
			return 1
		}
	}
	return 0
}

func newSearcher(rows []model.MemberTeamDto) (*MemberSearcher, *memorySource) {
	src := &memorySource{rows: rows}
	return NewMemberSearcher(src), src
}

func usernames(rows []model.MemberTeamDto) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Username
	}
	return out
}

func TestSearchSkipsCountOnUnderfullFirstPage(t *testing.T) {
	s, src := newSearcher(sampleRows())

	page, err := s.Search(context.Background(), model.SearchCondition{}, 0, 10)
	require.NoError(t, err)
	assert.Len(t, page.Content, 4)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, src.fetchCalls)
	assert.Equal(t, 0, src.countCalls)
}

func TestSearchScenarioTeamAndAgeRange(t *testing.T) {
	s, src := newSearcher(sampleRows())

	page, err := s.Search(context.Background(), model.SearchCondition{
		AgeGoe:   model.IntPtr(35),
		AgeLoe:   model.IntPtr(40),
		TeamName: "teamB",
	}, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	got := page.Content[0]
	assert.Equal(t, "member4", got.Username)
	assert.Equal(t, 40, got.Age)
	require.NotNil(t, got.TeamName)
	assert.Equal(t, "teamB", *got.TeamName)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 0, src.countCalls)
}

func TestSearchPageOrderedByNameDesc(t *testing.T) {
	s, src := newSearcher(sampleRows())

	req := types.NewPageRequest(1, 2, types.Desc(model.FieldMemberUsername))
	page, err := s.SearchPage(context.Background(), model.SearchCondition{}, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"member3", "member2"}, usernames(page.Content))
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 1, src.countCalls)
}

func TestSearchFullFirstPageRunsCount(t *testing.T) {
	s, src := newSearcher(sampleRows())

	page, err := s.Search(context.Background(), model.SearchCondition{}, 0, 4)
	require.NoError(t, err)
	assert.Len(t, page.Content, 4)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, src.countCalls)
}

func TestSearchUnderfullLaterPageSkipsCount(t *testing.T) {
	s, src := newSearcher(sampleRows())

	page, err := s.Search(context.Background(), model.SearchCondition{}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"member4"}, usernames(page.Content))
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 0, src.countCalls)
}

func TestSearchEmptyLaterPageRunsCount(t *testing.T) {
	s, src := newSearcher(sampleRows())

	page, err := s.Search(context.Background(), model.SearchCondition{}, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Content)
	assert.NotNil(t, page.Content)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, src.countCalls)
}

func TestSearchContentNeverExceedsLimit(t *testing.T) {
	s, _ := newSearcher(sampleRows())
	for offset := 0; offset <= 5; offset++ {
		for limit := 1; limit <= 5; limit++ {
			page, err := s.Search(context.Background(), model.SearchCondition{}, offset, limit)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(page.Content), limit)
			assert.Equal(t, 4, page.Total, "offset=%d limit=%d", offset, limit)
		}
	}
}

func TestSearchIsIdempotent(t *testing.T) {
	s, _ := newSearcher(sampleRows())
	cond := model.SearchCondition{TeamName: "teamA"}

	first, err := s.Search(context.Background(), cond, 0, 1)
	require.NoError(t, err)
	second, err := s.Search(context.Background(), cond, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSearchRejectsInvalidPaging(t *testing.T) {
	tests := []struct {
		name          string
		offset, limit int
	}{
		{"negative offset", -1, 10},
		{"zero limit", 0, 0},
		{"negative limit", 0, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, src := newSearcher(sampleRows())
			page, err := s.Search(context.Background(), model.SearchCondition{}, tt.offset, tt.limit)
			assert.Nil(t, page)
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Zero(t, src.fetchCalls)
			assert.Zero(t, src.countCalls)
		})
	}
}

func TestSearchPageRejectsUnsortableField(t *testing.T) {
	s, src := newSearcher(sampleRows())

	req := types.NewPageRequest(0, 10, types.Asc("m.password"))
	_, err := s.SearchPage(context.Background(), model.SearchCondition{}, req)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	var qe *QueryExecutionError
	assert.False(t, errors.As(err, &qe))
	assert.Zero(t, src.fetchCalls)
	assert.Zero(t, src.countCalls)
}

func TestSearchWrapsFetchError(t *testing.T) {
	s, src := newSearcher(sampleRows())
	src.fetchErr = errors.New("connection reset")

	page, err := s.Search(context.Background(), model.SearchCondition{}, 0, 10)
	assert.Nil(t, page)

	var qe *QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, OpContent, qe.Op)
	assert.ErrorIs(t, err, src.fetchErr)
	assert.Zero(t, src.countCalls)
}

func TestSearchWrapsCountError(t *testing.T) {
	s, src := newSearcher(sampleRows())
	src.countErr = fmt.Errorf("count: %w", sql.ErrConnDone)

	page, err := s.Search(context.Background(), model.SearchCondition{}, 0, 2)
	assert.Nil(t, page)

	var qe *QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, OpCount, qe.Op)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "count query failed")
}

func TestQueryExecutionErrorKind(t *testing.T) {
	s, src := newSearcher(sampleRows())
	src.fetchErr = errors.New("no such table: member")

	_, err := s.Search(context.Background(), model.SearchCondition{}, 0, 10)
	var qe *QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, database.NoTableErr, qe.Kind)
}

func TestExecutorPassesQueryThrough(t *testing.T) {
	src := &memorySource{rows: sampleRows()}
	exec := NewExecutor[model.MemberTeamDto](src)
	pred := BuildPredicate(model.SearchCondition{TeamName: "teamA"})

	req := types.NewPageRequest(0, 5, types.Desc(model.FieldMemberAge))
	page, err := exec.Execute(context.Background(), pred, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"member2", "member1"}, usernames(page.Content))
	assert.Equal(t, pred, src.lastQuery.Predicate)
	assert.Equal(t, req.Orders, src.lastQuery.Orders)
}

func TestTotalFromContent(t *testing.T) {
	tests := []struct {
		offset, limit, n int
		total            int
		known            bool
	}{
		{0, 10, 4, 4, true},
		{0, 10, 0, 0, true},
		{0, 4, 4, 0, false},
		{5, 10, 3, 8, true},
		{5, 10, 0, 0, false},
		{5, 3, 3, 0, false},
	}
	for _, tt := range tests {
		total, known := totalFromContent(tt.offset, tt.limit, tt.n)
		assert.Equal(t, tt.known, known, "%+v", tt)
		if tt.known {
			assert.Equal(t, tt.total, total, "%+v", tt)
		}
	}
}

func TestExecutorLogsUnderSearchName(t *testing.T) {
	e := NewExecutor[model.MemberTeamDto](&memorySource{})
	dl, ok := e.logger.(*database.DefaultLogger)
	require.True(t, ok)
	assert.Equal(t, "SEARCH", dl.Name())
}
