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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/hummer-querydsl/database"
	"github.com/tomoncle/hummer-querydsl/model"
	"github.com/tomoncle/hummer-querydsl/predicate"
	"github.com/tomoncle/hummer-querydsl/search"
	"github.com/tomoncle/hummer-querydsl/types"
	"github.com/uptrace/bun"
)

func newTestDB(t *testing.T, migrate bool, hooks ...bun.QueryHook) *bun.DB {
	t.Helper()
	cfg := database.MemoryConfig()
	mgr := database.NewDatabaseManager(&cfg.ConnectionConfig, hooks...)
	ctx := context.Background()
	require.NoError(t, mgr.Connect(ctx))
	t.Cleanup(func() { _ = mgr.Disconnect() })
	if migrate {
		require.NoError(t, mgr.RunMigrations(ctx))
	}
	return mgr.GetDB()
}

// newSeededRepo stores member1..member4 aged 10..40, the first two in teamA
// and the others in teamB.
func newSeededRepo(t *testing.T) (*MemberRepository, *database.QueryCounter) {
	t.Helper()
	counter := database.NewQueryCounter()
	repo := NewMemberRepository(newTestDB(t, true, counter))

	teamA := &model.Team{Name: "teamA"}
	teamB := &model.Team{Name: "teamB"}
	require.NoError(t, repo.Save(context.Background(),
		model.NewMember("member1", 10, teamA),
		model.NewMember("member2", 20, teamA),
		model.NewMember("member3", 30, teamB),
		model.NewMember("member4", 40, teamB),
	))
	counter.Reset()
	return repo, counter
}

func names(rows []model.MemberTeamDto) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Username
	}
	return out
}

func TestSaveAssignsTeamIDs(t *testing.T) {
	repo, _ := newSeededRepo(t)
	ctx := context.Background()

	members, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, members, 4)
	for _, m := range members {
		require.NotNil(t, m.TeamID)
		assert.NotZero(t, *m.TeamID)
	}
	assert.Equal(t, *members[0].TeamID, *members[1].TeamID)
	assert.NotEqual(t, *members[1].TeamID, *members[2].TeamID)

	teams, err := repo.Teams.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, teams, 2)
}

func TestFindByID(t *testing.T) {
	repo, _ := newSeededRepo(t)
	ctx := context.Background()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)

	m, err := repo.FindByID(ctx, all[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "member3", m.Username)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestFindByUsername(t *testing.T) {
	repo, counter := newSeededRepo(t)
	ctx := context.Background()

	found, err := repo.FindByUsername(ctx, "member2")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 20, found[0].Age)

	counter.Reset()
	blank, err := repo.FindByUsername(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, blank)
	assert.Zero(t, counter.Count("SELECT"))
}

func TestSearchScenario(t *testing.T) {
	repo, _ := newSeededRepo(t)

	rows, err := repo.Search(context.Background(), model.SearchCondition{
		AgeGoe:   model.IntPtr(35),
		AgeLoe:   model.IntPtr(40),
		TeamName: "teamB",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "member4", rows[0].Username)
	assert.Equal(t, 40, rows[0].Age)
	require.NotNil(t, rows[0].TeamName)
	assert.Equal(t, "teamB", *rows[0].TeamName)
}

func TestSearchBlankFiltersMatchAll(t *testing.T) {
	repo, _ := newSeededRepo(t)

	rows, err := repo.Search(context.Background(), model.SearchCondition{Username: " ", TeamName: ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"member1", "member2", "member3", "member4"}, names(rows))
}

func TestSearchKeepsMembersWithoutTeam(t *testing.T) {
	repo, _ := newSeededRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, model.NewMember("solo", 50, nil)))

	rows, err := repo.Search(ctx, model.SearchCondition{AgeGoe: model.IntPtr(45)})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "solo", rows[0].Username)
	assert.Nil(t, rows[0].TeamID)
	assert.Nil(t, rows[0].TeamName)

	rows, err = repo.Search(ctx, model.SearchCondition{TeamName: "teamA"})
	require.NoError(t, err)
	assert.Equal(t, []string{"member1", "member2"}, names(rows))
}

func TestSearchMembersLoadsTeam(t *testing.T) {
	repo, _ := newSeededRepo(t)

	members, err := repo.SearchMembers(context.Background(), model.SearchCondition{TeamName: "teamB"})
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "member3", members[0].Username)
	assert.Equal(t, "member4", members[1].Username)
	require.NotNil(t, members[0].Team)
	assert.Equal(t, "teamB", members[0].Team.Name)
}

func TestSearchPageComplexSkipsCount(t *testing.T) {
	repo, counter := newSeededRepo(t)

	page, err := repo.SearchPageComplex(context.Background(), model.SearchCondition{}, types.NewPageRequest(0, 10))
	require.NoError(t, err)
	assert.Len(t, page.Content, 4)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, counter.Count("SELECT"))
}

func TestSearchPageComplexOrderedByNameDesc(t *testing.T) {
	repo, counter := newSeededRepo(t)

	req := types.NewPageRequest(1, 2, types.Desc(model.FieldMemberUsername))
	page, err := repo.SearchPageComplex(context.Background(), model.SearchCondition{}, req)
	require.NoError(t, err)
	assert.Equal(t, []string{"member3", "member2"}, names(page.Content))
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, page.Offset)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, 2, counter.Count("SELECT"))
}

func TestSearchPageComplexRejectsUnsortableField(t *testing.T) {
	repo, counter := newSeededRepo(t)

	req := types.NewPageRequest(0, 10, types.Asc("m.password"))
	_, err := repo.SearchPageComplex(context.Background(), model.SearchCondition{}, req)
	assert.ErrorIs(t, err, search.ErrInvalidArgument)
	assert.Zero(t, counter.Count("SELECT"))
}

func TestSearchPageComplexClassifiesErrors(t *testing.T) {
	repo := NewMemberRepository(newTestDB(t, false))

	_, err := repo.SearchPageComplex(context.Background(), model.SearchCondition{}, types.NewPageRequest(0, 10))
	var qe *search.QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, search.OpContent, qe.Op)
	assert.Equal(t, database.NoTableErr, qe.Kind)
}

func TestSearchVariantsClassifyErrors(t *testing.T) {
	repo := NewMemberRepository(newTestDB(t, false))
	ctx := context.Background()

	_, err := repo.SearchPageSimple(ctx, model.SearchCondition{}, types.NewPageRequest(0, 10))
	var qe *search.QueryExecutionError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, search.OpCount, qe.Op)
	assert.Equal(t, database.NoTableErr, qe.Kind)

	_, err = repo.Search(ctx, model.SearchCondition{TeamName: "teamA"})
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, search.OpContent, qe.Op)
	assert.Equal(t, database.NoTableErr, qe.Kind)

	_, err = repo.SearchMembers(ctx, model.SearchCondition{})
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, search.OpContent, qe.Op)
	assert.Equal(t, database.NoTableErr, qe.Kind)
}

func TestSearchPageSimpleAlwaysCounts(t *testing.T) {
	repo, counter := newSeededRepo(t)
	ctx := context.Background()

	page, err := repo.SearchPageSimple(ctx, model.SearchCondition{TeamName: "teamA"}, types.NewPageRequest(0, 10))
	require.NoError(t, err)
	assert.Equal(t, []string{"member1", "member2"}, names(page.Content))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, counter.Count("SELECT"))

	counter.Reset()
	empty, err := repo.SearchPageSimple(ctx, model.SearchCondition{Username: "nobody"}, types.NewPageRequest(0, 10))
	require.NoError(t, err)
	assert.Empty(t, empty.Content)
	assert.Zero(t, empty.Total)
	assert.Equal(t, 1, counter.Count("SELECT"))
}

func TestSearchPageSimpleRejectsInvalidPaging(t *testing.T) {
	repo, counter := newSeededRepo(t)

	_, err := repo.SearchPageSimple(context.Background(), model.SearchCondition{}, types.NewPageRequest(-1, 10))
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	assert.Zero(t, counter.Count("SELECT"))
}

func TestTeamRepository(t *testing.T) {
	repo, _ := newSeededRepo(t)
	teams := repo.Teams
	ctx := context.Background()

	byName := predicate.True().And(predicate.Eq(model.FieldTeamName, "teamA"))
	found, err := teams.List(ctx, byName)
	require.NoError(t, err)
	require.Len(t, found, 1)

	n, err := teams.Count(ctx, predicate.True())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	teamA := found[0]
	teamA.Name = "teamAlpha"
	require.NoError(t, teams.Update(ctx, teamA))
	got, err := teams.GetOne(ctx, teamA.ID)
	require.NoError(t, err)
	assert.Equal(t, "teamAlpha", got.Name)

	require.NoError(t, teams.Create(ctx, &model.Team{Name: "teamC"}))
	page, err := teams.Page(ctx, predicate.True(), types.NewPageRequest(0, 2, types.Desc(model.FieldTeamName)))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "teamC", page.Content[0].Name)
	assert.Equal(t, "teamB", page.Content[1].Name)

	require.NoError(t, teams.Delete(ctx, page.Content[0].ID))
	_, err = teams.GetOne(ctx, page.Content[0].ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
