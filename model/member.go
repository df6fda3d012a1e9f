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

package model

import (
	"fmt"
	"strings"

	"github.com/tomoncle/hummer-querydsl/database"
	"github.com/tomoncle/hummer-querydsl/predicate"
	"github.com/tomoncle/hummer-querydsl/types"
	"github.com/uptrace/bun"
)

// Columns searchable and sortable through predicates. The aliases match the
// bun table aliases of Member (m) and Team (t).
const (
	FieldMemberID       predicate.Field = "m.id"
	FieldMemberUsername predicate.Field = "m.username"
	FieldMemberAge      predicate.Field = "m.age"
	FieldTeamID         predicate.Field = "t.id"
	FieldTeamName       predicate.Field = "t.name"
)

var sortFields = map[string]predicate.Field{
	"id":       FieldMemberID,
	"username": FieldMemberUsername,
	"age":      FieldMemberAge,
	"team_id":  FieldTeamID,
	"team":     FieldTeamName,
}

func init() {
	database.RegisterModel(database.NewModelAdapter((*Team)(nil), 10))
	database.RegisterModel(database.NewModelAdapter((*Member)(nil), 20))
}

type Team struct {
	bun.BaseModel `bun:"table:team,alias:t"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id" yaml:"id"`
	Name string `bun:"name,notnull" json:"name" yaml:"name"`

	Members []*Member `bun:"rel:has-many,join:id=team_id" json:"-" yaml:"-"`
}

type Member struct {
	bun.BaseModel `bun:"table:member,alias:m"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id" yaml:"id"`
	Username string `bun:"username,notnull" json:"username" yaml:"username"`
	Age      int    `bun:"age,notnull" json:"age" yaml:"age"`
	TeamID   *int64 `bun:"team_id" json:"team_id,omitempty" yaml:"team_id"`

	Team *Team `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty" yaml:"-"`
}

// ForeignKeys implements database.ForeignKeyModel.
func (*Member) ForeignKeys() []string {
	return []string{"(team_id) REFERENCES team (id) ON DELETE SET NULL"}
}

// Indexes implements database.IndexedModel.
func (*Member) Indexes() []database.IndexSpec {
	return []database.IndexSpec{
		{Name: "idx_member_username", Columns: []string{"username"}},
		{Name: "idx_member_team_id", Columns: []string{"team_id"}},
	}
}

// NewMember builds a member, optionally assigned to team.
func NewMember(username string, age int, team *Team) *Member {
	m := &Member{Username: username, Age: age}
	m.ChangeTeam(team)
	return m
}

// ChangeTeam moves the member to team, or out of any team when team is nil.
func (m *Member) ChangeTeam(team *Team) {
	m.Team = team
	if team == nil {
		m.TeamID = nil
		return
	}
	id := team.ID
	m.TeamID = &id
}

// MemberTeamDto is the flat projection of a member left-joined to its team.
// Team columns are nil for members without a team.
type MemberTeamDto struct {
	MemberID int64   `bun:"member_id" json:"member_id"`
	Username string  `bun:"username" json:"username"`
	Age      int     `bun:"age" json:"age"`
	TeamID   *int64  `bun:"team_id" json:"team_id"`
	TeamName *string `bun:"team_name" json:"team_name"`
}

// Value implements predicate.Row.
func (d MemberTeamDto) Value(f predicate.Field) (interface{}, bool) {
	switch f {
	case FieldMemberID:
		return d.MemberID, true
	case FieldMemberUsername:
		return d.Username, true
	case FieldMemberAge:
		return d.Age, true
	case FieldTeamID:
		if d.TeamID == nil {
			return nil, false
		}
		return *d.TeamID, true
	case FieldTeamName:
		if d.TeamName == nil {
			return nil, false
		}
		return *d.TeamName, true
	}
	return nil, false
}

func (d MemberTeamDto) String() string {
	team := "<none>"
	if d.TeamName != nil {
		team = *d.TeamName
	}
	return fmt.Sprintf("MemberTeamDto(%d, %s, %d, %s)", d.MemberID, d.Username, d.Age, team)
}

// ParseOrder parses "field" or "field:desc" / "field:asc" where field is one
// of id, username, age, team_id, team. The error wraps types.ErrInvalidArgument.
func ParseOrder(s string) (types.Order, error) {
	name, dir, _ := strings.Cut(strings.TrimSpace(s), ":")
	field, ok := sortFields[strings.ToLower(name)]
	if !ok {
		return types.Order{}, fmt.Errorf("%w: unknown sort field %q", types.ErrInvalidArgument, name)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return types.Asc(field), nil
	case "desc":
		return types.Desc(field), nil
	}
	return types.Order{}, fmt.Errorf("%w: unknown sort direction %q", types.ErrInvalidArgument, dir)
}

// IsSortable reports whether f may appear in an ORDER BY.
func IsSortable(f predicate.Field) bool {
	for _, v := range sortFields {
		if v == f {
			return true
		}
	}
	return false
}
