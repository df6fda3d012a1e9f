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
	"strings"

	"github.com/tomoncle/hummer-querydsl/model"
	"github.com/tomoncle/hummer-querydsl/predicate"
)

// BuildPredicate turns cond into a conjunction of its present filters. A
// condition with nothing set yields the identity predicate.
func BuildPredicate(cond model.SearchCondition) predicate.Predicate {
	return predicate.True().And(
		UsernameEq(cond.Username),
		TeamNameEq(cond.TeamName),
		AgeGoe(cond.AgeGoe),
		AgeLoe(cond.AgeLoe),
	)
}

// UsernameEq returns nil for a blank name.
func UsernameEq(username string) *predicate.Clause {
	if isBlank(username) {
		return nil
	}
	return predicate.Eq(model.FieldMemberUsername, username)
}

// TeamNameEq returns nil for a blank name.
func TeamNameEq(teamName string) *predicate.Clause {
	if isBlank(teamName) {
		return nil
	}
	return predicate.Eq(model.FieldTeamName, teamName)
}

func AgeGoe(age *int) *predicate.Clause {
	if age == nil {
		return nil
	}
	return predicate.Goe(model.FieldMemberAge, *age)
}

func AgeLoe(age *int) *predicate.Clause {
	if age == nil {
		return nil
	}
	return predicate.Loe(model.FieldMemberAge, *age)
}

// AgeBetween combines both inclusive bounds; either may be nil.
func AgeBetween(goe, loe *int) predicate.Predicate {
	return predicate.True().And(AgeGoe(goe), AgeLoe(loe))
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
