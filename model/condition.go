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

// SearchCondition holds optional member filters. Blank strings and nil bounds
// mean "no constraint"; AgeGoe and AgeLoe are inclusive and independent.
type SearchCondition struct {
	Username string `json:"username,omitempty"`
	TeamName string `json:"team_name,omitempty"`
	AgeGoe   *int   `json:"age_goe,omitempty"`
	AgeLoe   *int   `json:"age_loe,omitempty"`
}

// IntPtr is a helper for filling the optional age bounds.
func IntPtr(v int) *int { return &v }
