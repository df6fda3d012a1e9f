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

package predicate

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

// Field is a qualified column reference such as "m.username".
type Field string

// Op is a comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGoe Op = ">="
	OpLoe Op = "<="
)

func (o Op) valid() bool {
	switch o {
	case OpEq, OpGoe, OpLoe:
		return true
	}
	return false
}

// Clause is a single tagged comparison: Field Op Value.
type Clause struct {
	Field Field
	Op    Op
	Value interface{}
}

func (c Clause) String() string {
	return fmt.Sprintf("%s %s %v", c.Field, c.Op, c.Value)
}

// Eq returns a Field = value clause.
func Eq(f Field, value interface{}) *Clause { return &Clause{Field: f, Op: OpEq, Value: value} }

// Goe returns a Field >= value clause.
func Goe(f Field, value interface{}) *Clause { return &Clause{Field: f, Op: OpGoe, Value: value} }

// Loe returns a Field <= value clause.
func Loe(f Field, value interface{}) *Clause { return &Clause{Field: f, Op: OpLoe, Value: value} }

// Predicate is a conjunction of clauses. The zero value has no clauses and
// matches every row. Predicates are immutable: And and Merge return copies.
type Predicate struct {
	clauses []Clause
}

// True returns the identity predicate.
func True() Predicate { return Predicate{} }

// And returns p extended with the given clauses. nil clauses are skipped, so
// optional filters can be passed straight through.
func (p Predicate) And(clauses ...*Clause) Predicate {
	out := Predicate{clauses: make([]Clause, len(p.clauses), len(p.clauses)+len(clauses))}
	copy(out.clauses, p.clauses)
	for _, c := range clauses {
		if c != nil {
			out.clauses = append(out.clauses, *c)
		}
	}
	return out
}

// Merge returns the conjunction of p and other.
func (p Predicate) Merge(other Predicate) Predicate {
	out := Predicate{clauses: make([]Clause, 0, len(p.clauses)+len(other.clauses))}
	out.clauses = append(out.clauses, p.clauses...)
	out.clauses = append(out.clauses, other.clauses...)
	return out
}

// IsTrue reports whether p is the identity predicate.
func (p Predicate) IsTrue() bool { return len(p.clauses) == 0 }

// Clauses returns a copy of the clauses in insertion order.
func (p Predicate) Clauses() []Clause {
	out := make([]Clause, len(p.clauses))
	copy(out, p.clauses)
	return out
}

func (p Predicate) String() string {
	if p.IsTrue() {
		return "TRUE"
	}
	parts := make([]string, len(p.clauses))
	for i, c := range p.clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " AND ")
}

// Apply adds one WHERE condition per clause to q. Bun joins consecutive
// Where calls with AND; the identity predicate leaves q untouched.
func (p Predicate) Apply(q *bun.SelectQuery) *bun.SelectQuery {
	for _, c := range p.clauses {
		if !c.Op.valid() {
			panic(fmt.Sprintf("predicate: unsupported operator %q", c.Op))
		}
		q = q.Where("? "+string(c.Op)+" ?", bun.Ident(string(c.Field)), c.Value)
	}
	return q
}

// Row exposes column values for in-memory evaluation. ok is false when the
// column is NULL, e.g. team columns of a member without a team.
type Row interface {
	Value(f Field) (v interface{}, ok bool)
}

// Matches evaluates p against r with SQL semantics: any comparison involving
// NULL is false.
func (p Predicate) Matches(r Row) bool {
	for _, c := range p.clauses {
		v, ok := r.Value(c.Field)
		if !ok || !compare(v, c.Op, c.Value) {
			return false
		}
	}
	return true
}

func compare(left interface{}, op Op, right interface{}) bool {
	if ls, ok := left.(string); ok {
		rs, ok := right.(string)
		if !ok {
			return false
		}
		return cmpResult(strings.Compare(ls, rs), op)
	}
	li, lok := toInt64(left)
	ri, rok := toInt64(right)
	if !lok || !rok {
		return false
	}
	switch {
	case li < ri:
		return cmpResult(-1, op)
	case li > ri:
		return cmpResult(1, op)
	default:
		return cmpResult(0, op)
	}
}

func cmpResult(c int, op Op) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpGoe:
		return c >= 0
	case OpLoe:
		return c <= 0
	}
	return false
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case *int:
		if n == nil {
			return 0, false
		}
		return int64(*n), true
	case *int64:
		if n == nil {
			return 0, false
		}
		return *n, true
	}
	return 0, false
}
