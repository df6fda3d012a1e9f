// Package predicate provides composable filter expressions: conjunctions of
// tagged comparison clauses that apply to Bun select queries or evaluate
// against rows in memory.
package predicate
