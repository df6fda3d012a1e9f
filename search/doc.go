// Package search turns member search conditions into predicates and executes
// paginated searches, issuing the count query only when the content window
// cannot determine the total by itself.
package search
