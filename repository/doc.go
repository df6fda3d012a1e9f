// Package repository provides a generic repository abstraction built on Bun
// for CRUD operations, predicate filtering, and pagination, plus the member
// repository with its Bun backed search data source.
package repository
