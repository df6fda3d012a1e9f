// Package model defines the member and team tables, the search condition,
// and the flat member/team projection returned by searches.
package model
