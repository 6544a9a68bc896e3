// Package query resolves read requests against the store. It applies the
// selection policy for partially addressed queries, clamps line limits,
// and evaluates optional substring and CEL expression filters.
package query
