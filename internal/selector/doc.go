// Package selector resolves ambiguous read addresses.
//
// A query may omit the origin or topic. The selector either picks the
// single unambiguous candidate, reports the full candidate list so the
// caller can disambiguate, or reports that the requested name does not
// exist. It never guesses between multiple candidates.
package selector
