// Package repository holds the SQL data access for the marketplace. Every
// repository reads the live table shape through the schema package before it
// builds a statement, so the same code serves both schema generations.
//
// Errors leaving this package are classified with apperror: callers branch on
// apperror.ErrReferenceNotFound, ErrConflict and friends, never on driver
// errors.
package repository

import "errors"

// ErrUnresolved is returned by the Normalizer when an identifier matches no
// row in either key column. Callers translate it into a ReferenceNotFound
// naming the reference, or into an empty result for read paths.
var ErrUnresolved = errors.New("identifier does not resolve")
