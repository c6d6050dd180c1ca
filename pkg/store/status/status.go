// Package status exports errors produced by storage backends.
package status

import (
	"github.com/metabranch/metabranch/pkg/errors"
)

var (
	// ErrRefNotFound indicates a ref does not resolve
	ErrRefNotFound = errors.New("ref not found")

	// ErrObjectNotFound indicates a commit or blob id is unknown
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidUpdate indicates a malformed ref update request, such
	// as a deletion without the force flag
	ErrInvalidUpdate = errors.New("invalid ref update")
)
