package smt

import "errors"

var (
	// ErrNodeNotFound means an interior node referenced from the current
	// root is missing from the node map. The tree is corrupted or partially
	// loaded; the operation must not be retried.
	ErrNodeNotFound = errors.New("node not found in tree")
)
