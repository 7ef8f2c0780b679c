package model

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrLastTabProtected      = errors.New("a document must keep at least one tab")
	ErrLastDocumentProtected = errors.New("at least one document must remain")
	ErrEmptyName             = errors.New("name must not be empty")
)
