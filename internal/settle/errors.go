package settle

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrLocked        = errors.New("document is locked")
	ErrInvalidInput  = errors.New("invalid input")
	ErrExpired       = errors.New("code expired")
)
