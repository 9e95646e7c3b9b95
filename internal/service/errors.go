package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid name or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyUndone      = errors.New("spend record already undone")
	ErrConflict           = errors.New("record was created concurrently, please retry")
	ErrInsufficientPoints = errors.New("insufficient points")
)
