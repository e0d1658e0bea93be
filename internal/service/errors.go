package service

import (
	"errors"

	"github.com/clipfeed/clipfeed/internal/validation"
)

var (
	ErrMissingFile         = errors.New("a video file is required")
	ErrFileTooLarge        = errors.New("file too large")
	ErrNotFound            = errors.New("not found")
	ErrEmptyText           = errors.New("comment text is required")
	ErrValidation          = validation.ErrInvalid
	ErrRateLimited         = errors.New("please wait before commenting again")
	ErrAlreadyExists       = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUnauthorized        = errors.New("invalid or expired token")
	ErrBanned              = errors.New("account is banned")
	ErrPersistence         = errors.New("failed to persist changes")
	ErrIdentityUnavailable = errors.New("identity service unavailable")
)
