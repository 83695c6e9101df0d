package apperr

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrUnknownJointType = errors.New("unknown joint type")
)
