package event

import "errors"

var (
	ErrEventNotFound = errors.New("event not found")
	ErrTierNotFound  = errors.New("ticket tier not found")
	ErrSlugTaken     = errors.New("event slug already exists")
)
