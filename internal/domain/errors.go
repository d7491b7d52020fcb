package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNoQuote          = errors.New("no quote available")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrWSDisconnect     = errors.New("websocket disconnected")
)
