package model

import "errors"

var (
	ErrRevisionNotFound = errors.New("revision not found")
	ErrRollbackExpired  = errors.New("rollback window expired")
	ErrRollbackUsed     = errors.New("rollback already used")
	ErrJobNotFound      = errors.New("replacement job not found")
	ErrChunkNotFound    = errors.New("replacement chunk not found")
	ErrArticleNotFound  = errors.New("article not found")
)
