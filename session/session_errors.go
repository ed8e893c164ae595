package session

import "errors"

var (
	ErrNoCredentials = errors.New("no stored credentials")
)
