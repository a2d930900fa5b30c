package service

import "errors"

var ErrNoArchive = errors.New("deck archive is not configured")
