package common

import "errors"

var (
	ErrBadSync    = errors.New("bad packet sync while reading transport stream packet")
	ErrShortRead  = errors.New("short read while reading transport stream packet")
	ErrShortWrite = errors.New("short write while writing transport stream packet")
	ErrLockHeld   = errors.New("output stream is locked by another process")
	ErrNoEntry    = errors.New("no entry with that name")
)
