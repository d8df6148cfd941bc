package exception

import "errors"

var (
	ErrNotSynced   = errors.New("book: replica not synced")
	ErrSequenceGap = errors.New("book: non-contiguous update id")
	ErrCrossedBook = errors.New("book: best bid crossed best ask")
	ErrEmptySide   = errors.New("book: side has no levels")
)
