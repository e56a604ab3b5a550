package domain

import "errors"

var (
	// ErrIO means a track file or folder could not be read.
	ErrIO = errors.New("io error")
	// ErrParse means a track file is not a well-formed track document.
	ErrParse = errors.New("parse error")
	// ErrCacheMiss means no cached dataset exists.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheCorrupt means a cached dataset exists but cannot be decoded.
	ErrCacheCorrupt = errors.New("cache corrupt")
	// ErrEmptyDataset means there is nothing to render.
	ErrEmptyDataset = errors.New("no gps data")
)
