package service

import "errors"

var (
	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("palmisland: client is closed")

	// ErrEmptyStory marks a story skipped by sync because its title or
	// content is empty.
	ErrEmptyStory = errors.New("story has empty title or content")

	// ErrPartialBatch indicates a sync run in which some records failed.
	ErrPartialBatch = errors.New("some stories failed to sync")
)
