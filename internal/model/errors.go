package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrInvalidName = errors.New("invalid player name")

	// Room errors
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotInRoom        = errors.New("player is not in this room")
	ErrGameInProgress   = errors.New("game is in progress")
	ErrNoGameInProgress = errors.New("no game in progress")
	ErrSequenceFinished = errors.New("question sequence already finished")
	ErrAlreadyAnswered  = errors.New("question already answered")
	ErrNotEnoughWords   = errors.New("not enough words in the library")

	// Word library errors
	ErrWordNotFound       = errors.New("word not found")
	ErrWordExists         = errors.New("word already exists")
	ErrInvalidWord        = errors.New("invalid word")
	ErrImageNotFound      = errors.New("no image found for word")
	ErrImageFetchDisabled = errors.New("image fetching is disabled")
)
