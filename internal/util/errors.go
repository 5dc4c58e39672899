package util

import "errors"

// Ownership failures deliberately surface as the not-found sentinels so a
// non-owner cannot tell an existing test set from a missing one.
var (
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPartNotFound       = errors.New("part not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrTestSetNotFound    = errors.New("test set not found")
	ErrTestSetCompleted   = errors.New("test set already completed")
	ErrBookmarkNotFound   = errors.New("bookmark not found")
	ErrAlreadyBookmarked  = errors.New("question already bookmarked")
	ErrUserNotFound       = errors.New("user not found")
	ErrOptionSet          = errors.New("questions need 3-4 distinct options with exactly one correct")
	ErrFileTooLarge       = errors.New("file exceeds the 10MB upload limit")
	ErrUnsupportedMedia   = errors.New("only image and audio files are allowed")
	ErrInvalidToken       = errors.New("invalid token")
)
