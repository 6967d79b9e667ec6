package reminder

import "errors"

var (
	ErrNotFound         = errors.New("reminder not found")
	ErrTitleRequired    = errors.New("title is required")
	ErrTitleTooLong     = errors.New("title exceeds 100 characters")
	ErrPastDue          = errors.New("due time must be in the future")
	ErrEditWindowClosed = errors.New("edit window closed")
	ErrNotInTrash       = errors.New("reminder is not in trash")
)
