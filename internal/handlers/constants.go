package handlers

const (
	ErrInvalidJSON         = "Invalid JSON body"
	ErrUnauthorized        = "Unauthorized"
	ErrTooManyRequests     = "Too many login attempts, please try again later"
	ErrInternalServerError = "Internal server error"
	ErrVerseNotFound       = "Verse not found"

	maxBodyBytes = 1 << 20
)
