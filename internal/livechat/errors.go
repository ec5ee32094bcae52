package livechat

import "errors"

var (
	// ErrNoAdminAssigned means resolution returned NONE. This is an expected
	// state for newly registered or unassigned citizens, not a server fault.
	ErrNoAdminAssigned = errors.New("no admin assigned to your ward")
	// ErrForbidden means the administrator failed the jurisdiction check for
	// the targeted citizen.
	ErrForbidden = errors.New("admin does not have access to this user")
	// ErrNotFound means a referenced user id does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrEmptyContent means the message had neither text nor a media URL.
	ErrEmptyContent = errors.New("message content is required")
	// ErrContentTooLong means the text exceeded the 5000 character cap.
	ErrContentTooLong = errors.New("message is too long (max 5000 characters)")
	// ErrNotACitizen guards admin thread endpoints against targeting
	// another administrator.
	ErrNotACitizen = errors.New("target user is not a citizen")
)
