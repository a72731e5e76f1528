package service

import "errors"

// Failure kinds surfaced by the expense workflow and the attachment
// lifecycle; the API layer maps these to HTTP statuses.
var (
	ErrNoTargetUser              = errors.New("no target user available")
	ErrCardOwnershipMismatch     = errors.New("card does not belong to the target user")
	ErrUnsupportedAttachmentType = errors.New("attachment content type not allowed")
	ErrAttachmentTooLarge        = errors.New("attachment exceeds the maximum size")
	ErrForbidden                 = errors.New("caller may not perform this operation")
)
