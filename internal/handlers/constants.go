package handlers

// Common error message constants shared across handlers
const (
	ErrMsgStudentNotFound    = "Student not found"
	ErrMsgReportNotFound     = "Report not found"
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgPermissionDenied   = "Permission denied"
)
