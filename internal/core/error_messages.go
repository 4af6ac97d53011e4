package core

// error_messages.go maps technical errors to user-friendly messages with a
// support code. Codes are grouped by category:
//
//	FILE001 - File too large        Patterns: "file too large", "request body too large"
//	FILE002 - Invalid CSV           Sentinel: ErrParse
//	FILE004 - No file               Patterns: "no file provided"
//	FILE005 - Empty file            Sentinel: ErrEmptyFile
//	IO001   - Read/write failed     Sentinel: ErrIO
//	UPL003  - Server busy           Sentinel: ErrBusy
//	UPL004  - Request cancelled     Sentinel: context.Canceled
//	UPL005  - Request timeout       Sentinel: context.DeadlineExceeded
//	ERR000  - Unknown error         Fallback
//
// Sentinels are checked with errors.Is first. Patterns are then matched
// case-insensitively with strings.Contains; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgTooLarge = UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Check for unbalanced quotes in the file",
		Code:    "FILE002",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to convert",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a file with question/answer rows",
		Code:    "FILE005",
	}
	msgIO = UserMessage{
		Message: "The file could not be read or written",
		Action:  "Check that the path exists and is accessible",
		Code:    "IO001",
	}
	msgBusy = UserMessage{
		Message: "The server is busy converting other files",
		Action:  "Wait a few seconds and try again",
		Code:    "UPL003",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgDefault = UserMessage{
		Message: "An unexpected error occurred",
		Action:  "Please try again or contact support",
		Code:    "ERR000",
	}
)

// errorSentinels are checked in order with errors.Is. ErrParse comes before
// ErrIO so a parse failure is never reported as a generic I/O problem.
var errorSentinels = []struct {
	target error
	msg    UserMessage
}{
	{ErrParse, msgInvalidCSV},
	{ErrEmptyFile, msgEmptyFile},
	{ErrBusy, msgBusy},
	{context.DeadlineExceeded, msgTimeout},
	{context.Canceled, msgCancelled},
	{ErrIO, msgIO},
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"file too large", msgTooLarge},
	{"request body too large", msgTooLarge},
	{"no file provided", msgNoFile},
}

// MapError converts a technical error to a user-friendly message.
// A nil error yields the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range errorSentinels {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.pattern) {
			return p.msg
		}
	}

	return msgDefault
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != msgDefault.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Err error
	Msg UserMessage
}

func (e *UserError) Error() string { return e.Msg.Message }

func (e *UserError) Unwrap() error { return e.Err }

// NewUserError wraps err with its mapped message. It returns nil for nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Err: err, Msg: MapError(err)}
}
