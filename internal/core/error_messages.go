package core

// error_messages.go turns engine and infrastructure errors into messages an
// operator can act on. Each message carries a code that support can look up.
//
// # Import errors (IMP)
//
//	IMP001 - Required columns are missing           (*ValidationError)
//	IMP002 - Rows for the same person disagree      (*ConflictError)
//	IMP003 - Commit blocked by roster preconditions (*BlockingError)
//	IMP004 - Unknown import type                    (ErrUnknownProfile)
//	IMP005 - File has more rows than allowed        (ErrTooManyRows)
//	IMP006 - A cell holds an invalid number         ("invalid number")
//
// # File errors (FILE)
//
//	FILE001 - File too large        ("file too large", "request body too large")
//	FILE002 - Not a valid CSV       ("invalid csv")
//	FILE004 - No file selected      ("no file provided")
//	FILE005 - Empty file            (ErrEmptyFile)
//
// # Database errors (DB)
//
//	DB001 - Duplicate key           ("duplicate key")
//	DB003 - Missing referenced row  ("violates foreign key")
//	DB004 - Connection refused      ("connection refused")
//	DB005 - Connection reset        ("connection reset")
//	DB006 - Timeout                 ("timeout")
//	DB007 - Deadlock                ("deadlock")
//
// # Upload errors (UPL)
//
//	UPL002 - Too many imports running (ErrTooManyImports)
//	UPL004 - Request cancelled        ("context canceled")
//	UPL005 - Request timed out        ("context deadline exceeded")
//
// Anything else maps to ERR000; the technical error is in the server log.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is an error rendered for people.
type UserMessage struct {
	Message string
	Action  string
	Code    string
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgMissingColumns = UserMessage{
		Message: "Required columns are missing from the file",
		Action:  "Add the listed columns or rename headers to a supported spelling",
		Code:    "IMP001",
	}
	msgConflict = UserMessage{
		Message: "The file lists the same person more than once with different values",
		Action:  "Remove or reconcile the conflicting rows, then upload again. Nothing was saved",
		Code:    "IMP002",
	}
	msgBlocked = UserMessage{
		Message: "The import cannot be committed until roster issues are fixed",
		Action:  "Review the blocking warnings in the preview and correct the roster first",
		Code:    "IMP003",
	}
	msgUnknownProfile = UserMessage{
		Message: "Unknown import type",
		Action:  "Choose one of the listed import types",
		Code:    "IMP004",
	}
	msgTooManyRows = UserMessage{
		Message: "The file has more rows than a single import allows",
		Action:  "Split the file and import each part separately",
		Code:    "IMP005",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a CSV file with a header row",
		Code:    "FILE005",
	}
	msgTooManyImports = UserMessage{
		Message: "Too many imports are running",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
)

var errorPatterns = []errorPattern{
	{"invalid number", UserMessage{"A cell holds an invalid number", "Use whole numbers without symbols", "IMP006"}},

	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "FILE001"}},
	{"request body too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller parts", "FILE001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Save the sheet as comma-separated values and try again", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE004"}},

	{"duplicate key", UserMessage{"A record with this ID already exists", "Check the roster for duplicate ids", "DB001"}},
	{"violates foreign key", UserMessage{"A referenced record does not exist", "Make sure the team exists before importing", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to the database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or try again later", "UPL005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},
	{"deadlock", UserMessage{"The database was busy with conflicting changes", "Please try again", "DB007"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts err to a UserMessage. Typed engine errors are matched
// with errors.As / errors.Is; everything else by case-insensitive substring.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var (
		validation *ValidationError
		conflict   *ConflictError
		blocked    *BlockingError
	)
	switch {
	case errors.As(err, &validation):
		m := msgMissingColumns
		m.Message += ": " + strings.Join(validation.Missing, ", ")
		return m
	case errors.As(err, &conflict):
		return msgConflict
	case errors.As(err, &blocked):
		return msgBlocked
	case errors.Is(err, ErrUnknownProfile):
		return msgUnknownProfile
	case errors.Is(err, ErrTooManyRows):
		return msgTooManyRows
	case errors.Is(err, ErrEmptyFile):
		return msgEmptyFile
	case errors.Is(err, ErrTooManyImports):
		return msgTooManyImports
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	return err != nil && MapError(err).Code != defaultMessage.Code
}

// UserError keeps the technical error for logs next to the message shown
// to the user.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string { return e.User.Message }

func (e *UserError) Unwrap() error { return e.Technical }

// NewUserError maps err; it returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
