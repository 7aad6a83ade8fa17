package core

// error_messages.go maps failures to user-friendly messages with codes for
// support reference. Kind-based mapping (errors.Is) takes priority; store
// failures are refined further by matching the driver's error text.
//
//	FILE001 - Source file not found
//	FILE002 - Source file unreadable
//	FILE003 - Missing header columns
//	FILE004 - Duplicate header columns
//	VAL001  - Row shape mismatch
//	VAL002  - Invalid number
//	VAL003  - Malformed CSV quoting
//	DB001   - Duplicate identifier
//	DB004   - Connection refused
//	DB005   - Connection reset
//	DB006   - Timeout
//	DB007   - Generic store failure
//	IMP001  - Rollback failed
//	ERR000  - Unexpected error

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern maps a case-insensitive substring of a store error to a message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// storePatterns refine ErrStore failures. First match wins.
var storePatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A card with this identifier already exists or appears twice in the file",
			Action:  "Remove duplicate uuid rows from the source file",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DATABASE_URL and that the database is running",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Run the import again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Raise IMPORT_TIMEOUT or import with a smaller --limit",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Raise IMPORT_TIMEOUT or import with a smaller --limit",
			Code:    "DB006",
		},
	},
}

var (
	msgFileNotFound = UserMessage{
		Message: "Source file not found",
		Action:  "Check the --file path or IMPORT_FILE",
		Code:    "FILE001",
	}
	msgFileUnreadable = UserMessage{
		Message: "Source file could not be read",
		Action:  "Check file permissions and that the path is a regular file",
		Code:    "FILE002",
	}
	msgMissingColumns = UserMessage{
		Message: "Source header is missing required card columns",
		Action:  "The header must include: " + strings.Join(CardColumns, ", "),
		Code:    "FILE003",
	}
	msgDuplicateColumns = UserMessage{
		Message: "Source header names a column more than once",
		Action:  "Remove or rename the repeated header columns",
		Code:    "FILE004",
	}
	msgRowShape = UserMessage{
		Message: "A row does not match the header column count",
		Action:  "Fix the reported line; no cards were imported",
		Code:    "VAL001",
	}
	msgInvalidNumber = UserMessage{
		Message: "A numeric field contains a non-numeric value",
		Action:  "Fix the reported value; no cards were imported",
		Code:    "VAL002",
	}
	msgBadQuoting = UserMessage{
		Message: "The file contains malformed CSV quoting",
		Action:  "Check for unbalanced quotes near the reported line",
		Code:    "VAL003",
	}
	msgStore = UserMessage{
		Message: "The database rejected the import",
		Action:  "Check the logs for the database error; no cards were imported",
		Code:    "DB007",
	}
	msgRollback = UserMessage{
		Message: "The import failed and could not be rolled back",
		Action:  "Inspect the target table manually before running again",
		Code:    "IMP001",
	}
)

// defaultMessage is returned when nothing else matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logs and try again",
	Code:    "ERR000",
}

// errMissingColumns is wrapped by the row reader when the header lacks columns.
var errMissingColumns = errors.New("missing required columns")

// errDuplicateColumns is wrapped when a header name repeats.
var errDuplicateColumns = errors.New("duplicate header columns")

// MapError converts an error to a user-friendly message.
// Returns the zero UserMessage for a nil error.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var parseErr *csv.ParseError

	switch {
	case errors.Is(err, ErrRollbackFailed):
		return msgRollback
	case errors.Is(err, ErrInput):
		if errors.Is(err, fs.ErrNotExist) {
			return msgFileNotFound
		}
		return msgFileUnreadable
	case errors.Is(err, ErrStructural):
		if errors.Is(err, errMissingColumns) {
			return msgMissingColumns
		}
		if errors.Is(err, errDuplicateColumns) {
			return msgDuplicateColumns
		}
		if errors.As(err, &parseErr) && !errors.Is(err, csv.ErrFieldCount) {
			return msgBadQuoting
		}
		return msgRowShape
	case errors.Is(err, ErrCoercion):
		return msgInvalidNumber
	case errors.Is(err, ErrStore):
		errStr := strings.ToLower(err.Error())
		for _, ep := range storePatterns {
			if strings.Contains(errStr, ep.pattern) {
				return ep.msg
			}
		}
		return msgStore
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
