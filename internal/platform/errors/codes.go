package errors

import "errors"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Gate and concurrency errors
	CodeSaveBlocked    Code = "SAVE_BLOCKED"
	CodeConcurrentSave Code = "CONCURRENT_SAVE"
	CodeConcurrentLoad Code = "CONCURRENT_LOAD"

	// Capacity errors
	CodeSaveTooLarge Code = "SAVE_TOO_LARGE"
	CodeStorageFull  Code = "STORAGE_FULL"

	// Slot errors
	CodeEmptySlot   Code = "EMPTY_SLOT"
	CodeInvalidSlot Code = "INVALID_SLOT"

	// Document errors
	CodeCorruptSave        Code = "CORRUPT_SAVE"
	CodeUnsupportedVersion Code = "UNSUPPORTED_VERSION"
	CodeStructuralInvalid  Code = "STRUCTURAL_INVALID"
	CodeMigrationFailed    Code = "MIGRATION_FAILED"
	CodeImportRejected     Code = "IMPORT_REJECTED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// Fatal reports whether the code aborts an operation before any state
// change, as opposed to codes downgraded to warnings during restoration.
func (c Code) Fatal() bool {
	switch c {
	case CodeStructuralInvalid,
		CodeMigrationFailed,
		CodeUnsupportedVersion,
		CodeCorruptSave,
		CodeImportRejected:
		return true
	default:
		return false
	}
}
