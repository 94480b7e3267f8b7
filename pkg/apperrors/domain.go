package apperrors

import (
	"net/http"
)

/*
Factories and predefined variables for the business-logic errors of the
verification workflow. Repositories return their own sentinel errors; the
service layer converts them here before they reach a handler.
*/

// =========================================================================
// Factories (used to wrap repository errors)
// =========================================================================

// ErrNotFound converts a repository "not found" (e.g. gorm.ErrRecordNotFound)
// into a 404 AppError.
func ErrNotFound(err error) *AppError {
	return Wrap(err, CodeNotFound, "resource", "Resource not found", http.StatusNotFound)
}

// ErrAlreadyExists converts a uniqueness violation into a 409 AppError.
func ErrAlreadyExists(err error) *AppError {
	return Wrap(err, CodeAlreadyExists, "resource", "Resource already exists", http.StatusConflict)
}

// ErrConflict is the generic 409 factory.
func ErrConflict(err error, domain, message string) *AppError {
	return Wrap(err, CodeConflict, domain, message, http.StatusConflict)
}

// ErrInvalidOperation is the generic 400 factory for operations that are not
// allowed in the current state.
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}

// ErrStorageUnavailable wraps an object-storage failure. The caller must not
// record a document row when it sees this.
func ErrStorageUnavailable(err error) *AppError {
	return Wrap(err, CodeExternalServiceError, "storage", "File storage is unavailable", http.StatusBadGateway)
}

// =========================================================================
// Auth / account
// =========================================================================

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrInvalidToken = New(
	CodeInvalidToken,
	"auth",
	"Invalid or expired token",
	http.StatusUnauthorized,
)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"An account with this email already exists",
	http.StatusConflict,
)

var ErrWeakPassword = New(
	CodeValidationFailed,
	"auth",
	"Password must be at least 6 characters long",
	http.StatusBadRequest,
)

var ErrInvalidUserRole = New(
	CodeInvalidOperation,
	"auth",
	"Invalid role for this operation",
	http.StatusBadRequest,
)

var ErrAccountBanned = New(
	CodeForbidden,
	"auth",
	"This account has been banned",
	http.StatusForbidden,
)

var ErrAccountInactive = New(
	CodeForbidden,
	"auth",
	"Account is not active; verification must be completed first",
	http.StatusForbidden,
)

var ErrAdminRequired = New(
	CodeForbidden,
	"auth",
	"Administrator privileges required",
	http.StatusForbidden,
)

// =========================================================================
// Verification codes
// =========================================================================

// ErrCodeFormat: the submitted code has the wrong length or contains
// non-digits. Detected before any backend lookup.
var ErrCodeFormat = New(
	CodeValidationFailed,
	"verification",
	"Verification code has an invalid format",
	http.StatusBadRequest,
)

// ErrCodeMismatch: the code does not match the most recently issued one,
// has expired, or was already consumed.
var ErrCodeMismatch = New(
	CodeInvalidOperation,
	"verification",
	"Verification code is incorrect or no longer valid",
	http.StatusBadRequest,
)

// ErrStepOrder: the operation is not allowed at the account's current
// verification step.
func ErrStepOrder(message string) *AppError {
	return New(CodeInvalidStatus, "verification", message, http.StatusConflict)
}

// =========================================================================
// Documents & review
// =========================================================================

var ErrInvalidFileType = New(
	CodeValidationFailed,
	"documents",
	"Only JPEG and PNG files are accepted",
	http.StatusUnsupportedMediaType,
)

var ErrFileTooLarge = New(
	CodeLimitExceeded,
	"documents",
	"File size exceeds the 5 MiB limit",
	http.StatusRequestEntityTooLarge,
)

var ErrDocumentAlreadyReviewed = New(
	CodeConflict,
	"review",
	"Document has already been reviewed",
	http.StatusConflict,
)

var ErrRejectionReasonRequired = New(
	CodeValidationFailed,
	"review",
	"A rejection reason is required",
	http.StatusBadRequest,
)

// ErrApprovalPrecondition: approveAccount called while one of the required
// document types is not approved. This is the server-side guard; the UI
// "enabled" flag is advisory only.
var ErrApprovalPrecondition = New(
	CodePreconditionFail,
	"review",
	"All required documents (id_front, id_back, selfie) must be approved before account approval",
	http.StatusConflict,
)
