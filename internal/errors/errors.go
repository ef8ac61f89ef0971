// Package errors defines the application error model. Services return
// AppError values so handlers can map failures onto stable error codes
// and HTTP statuses without leaking internals to clients.
package errors

import "net/http"

// AppError couples a machine-readable code and client-safe message with
// the HTTP status it should produce. Internal carries the underlying
// cause for logging and errors.Is/As only; it is never serialized.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

// Unwrap exposes the internal cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap attaches an internal cause to a sentinel without mutating it.
func Wrap(sentinel *AppError, internal error) *AppError {
	clone := *sentinel
	clone.Internal = internal
	return &clone
}

// WithMessage replaces a sentinel's client-facing message, keeping its
// code and status.
func WithMessage(sentinel *AppError, message string) *AppError {
	clone := *sentinel
	clone.Message = message
	return &clone
}

func sentinel(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: status}
}

// Authentication and authorization.
var (
	ErrUnauthorized       = sentinel(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrInvalidCredentials = sentinel(http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	ErrForbidden          = sentinel(http.StatusForbidden, "FORBIDDEN", "Access denied")
	ErrAccountLocked      = sentinel(http.StatusLocked, "ACCOUNT_LOCKED", "Account is temporarily locked")
)

// General.
var (
	ErrInvalidInput   = sentinel(http.StatusBadRequest, "INVALID_INPUT", "Invalid input")
	ErrNotFound       = sentinel(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInternalServer = sentinel(http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
)

// Users.
var (
	ErrUserNotFound   = sentinel(http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	ErrDuplicateEmail = sentinel(http.StatusConflict, "DUPLICATE_EMAIL", "A user with this email already exists")
)

// Accounts.
var ErrAccountNotFound = sentinel(http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found")

// Categories.
var (
	ErrCategoryNotFound    = sentinel(http.StatusNotFound, "CATEGORY_NOT_FOUND", "Category not found")
	ErrCategoryInUse       = sentinel(http.StatusConflict, "CATEGORY_IN_USE", "Category is used by existing transactions")
	ErrCategoryHasChildren = sentinel(http.StatusConflict, "CATEGORY_HAS_CHILDREN", "Category has child categories")
	ErrSelfParentCategory  = sentinel(http.StatusBadRequest, "SELF_PARENT_CATEGORY", "A category cannot be its own parent")
)

// Transactions.
var (
	ErrTransactionNotFound    = sentinel(http.StatusNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found")
	ErrInvalidTransactionType = sentinel(http.StatusBadRequest, "INVALID_TRANSACTION_TYPE", "Unsupported transaction type")
	ErrInsufficientBalance    = sentinel(http.StatusBadRequest, "INSUFFICIENT_BALANCE", "Insufficient account balance")
	ErrSameAccountTransfer    = sentinel(http.StatusBadRequest, "SAME_ACCOUNT_TRANSFER", "Cannot transfer to the same account")
)

// Planned transactions and recurrence.
var (
	ErrTemplateNotFound   = sentinel(http.StatusNotFound, "TEMPLATE_NOT_FOUND", "Recurring template not found")
	ErrOccurrenceNotFound = sentinel(http.StatusNotFound, "OCCURRENCE_NOT_FOUND", "Planned occurrence not found")
	ErrInvalidRecurrence  = sentinel(http.StatusBadRequest, "INVALID_RECURRENCE", "Invalid recurrence configuration")
	ErrOutOfRangeWindow   = sentinel(http.StatusBadRequest, "OUT_OF_RANGE_WINDOW", "Requested window is inverted or too large")
	ErrDuplicateOverride  = sentinel(http.StatusConflict, "DUPLICATE_OVERRIDE", "An override already exists for this date")
)

// Matching.
var (
	ErrMatchNotFound = sentinel(http.StatusNotFound, "MATCH_NOT_FOUND", "Match not found")
	ErrMatchConflict = sentinel(http.StatusConflict, "MATCH_CONFLICT", "Transaction or occurrence already has an active match")
	ErrBatchTooLarge = sentinel(http.StatusBadRequest, "BATCH_TOO_LARGE", "Too many transactions in one batch")
)
