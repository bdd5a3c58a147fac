package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorKind classifies service failures so the HTTP layer can map them to a
// status code and a recovery hint.
type ErrorKind string

const (
	KindUnauthorized           ErrorKind = "unauthorized"
	KindForbidden              ErrorKind = "forbidden"
	KindPendingApproval        ErrorKind = "pending_approval"
	KindInvalidCredentials     ErrorKind = "invalid_credentials"
	KindNotFound               ErrorKind = "not_found"
	KindNoEntitlement          ErrorKind = "no_entitlement"
	KindMenuNotPublished       ErrorKind = "menu_not_published"
	KindEmptySelection         ErrorKind = "empty_selection"
	KindInvalidQuantity        ErrorKind = "invalid_quantity"
	KindItemNotEligible        ErrorKind = "item_not_eligible"
	KindNoCoveringSubscription ErrorKind = "no_covering_subscription"
	KindAlreadyFinalized       ErrorKind = "already_finalized"
	KindInvalidTransition      ErrorKind = "invalid_transition"
	KindConflict               ErrorKind = "conflict"
	KindExpiredSession         ErrorKind = "expired_session"
	KindInvalidPayment         ErrorKind = "invalid_payment"
	KindDuplicate              ErrorKind = "duplicate"
	KindValidation             ErrorKind = "validation"
)

type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Is matches on Kind so that errors carrying a more specific message still
// compare equal to the sentinel of the same kind.
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newError(kind ErrorKind, message string) *ServiceError {
	return &ServiceError{Kind: kind, Message: message}
}

var (
	ErrUnauthorized           = newError(KindUnauthorized, "not allowed to act on this resource")
	ErrForbidden              = newError(KindForbidden, "access denied")
	ErrPendingApproval        = newError(KindPendingApproval, "account is pending approval")
	ErrInvalidCredentials     = newError(KindInvalidCredentials, "invalid email or password")
	ErrNotFound               = newError(KindNotFound, "not found")
	ErrNoEntitlement          = newError(KindNoEntitlement, "no active subscription for this date")
	ErrMenuNotPublished       = newError(KindMenuNotPublished, "no menu published for this date and meal type")
	ErrEmptySelection         = newError(KindEmptySelection, "select at least one item")
	ErrInvalidQuantity        = newError(KindInvalidQuantity, "invalid item quantity")
	ErrItemNotEligible        = newError(KindItemNotEligible, "item is not on your menu")
	ErrNoCoveringSubscription = newError(KindNoCoveringSubscription, "no active subscription covers this meal type")
	ErrAlreadyFinalized       = newError(KindAlreadyFinalized, "order can no longer be modified")
	ErrInvalidTransition      = newError(KindInvalidTransition, "status change not allowed")
	ErrConflict               = newError(KindConflict, "order was modified concurrently")
	ErrExpiredSession         = newError(KindExpiredSession, "purchase session expired, select the plan again")
	ErrInvalidPayment         = newError(KindInvalidPayment, "invalid payment details")
	ErrDuplicate              = newError(KindDuplicate, "already exists")
	ErrValidation             = newError(KindValidation, "invalid input")
)

// Errorf returns an error of the given sentinel's kind with a specific
// message.
func Errorf(sentinel *ServiceError, message string) error {
	return &ServiceError{Kind: sentinel.Kind, Message: message}
}

// KindOf returns the kind of a service error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// isDuplicateKey covers drivers with and without TranslateError support.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}

// notFound converts gorm.ErrRecordNotFound into ErrNotFound and wraps
// everything else.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Errorf(ErrNotFound, what+" not found")
	}
	return err
}
