package service

import (
	"errors"

	"go-pharma-exchange/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrUnauthorizedAdmin  = errors.New("unauthorized admin access")
	ErrEmailNotFound      = errors.New("email not found")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrAccountBlacklisted = errors.New("this account has been suspended")
	ErrEmailRegistered    = errors.New("this email is already registered")
	ErrRegistrationBusy   = errors.New("a registration for this email is already in progress")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionExpired     = errors.New("session expired (logged in on another device)")
	ErrPharmacyOnly       = errors.New("a pharmacy session is required")

	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("you do not own this item")
	ErrOwnListing           = errors.New("you cannot transact on your own listing")
	ErrDuplicateOffer       = errors.New("an offer with the same barcode and expiry already exists")
	ErrInvalidSelection     = errors.New("the selected drug has no usable barcode")
	ErrSelfRating           = errors.New("a pharmacy cannot rate itself")
	ErrConfirmationRequired = errors.New("this action requires explicit confirmation")
	ErrSeedAdminProtected   = errors.New("the seed admin cannot be removed")
	ErrInvalidRange         = errors.New("range must be today, week, month or all")
)

var tracer = otel.Tracer("go-pharma-exchange/service")

// notFound maps the repository sentinel to the service one.
func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
	}
	return err
}
