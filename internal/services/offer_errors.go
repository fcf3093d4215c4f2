package services

import "errors"

var (
	// ErrOfferRepositoryMissing indicates the offer repository dependency is absent.
	ErrOfferRepositoryMissing = errors.New("offer service: repository is not configured")
	// ErrOfferInvalidInput signals the supplied offer definition failed validation.
	ErrOfferInvalidInput = errors.New("offer service: invalid input")
	// ErrOfferNotFound indicates no offer exists for the provided identifier.
	ErrOfferNotFound = errors.New("offer service: offer not found")
	// ErrOfferConflict indicates the offer changed since the caller last read it.
	ErrOfferConflict = errors.New("offer service: conflict")
	// ErrOfferUnavailable indicates the offer store could not be reached.
	ErrOfferUnavailable = errors.New("offer service: store unavailable")
)
