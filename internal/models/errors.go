package models

import "errors"

// Common errors
var (
	// ErrNoOffers is returned when no offers are available for matching
	ErrNoOffers = errors.New("no offers available")

	// ErrNoTemplates is returned when an offer has no usable CTA templates
	ErrNoTemplates = errors.New("offer has no CTA templates")

	// ErrMissingCredentials is returned when a required credential is not configured
	ErrMissingCredentials = errors.New("missing credentials")
)
