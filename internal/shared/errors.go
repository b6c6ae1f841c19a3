package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrForbidden        = fmt.Errorf("forbidden")

	// Provider errors
	ErrProviderTransport = fmt.Errorf("provider transport failure")
	ErrProviderStatus    = fmt.Errorf("provider returned an error status")
	ErrProviderDecode    = fmt.Errorf("provider payload could not be decoded")

	// Lookup and persistence errors
	ErrNotFound           = fmt.Errorf("record not found")
	ErrVenueNotResolved   = fmt.Errorf("venue not resolved")
	ErrConcertNotResolved = fmt.Errorf("concert not resolved")
	ErrPersistence        = fmt.Errorf("persistence failure")

	// Sync errors
	ErrSyncInProgress     = fmt.Errorf("sync already in progress")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
