// Package services implements the client for the KOPIS performance-information API.
//
// # Provider Client
//
// [KopisClient] issues query-parameter requests against the venue (prfplc), performance
// (pblprfr) and box-office endpoints and decodes their XML payloads into the typed records in
// payloads.go. Every request carries the API key as the "service" parameter.
//
// # Pagination
//
// [FetchAll] walks pages starting at 1 with up to [MaxRows] rows per page. It stops on an empty
// page or a short page and never requests more than [MaxPages] pages; reaching the cap truncates
// the result and logs a warning.
//
// # Date Windows
//
// The performance listing rejects ranges wider than 31 days. [SplitWindows] cuts a horizon into
// contiguous windows of at most [MaxWindowDays] days and [KopisClient.FetchConcertsInHorizon]
// lists each window in turn.
//
// # Resilience
//
// Requests wait on a [rate.Limiter] and run inside a [gobreaker.CircuitBreaker]. An open breaker
// is reported as a transport failure.
//
// # Error Handling
//
// Failures are wrapped with the provider taxonomy from the shared package:
//   - [shared.ErrProviderTransport] : network failure, timeout or open breaker
//   - [shared.ErrProviderStatus] : non-2xx HTTP status or a non-"00" returncode in the payload
//   - [shared.ErrProviderDecode] : malformed or empty XML payload
//
// Callers decide whether a failed page or detail call aborts their run or is skipped.
package services
