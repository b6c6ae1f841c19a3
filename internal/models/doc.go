// Package models defines the domain records reconciled from the KOPIS performance-information service.
//
// The package contains two categories of types:
//
// 1. Catalog records persisted by the sync services
//   - [Venue] : performance facility keyed by its KOPIS facility id
//   - [Hall] : stage inside a venue keyed by its KOPIS hall id
//   - [Concert] : performance keyed by its KOPIS performance id, always linked to a local venue
//   - [TicketVendor] and [ConcertImage] : child rows replaced on every sync
//   - [Artist] : performer records matched by exact name against cast strings
//   - [BoxofficeRanking] : top-N ranking rows for a genre, area and period slot
//
// 2. Sync bookkeeping
//   - [SyncMetadata] : one row per [SyncType] holding the incremental watermark, status and counters
//
// Records sourced from KOPIS carry a non-nil KopisID and [DataSourceKopis].
// Manually created records use [DataSourceManual], have no KopisID and are never touched by sync.
package models
