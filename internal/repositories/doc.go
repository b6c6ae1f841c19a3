// Package repositories implements database/sql persistence for the KOPIS catalog and sync bookkeeping.
//
// Queries use "?" placeholders and portable SQL so the same repositories run against SQLite and MySQL.
// DATE columns are bound as "2006-01-02" strings. Catalog timestamps are written with CURRENT_TIMESTAMP;
// sync_metadata timestamps are bound as UTC "2006-01-02 15:04:05" strings.
//
// Key Implementations:
//   - [VenueRepository] : facility upserts keyed by kopis_id
//   - [HallRepository] : stage upserts keyed by the hall's kopis_id
//   - [ConcertRepository] : performance upserts plus ticket vendor, image and artist child rows
//   - [ArtistRepository] : exact-name performer lookups
//   - [BoxofficeRepository] : transactional replacement of (genre, area, period) ranking slots
//   - [SyncMetadataRepository] : watermarks, run status and the per-domain run lock
//
// Lookups of absent rows return [shared.ErrNotFound].
package repositories
