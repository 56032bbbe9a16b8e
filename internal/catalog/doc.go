// Package catalog persists the release catalog in SQLite and exposes
// the operations the promotion pipeline drives.
//
// Five collections make up the catalog: pending_series and
// pending_episodes hold scheduled content owned by the admin upload
// flow, live_series and live_episodes are the public catalog, and
// transfers is the append-only log mapping a promoted series' pending
// identity to its live identity. Transfers are never updated or
// deleted; they exist so episodes uploaded against a series that has
// already promoted can resolve their parent.
//
// Every mutation is a single-document write relying on SQLite's
// per-statement atomicity; there are no multi-document transactions in
// the promotion path, which is why the promoters carry idempotency
// checks. Treat this package as the single source of truth for catalog
// semantics; schema changes get a new file under migrations/.
package catalog
