// Package releases promotes scheduled catalog records into the live
// catalog when their release time arrives.
//
// Two promoters run per tick, series first. The series promoter copies
// each due pending series into a live series, records the identity
// mapping in the transfer log, relinks waiting episodes, and promotes
// every episode already linked to the new series. The episode promoter
// then handles due standalone episodes, resolving any still-dangling
// pending-series references through the transfer log.
//
// Promotion is mark-then-delete on the pending side, so a crash between
// the live insert and the pending delete leaves a record that a later
// tick can recognize and clean up rather than duplicate.
package releases
