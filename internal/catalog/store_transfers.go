package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AppendTransfer records a promoted series' pending→live identity
// mapping. The transfer log is append-only; nothing updates or deletes
// rows here.
func (s *Store) AppendTransfer(ctx context.Context, transfer *Transfer) error {
	if transfer == nil {
		return errors.New("transfer is nil")
	}
	if transfer.PendingSeriesID.IsZero() || transfer.LiveSeriesID.IsZero() {
		return errors.New("transfer requires both pending and live series ids")
	}
	if transfer.TransferredAt.IsZero() {
		transfer.TransferredAt = time.Now().UTC()
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO transfers (
            pending_series_id, live_series_id, title, release_at, transferred_at
        ) VALUES (?, ?, ?, ?, ?)`,
		transfer.PendingSeriesID.String(),
		transfer.LiveSeriesID.String(),
		transfer.Title,
		formatTime(transfer.ReleaseAt),
		formatTime(transfer.TransferredAt),
	)
	if err != nil {
		return fmt.Errorf("append transfer: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		transfer.ID = id
	}
	return nil
}

// TransferForPendingSeries resolves the live identity of a series that
// promoted under a pending id, or nil when the series has not released.
func (s *Store) TransferForPendingSeries(ctx context.Context, pendingSeriesID ID) (*Transfer, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE pending_series_id = ? ORDER BY id LIMIT 1`,
		pendingSeriesID.String(),
	)
	transfer, err := scanTransfer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transfer: %w", err)
	}
	return transfer, nil
}

// ListTransfers returns the most recent transfer entries, newest first.
// A non-positive limit returns everything.
func (s *Store) ListTransfers(ctx context.Context, limit int) ([]*Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers ORDER BY id DESC`
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*Transfer
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, transfer)
	}
	return transfers, rows.Err()
}

const transferColumns = "id, pending_series_id, live_series_id, title, release_at, transferred_at"

func scanTransfer(scanner interface{ Scan(dest ...any) error }) (*Transfer, error) {
	var (
		id             int64
		pendingID      string
		liveID         string
		title          string
		releaseRaw     string
		transferredRaw string
	)

	if err := scanner.Scan(&id, &pendingID, &liveID, &title, &releaseRaw, &transferredRaw); err != nil {
		return nil, err
	}

	transfer := &Transfer{
		ID:              id,
		PendingSeriesID: ID(pendingID),
		LiveSeriesID:    ID(liveID),
		Title:           title,
	}
	if release, err := parseTimeString(releaseRaw); err == nil {
		transfer.ReleaseAt = release
	}
	if transferred, err := parseTimeString(transferredRaw); err == nil {
		transfer.TransferredAt = transferred
	}
	return transfer, nil
}
