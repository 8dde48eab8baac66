package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"skyticker/internal/domain"
	"time"
)

const singletonID = 1

func (d *Database) SaveAccount(ctx context.Context, account domain.Account) error {
	query := `insert into account (id, did, handle, host) values (?, ?, ?, ?)
		on conflict (id) do update set did = excluded.did, handle = excluded.handle, host = excluded.host`

	_, err := d.db.ExecContext(ctx, query, singletonID, account.DID, account.Handle, account.Host)

	return err
}

func (d *Database) SavePost(ctx context.Context, post domain.Post) error {
	query := `insert into popular_post (id, handle, name, created_at, body) values (?, ?, ?, ?, ?)
		on conflict (id) do update set handle = excluded.handle, name = excluded.name,
			created_at = excluded.created_at, body = excluded.body`

	_, err := d.db.ExecContext(ctx, query, singletonID, post.Handle, post.Name, post.Date, post.Text)

	return err
}

func (d *Database) SaveUnread(ctx context.Context, unread domain.Unread) error {
	query := `insert into unread (id, count, checked_at) values (?, ?, ?)
		on conflict (id) do update set count = excluded.count, checked_at = excluded.checked_at`

	_, err := d.db.ExecContext(ctx, query, singletonID, unread.Count, unread.CheckedAt.UTC().Unix())

	return err
}

// LoadSnapshot returns whatever was saved last. Parts that were never saved
// are zero.
func (d *Database) LoadSnapshot(ctx context.Context) (domain.Snapshot, error) {
	var (
		snapshot domain.Snapshot
		errs     []error
	)

	err := d.db.QueryRowContext(ctx, "select did, handle, host from account where id = ?", singletonID).
		Scan(&snapshot.Account.DID, &snapshot.Account.Handle, &snapshot.Account.Host)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		errs = append(errs, fmt.Errorf("select account: %w", err))
	}

	err = d.db.QueryRowContext(ctx,
		"select handle, name, created_at, body from popular_post where id = ?", singletonID).
		Scan(&snapshot.Post.Handle, &snapshot.Post.Name, &snapshot.Post.Date, &snapshot.Post.Text)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		errs = append(errs, fmt.Errorf("select popular post: %w", err))
	}

	var checkedAt int64
	err = d.db.QueryRowContext(ctx, "select count, checked_at from unread where id = ?", singletonID).
		Scan(&snapshot.Unread.Count, &checkedAt)
	switch {
	case err == nil:
		snapshot.Unread.CheckedAt = time.Unix(checkedAt, 0).UTC()
	case !errors.Is(err, sql.ErrNoRows):
		errs = append(errs, fmt.Errorf("select unread: %w", err))
	}

	return snapshot, errors.Join(errs...)
}
