package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdvisoryLocker memegang pg_try_advisory_lock di koneksi khusus
// supaya job yang sama tidak jalan bareng di beberapa instance.
type AdvisoryLocker struct {
	pool *pgxpool.Pool
}

func NewAdvisoryLocker(ctx context.Context, dsn string) (*AdvisoryLocker, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("advisory lock pool: %w", err)
	}
	return &AdvisoryLocker{pool: pool}, nil
}

// TryLock mengembalikan ok=false tanpa error jika lock sedang dipegang instance lain.
// unlock wajib dipanggil saat ok=true.
func (l *AdvisoryLocker) TryLock(ctx context.Context, key int64) (unlock func(), ok bool, err error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire conn: %w", err)
	}

	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	return func() {
		_, _ = conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", key)
		conn.Release()
	}, true, nil
}

func (l *AdvisoryLocker) Close() {
	l.pool.Close()
}
