package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/shareway-go/internal/repository"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
	}
}

type txKey struct{}

// RunTx runs fn in a serializable read-write transaction.
func (s *Store) RunTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunTxWithOpts(ctx, nil, fn)
}

// RunTxWithOpts runs fn in a transaction with the given options. A call made
// while ctx already carries a transaction joins it.
func (s *Store) RunTxWithOpts(
	ctx context.Context,
	opts *pgx.TxOptions,
	fn func(ctx context.Context) error,
) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	txOpts := pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	}

	if opts != nil {
		txOpts.IsoLevel = opts.IsoLevel
		txOpts.AccessMode = opts.AccessMode
		txOpts.DeferrableMode = opts.DeferrableMode
	}

	tx, err := s.pool.BeginTx(ctx, txOpts)
	if err != nil {
		return fmt.Errorf("begin: %w", translateDBErr(err))
	}

	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return translateDBErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", translateDBErr(err))
	}

	return nil
}

// handle returns the transaction carried by ctx, or the pool.
func (s *Store) handle(ctx context.Context) DB {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

func (s *Store) Rides() repository.RideRepository       { return &RideRepo{s: s} }
func (s *Store) Bookings() repository.BookingRepository { return &BookingRepo{s: s} }
func (s *Store) Vehicles() repository.VehicleRepository { return &VehicleRepo{s: s} }
func (s *Store) Riders() repository.RiderRepository     { return &RiderRepo{s: s} }
func (s *Store) Promos() repository.PromoRepository     { return &PromoRepo{s: s} }
func (s *Store) Reviews() repository.ReviewRepository   { return &ReviewRepo{s: s} }
func (s *Store) Ratings() repository.RatingRepository   { return &RatingRepo{s: s} }

type scanner interface {
	Scan(dest ...any) error
}
