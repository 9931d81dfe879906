package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function inside a database transaction,
// passing the transaction handle via the `tx` argument. Repository methods
// accept `tx Tx` and must gracefully accept nil (non-transactional path); the
// concrete handle type is infra-defined (pgx.Tx for Postgres).
//
// The points-debit-plus-grant batch is the one multi-write sequence in this
// service that must not partially apply; it always runs through WithTx.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
