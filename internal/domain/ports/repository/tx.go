package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle. The concrete type is infra-defined
// (pgx.Tx for Postgres); repositories accept nil for the non-transactional
// path and detect a live tx to take row locks (SELECT ... FOR UPDATE).
type Tx interface{}

// NoTX is passed by callers that explicitly want the non-transactional path.
var NoTX Tx

// TransactionManager executes a function inside one database transaction.
// Every ledger-mutating operation (debit, claim, webhook apply) runs through
// this so that per-account serialization comes from row locks, which stays
// correct across multiple server processes. Nothing slow may run inside fn:
// outbound calls and notifications happen after commit, in the caller.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
