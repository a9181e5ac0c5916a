// Package dbmock provides testify mocks for the db package interfaces.
package dbmock

import (
	"context"
	"database/sql"

	"farewatch/pkg/db"

	"github.com/stretchr/testify/mock"
)

// MockSQLExecutor is a mock implementation of db.SQLExecutor.
// WithTransaction runs the callback against the mock itself unless the
// expectation returns an error, so statements issued inside a transaction are
// asserted the same way as top-level ones.
type MockSQLExecutor struct {
	mock.Mock
}

var _ db.SQLExecutor = (*MockSQLExecutor)(nil)

func (m *MockSQLExecutor) WithTransaction(ctx context.Context, isolation sql.IsolationLevel, fn db.TxFunc) error {
	args := m.Called(ctx, isolation, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx, m)
}

func (m *MockSQLExecutor) ExecContext(ctx context.Context, query string, queryArgs ...any) (sql.Result, error) {
	args := m.Called(ctx, query, queryArgs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(sql.Result), args.Error(1)
}

func (m *MockSQLExecutor) QueryContext(ctx context.Context, query string, queryArgs ...any) (*sql.Rows, error) {
	args := m.Called(ctx, query, queryArgs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sql.Rows), args.Error(1)
}

func (m *MockSQLExecutor) QueryRowContext(ctx context.Context, query string, queryArgs ...any) *sql.Row {
	args := m.Called(ctx, query, queryArgs)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*sql.Row)
}

// MockResult is a mock implementation of sql.Result
type MockResult struct {
	mock.Mock
}

func (m *MockResult) LastInsertId() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResult) RowsAffected() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// Affected is a ready-made result reporting n rows affected.
func Affected(n int64) *MockResult {
	r := new(MockResult)
	r.On("RowsAffected").Return(n, nil).Maybe()
	return r
}
