package sqltx

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
)

type WithinTxTestSuite struct {
	suite.Suite
	errUnknown error
	db         *sqlx.DB
	mock       sqlmock.Sqlmock
}

func (suite *WithinTxTestSuite) SetupSuite() {
	suite.errUnknown = errors.New("unknown error")
}

func (suite *WithinTxTestSuite) SetupSubTest() {
	db, mock, err := sqlmock.New()
	if err != nil {
		suite.T().Fatalf("Failed to create sqlmock: %v", err)
	}
	suite.T().Cleanup(func() {
		db.Close()
	})

	suite.db = sqlx.NewDb(db, "sqlmock")
	suite.mock = mock
}

func (suite *WithinTxTestSuite) TearDownSubTest() {
	suite.NoError(suite.mock.ExpectationsWereMet())
}

func (suite *WithinTxTestSuite) TestWithinTx() {
	suite.Run("begin error", func() {
		suite.mock.ExpectBegin().WillReturnError(suite.errUnknown)

		err := WithinTx(context.Background(), suite.db, func(ctx context.Context) error {
			suite.Fail("fn must not run")
			return nil
		})

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("rollback on error", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectRollback()

		err := WithinTx(context.Background(), suite.db, func(ctx context.Context) error {
			return suite.errUnknown
		})

		suite.ErrorIs(err, suite.errUnknown)
	})

	suite.Run("rollback error joined", func() {
		errRollback := errors.New("rollback failed")
		suite.mock.ExpectBegin()
		suite.mock.ExpectRollback().WillReturnError(errRollback)

		err := WithinTx(context.Background(), suite.db, func(ctx context.Context) error {
			return suite.errUnknown
		})

		suite.ErrorIs(err, suite.errUnknown)
		suite.ErrorIs(err, errRollback)
	})

	suite.Run("commit", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectExec("DELETE FROM urls").WillReturnResult(sqlmock.NewResult(0, 1))
		suite.mock.ExpectCommit()

		err := WithinTx(context.Background(), suite.db, func(ctx context.Context) error {
			_, isTx := Conn(ctx, suite.db).(*sqlx.Tx)
			suite.True(isTx)

			_, err := Conn(ctx, suite.db).ExecContext(ctx, "DELETE FROM urls")
			return err
		})

		suite.NoError(err)
	})

	suite.Run("nested call joins outer transaction", func() {
		suite.mock.ExpectBegin()
		suite.mock.ExpectCommit()

		err := WithinTx(context.Background(), suite.db, func(ctx context.Context) error {
			outer := Conn(ctx, suite.db)

			return WithinTx(ctx, suite.db, func(ctx context.Context) error {
				suite.Same(outer, Conn(ctx, suite.db))
				return nil
			})
		})

		suite.NoError(err)
	})
}

func TestConn_WithoutTx(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	sqlxDB := sqlx.NewDb(db, "sqlmock")

	if Conn(context.Background(), sqlxDB) != Querier(sqlxDB) {
		t.Errorf("Conn() without a transaction must return db")
	}
}

func TestWithinTx(t *testing.T) {
	suite.Run(t, new(WithinTxTestSuite))
}
