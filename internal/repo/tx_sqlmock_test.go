package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"catalog-api/internal/domain"
)

func newMockCatalog(t *testing.T) (*Catalog, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return NewCatalog(db), mock
}

// 作者删除失败时，同一事务里已删除的图书必须随之回滚
func TestWithinTx_RollsBackBookDeleteWhenAuthorDeleteFails(t *testing.T) {
	c, mock := newMockCatalog(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "books"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "authors"`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := c.WithinTx(ctx, func(tx domain.CatalogStore) error {
		if _, err := tx.Books().DeleteByAuthor(ctx, "a1"); err != nil {
			return err
		}
		_, err := tx.Authors().Delete(ctx, "a1")
		return err
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_CommitsBothDeletes(t *testing.T) {
	c, mock := newMockCatalog(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "books"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "authors"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := c.WithinTx(ctx, func(tx domain.CatalogStore) error {
		if _, err := tx.Books().DeleteByAuthor(ctx, "a1"); err != nil {
			return err
		}
		_, err := tx.Authors().Delete(ctx, "a1")
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
