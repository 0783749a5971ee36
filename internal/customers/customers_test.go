package customers

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepo_FindByPhoneIgnoresFormatting(t *testing.T) {
	repo := NewMemoryRepo(Customer{ID: "c1", Name: "Ann", Phone: "(555) 123-4567"})

	c, err := repo.FindByPhone(context.Background(), "+15551234567")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)

	_, err = repo.FindByPhone(context.Background(), "anonymous")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepo_FindByPhoneUsesLastTenDigits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM customers").
		WithArgs("5551234567").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone"}).AddRow("c1", " Ann ", "555-123-4567"))

	c, err := NewPostgresRepo(db).FindByPhone(context.Background(), "+1 (555) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, "Ann", c.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_GetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM customers").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "phone"}))

	_, err = NewPostgresRepo(db).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
