package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"lock timeout", &pgconn.PgError{Code: "55P03"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"serialization", &pgconn.PgError{Code: "40001"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"wrapped lock timeout", fmt.Errorf("update stock: %w", &pgconn.PgError{Code: "55P03"}), true},
		{"deadline", context.DeadlineExceeded, true},
		{"check violation", &pgconn.PgError{Code: "23514"}, false},
		{"foreign key", &pgconn.PgError{Code: "23503"}, false},
		{"not found", gorm.ErrRecordNotFound, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}

func TestConstraintClassification(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyViolation(gorm.ErrForeignKeyViolated))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(errors.New("duplicate")))

	assert.True(t, IsNotFound(fmt.Errorf("find: %w", gorm.ErrRecordNotFound)))
}
