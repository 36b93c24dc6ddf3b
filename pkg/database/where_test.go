package database

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWhere(t *testing.T) {
	var w Where
	assert.Equal(t, "", w.SQL())
	assert.Empty(t, w.Args())

	w.Add("location = ?", "Lisbon")
	w.Add("starts_at BETWEEN ? AND ?", 1, 2)
	assert.Equal(t, " WHERE location = $1 AND starts_at BETWEEN $2 AND $3", w.SQL())
	assert.Equal(t, []any{"Lisbon", 1, 2}, w.Args())
}

func TestErrorHelpers_NonPgError(t *testing.T) {
	assert.False(t, IsUniqueViolation(assert.AnError, ""))
	assert.False(t, IsForeignKeyViolation(nil))
	assert.Equal(t, "", ConstraintName(assert.AnError))
}

func TestErrorHelpers_PgError(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: CodeUniqueViolation, ConstraintName: "registrations_user_event_key"})
	assert.True(t, IsUniqueViolation(dup, ""))
	assert.True(t, IsUniqueViolation(dup, "registrations_user_event_key"))
	assert.False(t, IsUniqueViolation(dup, "users_username_key"))
	assert.Equal(t, "registrations_user_event_key", ConstraintName(dup))

	fk := &pgconn.PgError{Code: CodeForeignKeyViolation}
	assert.True(t, IsForeignKeyViolation(fk))
	assert.False(t, IsCheckViolation(fk))
}
