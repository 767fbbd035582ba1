package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	pg := errors.New(`ERROR: duplicate key value violates unique constraint "idx_products_slug" (SQLSTATE 23505)`)
	lite := errors.New("UNIQUE constraint failed: products.sku")

	assert.True(t, IsUniqueViolation(pg, ""))
	assert.True(t, IsUniqueViolation(pg, "slug"))
	assert.False(t, IsUniqueViolation(pg, "sku"))
	assert.True(t, IsUniqueViolation(lite, "sku"))
	assert.False(t, IsUniqueViolation(errors.New("connection reset"), ""))
	assert.False(t, IsUniqueViolation(nil, ""))
}

func TestEnsureDatabaseSkipsKeyValueDSN(t *testing.T) {
	assert.NoError(t, EnsureDatabase("host=localhost user=postgres dbname=x"))
}
