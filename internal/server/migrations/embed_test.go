package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(Migrations, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		b, err := fs.ReadFile(Migrations, name)
		require.NoError(t, err)
		assert.Contains(t, string(b), "-- +goose Up", name)
		assert.Contains(t, string(b), "-- +goose Down", name)
	}
}

func TestMigrations_UsersConstraints(t *testing.T) {
	b, err := fs.ReadFile(Migrations, "00001_create_users.sql")
	require.NoError(t, err)

	sql := string(b)
	assert.True(t, strings.Contains(sql, "CONSTRAINT users_username_key UNIQUE (username)"))
	assert.True(t, strings.Contains(sql, "CONSTRAINT users_email_key UNIQUE (email)"))
}
