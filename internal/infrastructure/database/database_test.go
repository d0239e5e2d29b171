package database

import (
	"testing"

	"rightsdesk-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteAndMigrate(t *testing.T) {
	db, err := Open(Options{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, m := range Models() {
		assert.True(t, db.Migrator().HasTable(m))
	}
	song := domain.Song{Title: "Night Drive"}
	require.NoError(t, db.Create(&song).Error)
	assert.Equal(t, 1, song.Version)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(Options{Driver: "oracle", DSN: "x"})
	assert.Error(t, err)
}
