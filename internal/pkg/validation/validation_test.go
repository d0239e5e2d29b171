package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	SongID string  `json:"songId" validate:"required,uuid"`
	Role   string  `json:"role" validate:"required,song_role"`
	Slug   string  `json:"slug" validate:"omitempty,slug"`
	Share  float64 `json:"percentage" validate:"gte=0,lte=100"`
}

func TestStruct_FieldErrorsUseJSONNames(t *testing.T) {
	err := Struct(sample{Role: "drummer", Slug: "Bad Slug", Share: 120})
	require.Error(t, err)
	errs := Errors(err)
	fields := map[string]string{}
	for _, e := range errs {
		fields[e.Field] = e.Tag
	}
	assert.Equal(t, "required", fields["songId"])
	assert.Equal(t, "song_role", fields["role"])
	assert.Equal(t, "slug", fields["slug"])
	assert.Equal(t, "lte", fields["percentage"])
}

func TestStruct_Valid(t *testing.T) {
	err := Struct(sample{SongID: "2b1c5f38-9c51-4b53-9b0c-6b7f1a7e0d11", Role: "writer", Slug: "night-drive", Share: 50})
	assert.NoError(t, err)
	assert.Nil(t, Errors(nil))
}

func TestHelpers(t *testing.T) {
	assert.True(t, IsValidEmail("ada@example.com"))
	assert.False(t, IsValidEmail("ada@"))
	assert.True(t, IsValidPassword("Pass1!word"))
	assert.False(t, IsValidPassword("password"))
	assert.True(t, IsValidSlug("night-drive-2"))
	assert.False(t, IsValidSlug("-night"))
	assert.False(t, IsValidSlug("Night"))
}
