package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserRecord(t *testing.T) {
	t.Run("keeps extra fields in document order", func(t *testing.T) {
		raw := `{"Enabled":"true","Username":"u1","UserStatus":"CONFIRMED",
			"UserAttributes":[{"Name":"sub","Value":"123"},{"Name":"given_name","Value":"Ada"}],
			"UserCreateDate":1650153600}`

		user, err := ParseUserRecord([]byte(raw))
		require.NoError(t, err)

		require.True(t, user.HasUsername())
		assert.True(t, user.Username.Equal(String("u1")))
		assert.Equal(t, []AttributePair{
			{Name: "sub", Value: "123"},
			{Name: "given_name", Value: "Ada"},
		}, user.Attributes)
		require.Len(t, user.Extra, 3)
		assert.Equal(t, "Enabled", user.Extra[0].Key)
		assert.Equal(t, "UserStatus", user.Extra[1].Key)
		assert.Equal(t, "UserCreateDate", user.Extra[2].Key)

		created, ok := user.Extra[2].Value.AsRaw()
		require.True(t, ok)
		assert.Equal(t, json.RawMessage("1650153600"), created)
	})

	t.Run("empty attribute list is present but empty", func(t *testing.T) {
		user, err := ParseUserRecord([]byte(`{"Username":"u1","UserAttributes":[]}`))
		require.NoError(t, err)
		assert.True(t, user.HasAttributes())
		assert.Empty(t, user.Attributes)
	})

	t.Run("missing attribute list leaves it nil", func(t *testing.T) {
		user, err := ParseUserRecord([]byte(`{"Username":"u1"}`))
		require.NoError(t, err)
		assert.False(t, user.HasAttributes())
	})

	t.Run("missing value reads as empty string", func(t *testing.T) {
		user, err := ParseUserRecord([]byte(`{"UserAttributes":[{"Name":"nickname"}]}`))
		require.NoError(t, err)
		assert.Equal(t, []AttributePair{{Name: "nickname", Value: ""}}, user.Attributes)
		assert.False(t, user.HasUsername())
		assert.Empty(t, user.UsernameText())
	})

	t.Run("username keeps its json type", func(t *testing.T) {
		tests := []struct {
			raw  string
			want Value
		}{
			{raw: `""`, want: String("")},
			{raw: `null`, want: Raw(json.RawMessage("null"))},
			{raw: `42`, want: Raw(json.RawMessage("42"))},
		}
		for _, tt := range tests {
			user, err := ParseUserRecord([]byte(`{"Username":` + tt.raw + `,"UserAttributes":[]}`))
			require.NoError(t, err)
			require.True(t, user.HasUsername(), tt.raw)
			assert.True(t, tt.want.Equal(*user.Username), tt.raw)
		}
	})

	t.Run("non-string value keeps its json text", func(t *testing.T) {
		user, err := ParseUserRecord([]byte(`{"UserAttributes":[{"Name":"email_verified","Value":true}]}`))
		require.NoError(t, err)
		assert.Equal(t, "true", user.Attributes[0].Value)
	})

	errCases := []struct {
		name string
		raw  string
		want error
	}{
		{name: "invalid json", raw: `{"Username":`, want: ErrInvalidJSON},
		{name: "array body", raw: `[1,2]`, want: ErrNotObject},
		{name: "attributes not an array", raw: `{"UserAttributes":"x"}`, want: ErrInvalidAttributes},
		{name: "attribute not an object", raw: `{"UserAttributes":["x"]}`, want: ErrMalformedAttribute},
		{name: "attribute without name", raw: `{"UserAttributes":[{"Value":"x"}]}`, want: ErrMalformedAttribute},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseUserRecord([]byte(tc.raw))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
