package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeJSON(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"matches\":[]}\n```": `{"matches":[]}`,
		"```\n{\"a\":1}```":              `{"a":1}`,
		"  {\"a\":1}  ":                  `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeJSON(in), "input %q", in)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "cafe bustelo", Fold("  Café BUSTELO "))
	assert.Equal(t, Fold("BLACK RIFLE"), Fold("black rifle"))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "BLK RIFLE COFFEE", CollapseSpaces("BLK   RIFLE\tCOFFEE  "))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := SignToken("u-17", "Dana", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "Dana", Purchaser(claims))

	_, err = ValidateToken(token, "other-secret")
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	token, err := SignToken("u-17", "", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	assert.Error(t, err)
}
