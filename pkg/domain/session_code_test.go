package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSessionCode(t *testing.T) {
	code, err := ParseSessionCode("TS202608300001")
	require.NoError(t, err)
	assert.Equal(t, "TS202608300001", code.String())

	for _, bad := range []string{"", "TS123", "ts202608300001", "TS2026083000011", "XX202608300001"} {
		_, err := ParseSessionCode(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestNewSessionCodeIsWellFormed(t *testing.T) {
	for i := 0; i < 20; i++ {
		assert.True(t, NewSessionCode().IsValid())
	}
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole(" ATS_Testing ")
	require.NoError(t, err)
	assert.Equal(t, RoleATSTesting, role)

	_, err = ParseRole("superuser")
	require.Error(t, err)
}
