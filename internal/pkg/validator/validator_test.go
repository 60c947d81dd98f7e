package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	require.True(t, IsValidEmail("reporter@example.com"))
	require.False(t, IsValidEmail(""))
	require.False(t, IsValidEmail("reporter@"))
	require.False(t, IsValidEmail("not an email"))
}

func TestIsValidURL(t *testing.T) {
	require.True(t, IsValidURL("http://localhost:8501"))
	require.True(t, IsValidURL("https://geo.example.com/v1/locate"))
	require.False(t, IsValidURL("ftp://geo.example.com"))
	require.False(t, IsValidURL(" "))
}

func TestIsValidUPIID(t *testing.T) {
	for _, id := range []string{"reporter@okbank", "first.last-99@ybl", "9876543210@paytm"} {
		require.True(t, IsValidUPIID(id), id)
	}
	for _, id := range []string{"", "reporter", "@okbank", "reporter@", "a@okbank", "report er@okbank", "reporter@1bank"} {
		require.False(t, IsValidUPIID(id), id)
	}
}
