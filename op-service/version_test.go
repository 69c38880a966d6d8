package op_service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatVersion(t *testing.T) {
	require.Equal(t, "v1.0.0", FormatVersion("v1.0.0", "", "", ""))
	require.Equal(t, "v1.0.0-abcdef12-1700000000", FormatVersion("v1.0.0", "abcdef1234567890", "1700000000", ""))
	require.Equal(t, "v1.0.0-abc-dev", FormatVersion("v1.0.0", "abc", "", "dev"))
}
