package money

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFormatter(t *testing.T) {
	format := NewFormatter("$")
	require.Equal(t, "$25.00", format(25))
	require.Equal(t, "$1,234.50", format(1234.5))
	require.Equal(t, "-$3.10", format(-3.1))
}

func TestPlain(t *testing.T) {
	require.Equal(t, "0.50", Plain(0.5))
	require.Equal(t, "1234.57", Plain(1234.567))
}
