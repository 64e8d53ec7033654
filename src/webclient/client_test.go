package webclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewDefault(t *testing.T) {
	require.Equal(t, 60*time.Second, NewDefault(0).Timeout)
	require.Equal(t, 5*time.Second, NewDefault(5*time.Second).Timeout)
}
