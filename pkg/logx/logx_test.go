package logx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitStderr(t *testing.T) {
	closer, err := Init(Config{Level: "DEBUG", Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, closer)
}

func TestInitRejects(t *testing.T) {
	_, err := Init(Config{Output: "syslog"})
	assert.ErrorContains(t, err, "unknown output")

	_, err = Init(Config{Output: "file", Dir: t.TempDir()})
	assert.ErrorContains(t, err, "are both 0")
}
