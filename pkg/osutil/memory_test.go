package osutil

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLimit(t *testing.T, value string) string {
	path := filepath.Join(t.TempDir(), "limit")
	require.NoError(t, os.WriteFile(path, []byte(value+"\n"), 0o600))
	return path
}

func TestGetTotalMemory_CgroupLimits(t *testing.T) {
	const host = 16 << 30

	missing := filepath.Join(t.TempDir(), "missing")
	assert.EqualValues(t, host, getTotalMemory(host, missing))

	v2 := writeLimit(t, strconv.Itoa(512<<20))
	assert.EqualValues(t, 512<<20, getTotalMemory(host, v2))

	unrestrictedV2 := writeLimit(t, "max")
	assert.EqualValues(t, host, getTotalMemory(host, unrestrictedV2))

	unrestrictedV1 := writeLimit(t, strconv.FormatUint(unrestrictedMemoryLimit, 10))
	assert.EqualValues(t, host, getTotalMemory(host, unrestrictedV1))

	// First readable location wins
	v1 := writeLimit(t, strconv.Itoa(1<<30))
	assert.EqualValues(t, 1<<30, getTotalMemory(host, missing, v1, v2))

	// A limit above the host memory is capped
	huge := writeLimit(t, strconv.FormatUint(32<<30, 10))
	assert.EqualValues(t, host, getTotalMemory(host, huge))

	garbage := writeLimit(t, "not-a-number")
	assert.EqualValues(t, host, getTotalMemory(host, garbage))
}

func TestGetTotalMemory(t *testing.T) {
	assert.NotZero(t, GetTotalMemory())
}
