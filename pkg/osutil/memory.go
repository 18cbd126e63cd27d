package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

const (
	// Default cgroup v1 limit_in_bytes when the memory is not restricted.
	unrestrictedMemoryLimit = 9223372036854771712

	// Value of cgroup v2 memory.max when the memory is not restricted.
	unrestrictedMemoryMax = "max"
)

var cgroupMemoryLimitLocations = []string{
	"/sys/fs/cgroup/memory.max",
	"/sys/fs/cgroup/memory/memory.limit_in_bytes",
}

// GetTotalMemory returns the total available memory size. The call is
// container-aware.
func GetTotalMemory() uint64 {
	return getTotalMemory(memory.TotalMemory(), cgroupMemoryLimitLocations...)
}

func getTotalMemory(hostMemory uint64, limitLocations ...string) uint64 {
	for _, location := range limitLocations {
		limit, ok := readCgroupLimit(location)
		if ok {
			if hostMemory == 0 || limit < hostMemory {
				return limit
			}
			return hostMemory
		}
	}
	return hostMemory
}

func readCgroupLimit(location string) (uint64, bool) {
	raw, err := os.ReadFile(location)
	if err != nil {
		return 0, false
	}

	value := strings.TrimSpace(string(raw))
	if value == unrestrictedMemoryMax {
		return 0, false
	}

	limit, err := strconv.ParseUint(value, 10, 64)
	if err != nil || limit == 0 || limit == unrestrictedMemoryLimit {
		return 0, false
	}
	return limit, true
}
