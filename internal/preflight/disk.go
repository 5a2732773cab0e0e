package preflight

import (
	"fmt"
	"syscall"

	"github.com/dustin/go-humanize"
)

// MinDiskSpaceBytes is the default free space required under the index root (100MB).
// A rebuild writes the new index before the old segments are merged away.
const MinDiskSpaceBytes = 100 * 1024 * 1024

// CheckDiskSpace checks if there's sufficient disk space at the given path.
func (c *Checker) CheckDiskSpace(path string) CheckResult {
	result := CheckResult{
		Name:     "disk_space",
		Required: true,
	}

	dir, err := existingAncestor(path)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	available := stat.Bavail * uint64(stat.Bsize)
	result.Message = fmt.Sprintf("%s free (minimum: %s)", humanize.IBytes(available), humanize.IBytes(c.minDiskSpace))
	if available < c.minDiskSpace {
		result.Status = StatusFail
		return result
	}
	result.Status = StatusPass
	return result
}
