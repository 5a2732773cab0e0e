package preflight

import (
	"fmt"
	"syscall"
)

// MinFileDescriptors is the minimum file descriptor limit. Every open
// index segment holds a descriptor while it is merged or searched.
const MinFileDescriptors = 1024

// CheckFileDescriptors checks if the file descriptor limit is sufficient.
// A low limit only warns: small sites rarely reach it.
func (c *Checker) CheckFileDescriptors() CheckResult {
	result := CheckResult{
		Name: "file_descriptors",
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check file descriptor limit: %v", err)
		return result
	}

	result.Message = fmt.Sprintf("%d (minimum: %d)", rLimit.Cur, MinFileDescriptors)
	if rLimit.Cur < MinFileDescriptors {
		result.Status = StatusWarn
		result.Details = "Run 'ulimit -n 10240' to increase the limit"
		return result
	}
	result.Status = StatusPass
	return result
}
