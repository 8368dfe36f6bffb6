//go:build unix

package probes

import "syscall"

func statfs(path string) (FSUsage, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return FSUsage{}, err
	}
	bsize := uint64(stat.Bsize)
	return FSUsage{
		Total:     stat.Blocks * bsize,
		Free:      stat.Bfree * bsize,
		Available: stat.Bavail * bsize,
	}, nil
}
