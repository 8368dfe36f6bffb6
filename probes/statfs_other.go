//go:build !unix

package probes

func statfs(string) (FSUsage, error) {
	return FSUsage{}, ErrUnsupported
}
