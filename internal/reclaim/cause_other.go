//go:build !unix && !windows

package reclaim

func isInUse(error) bool { return false }
