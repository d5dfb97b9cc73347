package reclaim

import (
	"errors"
	"io/fs"
)

// Cause names the category of a removal failure. All categories count as
// failed; the category only appears in logs.
func Cause(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, fs.ErrNotExist):
		return "vanished"
	case isInUse(err):
		return "in-use"
	case errors.Is(err, fs.ErrPermission):
		return "permission"
	default:
		return "other"
	}
}
