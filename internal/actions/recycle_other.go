//go:build !windows

package actions

import "context"

// RecycleBin empties the Windows recycle bin.
func RecycleBin() Action {
	return Func{Label: "recycle-bin", Fn: func(context.Context, Request) Outcome { return unsupported() }}
}
