//go:build windows

package actions

import (
	"context"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modShell32          = windows.NewLazySystemDLL("shell32.dll")
	procEmptyRecycleBin = modShell32.NewProc("SHEmptyRecycleBinW")
	procQueryRecycleBin = modShell32.NewProc("SHQueryRecycleBinW")
)

const (
	sherbNoConfirmation = 0x00000001
	sherbNoProgressUI   = 0x00000002
	sherbNoSound        = 0x00000004

	// eUnexpected is returned when the bin is already empty.
	eUnexpected = 0x8000FFFF
)

// shQueryRBInfo mirrors SHQUERYRBINFO; natural alignment pads after cbSize.
type shQueryRBInfo struct {
	cbSize      uint32
	i64Size     int64
	i64NumItems int64
}

// RecycleBin empties the recycle bin on every drive.
func RecycleBin() Action {
	return Func{Label: "recycle-bin", Fn: func(ctx context.Context, req Request) Outcome {
		var info shQueryRBInfo
		info.cbSize = uint32(unsafe.Sizeof(info))
		if ret, _, _ := procQueryRecycleBin.Call(0, uintptr(unsafe.Pointer(&info))); ret != 0 {
			return failed(fmt.Errorf("SHQueryRecycleBinW failed: HRESULT 0x%08x", uint32(ret)))
		}
		if info.i64NumItems == 0 {
			return skipped("recycle bin is empty")
		}
		if req.DryRun {
			return done("would empty %d items", info.i64NumItems)
		}

		flags := uintptr(sherbNoConfirmation | sherbNoProgressUI | sherbNoSound)
		ret, _, _ := procEmptyRecycleBin.Call(0, 0, flags)
		if hr := uint32(ret); hr != 0 && hr != eUnexpected {
			return failed(fmt.Errorf("SHEmptyRecycleBinW failed: HRESULT 0x%08x", hr))
		}
		return done("emptied %d items", info.i64NumItems)
	}}
}
