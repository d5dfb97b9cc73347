//go:build windows

package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/yusufpapurcu/wmi"
	"golang.org/x/sys/windows/registry"
)

// uninstallSource is one registry hive and path holding installed programs.
type uninstallSource struct {
	root registry.Key
	path string
}

var uninstallSources = []uninstallSource{
	{registry.LOCAL_MACHINE, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
	{registry.LOCAL_MACHINE, `SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`},
	{registry.CURRENT_USER, `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`},
}

// Registry looks for an uninstall entry whose DisplayName mentions the app.
func Registry() Action {
	return Func{Label: "registry", Fn: func(ctx context.Context, req Request) Outcome {
		if o, ok := requireApp(req); !ok {
			return o
		}
		for _, src := range uninstallSources {
			if err := ctx.Err(); err != nil {
				return failed(err)
			}
			if name, ok := findDisplayName(src, req.App); ok {
				return found("%s", name)
			}
		}
		return notFound()
	}}
}

// findDisplayName scans the subkeys of src. Missing hives such as
// WOW6432Node on 32-bit systems read as no match.
func findDisplayName(src uninstallSource, app string) (string, bool) {
	key, err := registry.OpenKey(src.root, src.path, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
	if err != nil {
		return "", false
	}
	defer key.Close()

	subkeys, err := key.ReadSubKeyNames(-1)
	if err != nil {
		return "", false
	}
	for _, sub := range subkeys {
		name := readDisplayName(src.root, src.path+`\`+sub)
		if matchesApp(name, app) {
			return name, true
		}
	}
	return "", false
}

func readDisplayName(root registry.Key, path string) string {
	key, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		return ""
	}
	defer key.Close()
	val, _, err := key.GetStringValue("DisplayName")
	if err != nil {
		return ""
	}
	return val
}

// win32Product mirrors the Win32_Product columns the lookup reads.
type win32Product struct {
	Name    string
	Version string
}

// InstallerDB queries the Windows Installer database through WMI.
func InstallerDB() Action {
	return Func{Label: "installer-db", Fn: func(ctx context.Context, req Request) Outcome {
		if o, ok := requireApp(req); !ok {
			return o
		}
		query := fmt.Sprintf("SELECT Name, Version FROM Win32_Product WHERE Name LIKE '%%%s%%'", wqlEscape(req.App))

		// Win32_Product enumerations are slow; the query runs aside so the
		// context can abandon it.
		type result struct {
			rows []win32Product
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			var rows []win32Product
			err := wmi.Query(query, &rows)
			ch <- result{rows, err}
		}()

		ctx, cancel := context.WithTimeout(ctx, commandTimeout)
		defer cancel()
		select {
		case <-ctx.Done():
			return failed(fmt.Errorf("installer database query: %w", ctx.Err()))
		case r := <-ch:
			if r.err != nil {
				return failed(fmt.Errorf("installer database query: %w", r.err))
			}
			if len(r.rows) == 0 {
				return notFound()
			}
			return found("%s %s", r.rows[0].Name, r.rows[0].Version)
		}
	}}
}

// wqlEscape quotes the characters WQL treats specially inside a LIKE literal.
func wqlEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `%`, `[%]`, `_`, `[_]`, `[`, `[[]`)
	return r.Replace(s)
}
