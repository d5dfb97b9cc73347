package actions

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// call is one command the stubbed runner received.
type call struct {
	name string
	args []string
}

func (c call) String() string { return c.name + " " + strings.Join(c.args, " ") }

// fakeRunner answers commands from a script and records them.
type fakeRunner struct {
	mu     sync.Mutex
	calls  []call
	script func(c call) ([]byte, error)
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.String()
	}
	return out
}

// stubCommands installs a fake runner and pretends to run on Windows.
func stubCommands(t *testing.T, script func(c call) ([]byte, error)) *fakeRunner {
	t.Helper()
	f := &fakeRunner{script: script}
	prevRunner, prevSupported := runner, supported
	runner = func(_ context.Context, name string, args ...string) ([]byte, error) {
		c := call{name: name, args: args}
		f.mu.Lock()
		f.calls = append(f.calls, c)
		f.mu.Unlock()
		return f.script(c)
	}
	supported = true
	t.Cleanup(func() {
		runner, supported = prevRunner, prevSupported
	})
	return f
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "not-found", notFound().String())
	assert.Equal(t, "done: stopped a", done("stopped %s", "a").String())
	assert.Equal(t, "failed: boom", failed(errors.New("boom")).String())
	assert.Equal(t, "failed: 1 removed: boom",
		Outcome{Status: StatusFailed, Detail: "1 removed", Err: errors.New("boom")}.String())
}

func TestRequireApp(t *testing.T) {
	o, ok := requireApp(Request{App: "  "})
	assert.False(t, ok)
	assert.Equal(t, StatusSkipped, o.Status)

	o, ok = requireApp(Request{App: `..\Windows`})
	assert.False(t, ok)
	assert.Equal(t, StatusFailed, o.Status)

	_, ok = requireApp(Request{App: "Slack"})
	assert.True(t, ok)
	_, ok = requireApp(Request{App: "vlc"})
	assert.True(t, ok)
}

func TestRequireAppRefusesBroadNames(t *testing.T) {
	for _, app := range []string{
		"s", "ab", " x ",
		"Microsoft", "windows", "Windows Defender", "security", "services", "csrss",
		"WOW6432Node", "Classes", "policies", "Software", "shell",
	} {
		o, ok := requireApp(Request{App: app})
		assert.False(t, ok, app)
		assert.Equal(t, StatusFailed, o.Status, app)
	}
}

func TestCriticalTarget(t *testing.T) {
	for _, name := range []string{
		"csrss.exe", "LSASS.EXE", "svchost.exe", "winlogon.exe", "smss.exe", "services.exe",
		"explorer.exe", "Memory Compression", "SecurityHealth", "Windows Update", "wuauserv",
	} {
		assert.True(t, criticalTarget(name), name)
	}
	for _, name := range []string{"slack.exe", "Slack Updater", "ZoomOpener", "AdobeARMservice"} {
		assert.False(t, criticalTarget(name), name)
	}
}

func TestMatchesApp(t *testing.T) {
	assert.True(t, matchesApp("SlackHelper.exe", "slack"))
	assert.True(t, matchesApp("slack", " SLACK "))
	assert.False(t, matchesApp("Teams.exe", "slack"))
	assert.False(t, matchesApp("anything", ""))
}

func TestWould(t *testing.T) {
	assert.Equal(t, "would stop a, b", would(true, "stop", []string{"a", "b"}).Detail)
	assert.Equal(t, "stopped a", would(false, "stop", []string{"a"}).Detail)
	assert.Equal(t, "removed a", would(false, "remove", []string{"a"}).Detail)
	assert.Equal(t, "deleted a", would(false, "delete", []string{"a"}).Detail)
	assert.Equal(t, "disabled a", would(false, "disable", []string{"a"}).Detail)
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("  short \n"))

	long := strings.Repeat("a", maxOutput-1) + "é" + "tail"
	got := clip(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("a", maxOutput-1)+"...", got)
}

func TestRunCommandErrors(t *testing.T) {
	t.Run("exit code", func(t *testing.T) {
		stubCommands(t, func(call) ([]byte, error) {
			return []byte("denied"), &ExitError{Command: "sc", Code: 5}
		})
		_, err := runCommand(context.Background(), "sc", "stop", "x")
		require.Error(t, err)
		assert.Equal(t, 5, exitCode(err))
	})

	t.Run("missing binary", func(t *testing.T) {
		stubCommands(t, func(call) ([]byte, error) {
			return nil, fmt.Errorf("exec: %w", exec.ErrNotFound)
		})
		_, err := runCommand(context.Background(), "winget")
		assert.ErrorIs(t, err, exec.ErrNotFound)
		assert.Equal(t, -1, exitCode(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		stubCommands(t, func(call) ([]byte, error) {
			return nil, errors.New("signal: killed")
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := runCommand(ctx, "ipconfig", "/flushdns")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUnsupportedPlatformSkips(t *testing.T) {
	prev := supported
	supported = false
	t.Cleanup(func() { supported = prev })

	for _, a := range []Action{Winget(), Services(), Tasks(), Features(), FlushDNS()} {
		o := a.Perform(context.Background(), Request{App: "slack"})
		assert.Equal(t, StatusSkipped, o.Status, a.Name())
	}
}

func TestFuncHonoursCancellation(t *testing.T) {
	ran := false
	a := Func{Label: "x", Fn: func(context.Context, Request) Outcome {
		ran = true
		return done("ok")
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	o := a.Perform(ctx, Request{App: "slack"})
	assert.Equal(t, StatusFailed, o.Status)
	assert.ErrorIs(t, o.Err, context.Canceled)
	assert.False(t, ran)
}

const wingetList = `Name                 Id                      Version
-----------------------------------------------------------
Slack                SlackTechnologies.Slack 4.41.105
Visual Studio Code   Microsoft.VisualStudioCode 1.95.0
`

func TestWinget(t *testing.T) {
	stubCommands(t, func(call) ([]byte, error) { return []byte(wingetList), nil })

	o := Winget().Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, StatusFound, o.Status)
	assert.Equal(t, "Slack SlackTechnologies.Slack 4.41.105", o.Detail)

	o = Winget().Perform(context.Background(), Request{App: "zoom"})
	assert.Equal(t, StatusNotFound, o.Status)
}

func TestWingetNotInstalled(t *testing.T) {
	stubCommands(t, func(call) ([]byte, error) {
		return nil, fmt.Errorf("exec: %w", exec.ErrNotFound)
	})
	o := Winget().Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, StatusSkipped, o.Status)
}

func TestWingetEmptyListExitCode(t *testing.T) {
	stubCommands(t, func(call) ([]byte, error) {
		return []byte("No installed package found matching input criteria."), &ExitError{Command: "winget", Code: 1}
	})
	o := Winget().Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, StatusNotFound, o.Status)
}

const scQuery = `
SERVICE_NAME: AdobeARMservice
DISPLAY_NAME: Adobe Acrobat Update Service
        TYPE               : 10  WIN32_OWN_PROCESS
        STATE              : 4  RUNNING

SERVICE_NAME: slackupd
DISPLAY_NAME: Slack Updater
        TYPE               : 10  WIN32_OWN_PROCESS
        STATE              : 1  STOPPED

SERVICE_NAME: wuauserv
DISPLAY_NAME: Windows Update
`

func TestParseServices(t *testing.T) {
	got := parseServices(scQuery)
	require.Len(t, got, 3)
	assert.Equal(t, service{Name: "slackupd", Display: "Slack Updater"}, got[1])
}

func TestServices(t *testing.T) {
	f := stubCommands(t, func(c call) ([]byte, error) {
		if c.args[0] == "query" {
			return []byte(scQuery), nil
		}
		// Already stopped.
		return nil, &ExitError{Command: "sc", Code: errServiceNotActive}
	})

	o := Services().Perform(context.Background(), Request{App: "adobe"})
	assert.Equal(t, StatusDone, o.Status)
	assert.Equal(t, "stopped AdobeARMservice", o.Detail)
	assert.Contains(t, f.commands(), "sc stop AdobeARMservice")

	o = Services().Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, StatusDone, o.Status, o.String())
}

func TestServicesSparesOSServices(t *testing.T) {
	f := stubCommands(t, func(call) ([]byte, error) { return []byte(scQuery), nil })

	o := Services().Perform(context.Background(), Request{App: "update", DryRun: true})
	assert.Equal(t, "would stop AdobeARMservice, slackupd", o.Detail)
	assert.NotContains(t, o.Detail, "wuauserv")
	assert.Len(t, f.commands(), 1)
}

func TestServicesDryRunStopsNothing(t *testing.T) {
	f := stubCommands(t, func(call) ([]byte, error) { return []byte(scQuery), nil })

	o := Services().Perform(context.Background(), Request{App: "slack", DryRun: true})
	assert.Equal(t, "would stop slackupd", o.Detail)
	assert.Len(t, f.commands(), 1)
}

func TestServicesStopFailure(t *testing.T) {
	stubCommands(t, func(c call) ([]byte, error) {
		if c.args[0] == "query" {
			return []byte(scQuery), nil
		}
		return []byte("Access is denied."), &ExitError{Command: "sc", Code: 5, Output: "Access is denied."}
	})
	o := Services().Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, StatusFailed, o.Status)
	assert.Equal(t, 5, exitCode(o.Err))
}

const schtasksCSV = `"TaskName","Next Run Time","Status"
"\Microsoft\Windows\Slack\Helper","N/A","Ready"
"\SlackUpdate","10/18/2026 9:00:00 AM","Ready"
"\SlackUpdate","10/19/2026 9:00:00 AM","Ready"
"\Vendor\Zoom Updater","N/A","Disabled"

`

func TestParseTasks(t *testing.T) {
	got, err := parseTasks(schtasksCSV)
	require.NoError(t, err)
	assert.Equal(t, []string{`\Microsoft\Windows\Slack\Helper`, `\SlackUpdate`, `\Vendor\Zoom Updater`}, got)
}

func TestTasks(t *testing.T) {
	f := stubCommands(t, func(c call) ([]byte, error) {
		if c.args[0] == "/Query" {
			return []byte(schtasksCSV), nil
		}
		return nil, nil
	})

	o := Tasks().Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, StatusDone, o.Status)
	assert.Equal(t, `deleted \SlackUpdate`, o.Detail)
	assert.Equal(t, []string{
		"schtasks /Query /FO CSV /NH",
		`schtasks /Delete /TN \SlackUpdate /F`,
	}, f.commands())

	o = Tasks().Perform(context.Background(), Request{App: "teams"})
	assert.Equal(t, StatusNotFound, o.Status)
}

const dismTable = `Deployment Image Servicing and Management tool

Feature Name                                | State
------------------------------------------- | --------
Microsoft-Hyper-V-All                       | Enabled
Microsoft-Hyper-V-Tools-All                 | Disabled
TelnetClient                                | Enabled

The operation completed successfully.
`

func TestParseEnabledFeatures(t *testing.T) {
	assert.Equal(t, []string{"Microsoft-Hyper-V-All", "TelnetClient"}, parseEnabledFeatures(dismTable))
}

func TestFeaturesRebootPendingIsSuccess(t *testing.T) {
	f := stubCommands(t, func(c call) ([]byte, error) {
		if c.args[2] == "/Get-Features" {
			return []byte(dismTable), nil
		}
		return nil, &ExitError{Command: "dism", Code: errRebootRequired}
	})
	o := Features().Perform(context.Background(), Request{App: "hyper-v"})
	assert.Equal(t, StatusDone, o.Status, o.String())
	assert.Equal(t, "disabled Microsoft-Hyper-V-All", o.Detail)
	assert.Contains(t, f.commands(), "dism /Online /Disable-Feature /FeatureName:Microsoft-Hyper-V-All /NoRestart /Quiet")
}

func TestFlushDNS(t *testing.T) {
	f := stubCommands(t, func(call) ([]byte, error) { return nil, nil })

	o := FlushDNS().Perform(context.Background(), Request{DryRun: true})
	assert.Equal(t, StatusDone, o.Status)
	assert.Empty(t, f.commands())

	o = FlushDNS().Perform(context.Background(), Request{})
	assert.Equal(t, StatusDone, o.Status)
	assert.Equal(t, []string{"ipconfig /flushdns"}, f.commands())
}

func stubProcesses(t *testing.T, procs []procHandle) {
	t.Helper()
	prev := listProcesses
	listProcesses = func(context.Context) ([]procHandle, error) { return procs, nil }
	t.Cleanup(func() { listProcesses = prev })
}

func TestTerminate(t *testing.T) {
	var killed []int32
	kill := func(pid int32) func(context.Context) error {
		return func(context.Context) error {
			killed = append(killed, pid)
			return nil
		}
	}
	self := int32(os.Getpid())
	stubProcesses(t, []procHandle{
		{PID: 10, Name: "slack.exe", kill: kill(10)},
		{PID: 11, Name: "explorer.exe", kill: kill(11)},
		{PID: self, Name: "slack-reclaim.exe", kill: kill(self)},
	})

	o := Terminate().Perform(context.Background(), Request{App: "Slack", DryRun: true})
	assert.Equal(t, "would terminate slack.exe (10)", o.Detail)
	assert.Empty(t, killed)

	o = Terminate().Perform(context.Background(), Request{App: "Slack"})
	assert.Equal(t, StatusDone, o.Status)
	assert.Equal(t, []int32{10}, killed)

	o = Terminate().Perform(context.Background(), Request{App: "zoom"})
	assert.Equal(t, StatusNotFound, o.Status)
}

func TestTerminateSparesCriticalProcesses(t *testing.T) {
	var killed []string
	var procs []procHandle
	for i, name := range []string{"csrss.exe", "lsass.exe", "svchost.exe", "winlogon.exe", "services.exe", "slack.exe"} {
		procs = append(procs, procHandle{PID: int32(1<<30 + i), Name: name, kill: func(context.Context) error {
			killed = append(killed, name)
			return nil
		}})
	}
	stubProcesses(t, procs)

	o := Terminate().Perform(context.Background(), Request{App: "s"})
	assert.Equal(t, StatusFailed, o.Status)

	for _, app := range []string{"sass", "host", "logon", "rss"} {
		o = Terminate().Perform(context.Background(), Request{App: app})
		assert.Equal(t, StatusNotFound, o.Status, app)
	}
	assert.Empty(t, killed)

	o = Terminate().Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, fmt.Sprintf("terminated slack.exe (%d)", 1<<30+5), o.Detail)
	assert.Equal(t, []string{"slack.exe"}, killed)
}

func TestTerminateKillFailure(t *testing.T) {
	stubProcesses(t, []procHandle{
		{PID: 10, Name: "slack.exe", kill: func(context.Context) error { return os.ErrPermission }},
	})
	o := Terminate().Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, StatusFailed, o.Status)
	assert.ErrorIs(t, o.Err, os.ErrPermission)
}

func TestShortcuts(t *testing.T) {
	start := t.TempDir()
	desktop := t.TempDir()
	write := func(path string) {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("lnk"), 0o644))
	}
	vendor := filepath.Join(start, "Slack Technologies", "Slack.lnk")
	onDesktop := filepath.Join(desktop, "slack.LNK")
	other := filepath.Join(desktop, "Zoom.lnk")
	notShortcut := filepath.Join(desktop, "slack-notes.txt")
	for _, p := range []string{vendor, onDesktop, other, notShortcut} {
		write(p)
	}
	missing := filepath.Join(t.TempDir(), "absent")
	a := Shortcuts([]string{start, desktop, missing})

	o := a.Perform(context.Background(), Request{App: "slack", DryRun: true})
	assert.Equal(t, StatusDone, o.Status, o.String())
	assert.FileExists(t, vendor)

	o = a.Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, StatusDone, o.Status, o.String())
	assert.NoFileExists(t, vendor)
	assert.NoFileExists(t, onDesktop)
	assert.FileExists(t, other)
	assert.FileExists(t, notShortcut)

	o = a.Perform(context.Background(), Request{App: "slack"})
	assert.Equal(t, StatusNotFound, o.Status)
}

func TestDefaultSetIsComplete(t *testing.T) {
	set := Default(nil)
	assert.Len(t, set.Lookups, 3)
	for _, a := range []Action{
		set.Terminate, set.Services, set.Tasks, set.Shortcuts, set.RegistryCleanup,
		set.Features, set.Integration, set.Policy, set.Telemetry, set.RecycleBin, set.FlushDNS,
	} {
		require.NotNil(t, a)
		assert.NotEmpty(t, a.Name())
	}
}
