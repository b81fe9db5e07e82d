package shared

import (
	"fmt"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

// browserCommands maps GOOS to the launcher and its leading arguments.
var browserCommands = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"windows": {"cmd", "/c", "start"},
}

// BrowserCommand returns the command that would open url on this platform.
func BrowserCommand(url string) (*exec.Cmd, error) {
	rt := getRuntime()
	argv, ok := browserCommands[rt]
	if !ok {
		return nil, fmt.Errorf("unsupported platform: %s", rt)
	}
	args := append(append([]string{}, argv[1:]...), url)
	return exec.Command(argv[0], args...), nil
}

// OpenBrowser opens the default system browser to the specified URL, used for the OAuth device verification page.
func OpenBrowser(url string) error {
	cmd, err := BrowserCommand(url)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
