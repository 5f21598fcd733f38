// Package browser launches the system browser for the consent flow.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// command returns the launcher for goos, or an error for unsupported platforms
func command(goos, target string) (*exec.Cmd, error) {
	switch goos {
	case "linux", "freebsd", "openbsd":
		return exec.Command("xdg-open", target), nil
	case "darwin":
		return exec.Command("open", target), nil
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", goos)
	}
}

// Open opens target in the default browser. Only http and https URLs are accepted.
func Open(target string) error {
	parsed, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q", parsed.Scheme)
	}

	cmd, err := command(runtime.GOOS, target)
	if err != nil {
		return err
	}
	return cmd.Start()
}
