package launcher

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/layer-3/garuda/ports"
)

// OSLauncher hands URLs to the operating system's default opener. The
// spawned process is not waited on: the hand-off is fire-and-forget.
type OSLauncher struct{}

// NewOSLauncher creates a launcher for the current platform.
func NewOSLauncher() *OSLauncher {
	return &OSLauncher{}
}

var _ ports.Launcher = (*OSLauncher)(nil)

func (l *OSLauncher) Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch URL: %w", err)
	}

	// Reap the child without blocking the caller.
	go func() { _ = cmd.Wait() }()

	return nil
}
