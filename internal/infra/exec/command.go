package exec

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// Viewer opens image files with an external program.
type Viewer struct {
	Command string   // empty = platform default
	Args    []string // placed before the file path
	Timeout time.Duration
}

// DefaultViewer picks the desktop opener for the current platform.
func DefaultViewer(timeout time.Duration) Viewer {
	switch runtime.GOOS {
	case "darwin":
		// -W waits until the viewer is closed, like a blocking show()
		return Viewer{Command: "open", Args: []string{"-W"}, Timeout: timeout}
	case "windows":
		return Viewer{Command: "rundll32", Args: []string{"url.dll,FileProtocolHandler"}, Timeout: timeout}
	default:
		return Viewer{Command: "xdg-open", Timeout: timeout}
	}
}

// Open runs the viewer on path and waits for it to exit or for the timeout.
// Returns combined output and error
func (v Viewer) Open(ctx context.Context, path string) ([]byte, error) {
	if err := validateInstalled(v.Command); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve image path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("image not found: %s", absPath)
	}

	if v.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	cmdArgs := append(append([]string{}, v.Args...), absPath)
	cmd := exec.CommandContext(ctx, v.Command, cmdArgs...)
	// openers may leave children holding the output pipes
	cmd.WaitDelay = time.Second

	output, err := cmd.CombinedOutput()

	if ctx.Err() == context.DeadlineExceeded {
		return output, fmt.Errorf("viewer timed out after %v", v.Timeout)
	}
	if err != nil {
		return output, fmt.Errorf("%s %s: %w", v.Command, filepath.Base(absPath), err)
	}
	return output, nil
}

// OpenAll shows paths one after another, the next only once the previous viewer returned.
// It stops at the first failure.
func (v Viewer) OpenAll(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := v.Open(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// validateInstalled checks the viewer program is on PATH
func validateInstalled(command string) error {
	if command == "" {
		return fmt.Errorf("no image viewer configured")
	}
	if _, err := exec.LookPath(command); err != nil {
		return fmt.Errorf("%s is not installed or not in PATH: %w", command, err)
	}
	return nil
}
