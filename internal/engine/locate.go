package engine

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	apperrors "github.com/kweiss/resticpilot/internal/errors"
)

const engineName = "restic"

const notFoundHint = "Place the restic binary in the same folder as resticpilot, " +
	"or install restic so it is available in your system PATH. " +
	"Download restic from: https://restic.net"

var (
	locateMu    sync.Mutex
	locatedPath string

	// Swapped out in tests.
	executablePath = os.Executable
	lookPath       = exec.LookPath
)

func binaryName() string {
	if runtime.GOOS == "windows" {
		return engineName + ".exe"
	}
	return engineName
}

// Locate finds the restic executable: first a binary next to the running
// application, then the system PATH. A successful result is cached for the
// process lifetime; failures are re-checked on the next call.
func Locate() (string, error) {
	locateMu.Lock()
	defer locateMu.Unlock()

	if locatedPath != "" {
		return locatedPath, nil
	}

	path, err := locate()
	if err != nil {
		return "", err
	}
	locatedPath = path
	return path, nil
}

func locate() (string, error) {
	if exePath, err := executablePath(); err == nil {
		candidate := filepath.Join(filepath.Dir(exePath), binaryName())
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if path, err := lookPath(engineName); err == nil {
		return path, nil
	}

	return "", apperrors.New(apperrors.KindExecutableNotFound, "restic executable not found", notFoundHint)
}
