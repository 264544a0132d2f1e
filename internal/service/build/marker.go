package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/exaequos/exabuild/internal/logger"
)

// MarkerFilename marks that a build is running right now to avoid
// parallel invocations fighting over the CEF checkout and output folder.
const MarkerFilename = "exabuild-marker.bin"

// IsBuildRunningNow checks the presence of a build marker. A marker left
// behind by a crashed run (no other orchestrator process alive) is
// removed so the new build can proceed.
func IsBuildRunningNow(ctx context.Context) bool {
	_, err := os.Stat(MarkerFilename)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}

	if err != nil {
		logger.Infof(ctx, "Unable to read build marker: %v", err)
		return false
	}

	if anotherOrchestratorAlive() {
		return true
	}

	logger.Info(ctx, "Stale build marker found, removing it")

	if err = os.Remove(MarkerFilename); err != nil {
		// Err on the side of not starting a second build.
		return true
	}

	return false
}

// createMarker writes the build marker; the caller removes it on exit.
func createMarker() error {
	marker, err := os.Create(MarkerFilename)
	if err != nil {
		return err
	}

	return marker.Close()
}

// removeMarker deletes the build marker, tolerating its absence.
func removeMarker() {
	_ = os.Remove(MarkerFilename)
}

// anotherOrchestratorAlive reports whether a different process with this
// executable's name is currently running.
func anotherOrchestratorAlive() bool {
	self, err := os.Executable()
	if err != nil {
		return false
	}

	selfName := filepath.Base(self)

	processes, err := ps.Processes()
	if err != nil {
		return false
	}

	thisProcessID := os.Getpid()

	for _, process := range processes {
		if process.Pid() == thisProcessID {
			continue
		}

		if strings.EqualFold(process.Executable(), selfName) {
			return true
		}
	}

	return false
}
