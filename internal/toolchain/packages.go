package toolchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/exaequos/exabuild/internal/logger"
	"github.com/exaequos/exabuild/internal/platform"
)

// errNoPackageManager is returned when no installer is known for the platform.
var errNoPackageManager = errors.New("no package manager known for platform")

// packageManagerFor returns the install command prefix for the platform
// package manager.
func packageManagerFor(goos string) ([]string, error) {
	switch goos {
	case "linux":
		return []string{"apt-get", "install", "-y"}, nil
	case "darwin":
		return []string{"brew", "install"}, nil
	case "windows":
		return []string{"choco", "install", "-y"}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errNoPackageManager, goos)
	}
}

// InstallPackages installs the build-time system packages declared in
// the manifest for the target OS. An empty list is a no-op; an installer
// failure is fatal and signals a misconfigured environment.
func InstallPackages(ctx context.Context, target platform.Target, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	installer, err := packageManagerFor(target.OS)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Installing build-time packages",
		"manager", installer[0], "packages", packages)

	args := append(installer[1:], packages...)

	if err = NewRunner("").Run(ctx, installer[0], args...); err != nil {
		return fmt.Errorf("install packages: %w", err)
	}

	return nil
}
