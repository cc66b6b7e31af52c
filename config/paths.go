package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/wippyai/interop-runtime/errors"
)

// EnvInstallDir overrides the install directory when set.
const EnvInstallDir = "INTEROP_INSTALL_DIR"

// Paths is everything derived from an install directory.
type Paths struct {
	InstallDir  string
	LibDir      string
	LibFilename string
	// Library is LibDir joined with LibFilename.
	Library string
	// EnvPath is the PATH value to use while loading Library.
	EnvPath string
}

// appBundles are the per-product macOS application directories that hold
// the library's dependencies.
var appBundles = []string{
	"FDTD Solutions.app",
	"MODE Solutions.app",
	"DEVICE.app",
	"INTERCONNECT.app",
}

// LibraryFilename returns the interop library's file name for goos.
func LibraryFilename(goos string, remote bool) (string, error) {
	switch goos {
	case "windows":
		if remote {
			return "interopapi-remote.dll", nil
		}
		return "interopapi.dll", nil
	case "linux":
		if remote {
			return "libinteropapi-remote.so.1", nil
		}
		return "libinterop-api.so.1", nil
	case "darwin":
		if remote {
			return "", errors.InvalidInput(errors.PhaseConfig, "remote sessions are not available on darwin")
		}
		return "libinterop-api.1.dylib", nil
	}
	return "", errors.InvalidInput(errors.PhaseConfig, "no interop library for "+goos)
}

// Resolve computes the paths for installDir on goos. An empty goos means
// the running OS; an empty installDir falls back to INTEROP_INSTALL_DIR.
func Resolve(installDir string, remote bool, goos string) (Paths, error) {
	if goos == "" {
		goos = runtime.GOOS
	}
	if installDir == "" {
		installDir = os.Getenv(EnvInstallDir)
	}
	if installDir == "" {
		return Paths{}, errors.InvalidInput(errors.PhaseConfig,
			"install directory is not set; pass one explicitly or set "+EnvInstallDir)
	}

	name, err := LibraryFilename(goos, remote)
	if err != nil {
		return Paths{}, err
	}

	p := Paths{
		InstallDir:  installDir,
		LibDir:      joinFor(goos, installDir, "api", "python"),
		LibFilename: name,
	}
	p.Library = joinFor(goos, p.LibDir, name)

	sep := ":"
	var dirs []string
	switch goos {
	case "windows":
		sep = ";"
		dirs = []string{joinFor(goos, installDir, "bin")}
	case "darwin":
		for _, app := range appBundles {
			dirs = append(dirs, joinFor(goos, installDir, "Contents", "Applications", app, "Contents", "MacOS"))
		}
	default:
		dirs = []string{joinFor(goos, installDir, "bin")}
	}
	if cur := os.Getenv("PATH"); cur != "" {
		dirs = append(dirs, cur)
	}
	p.EnvPath = strings.Join(dirs, sep)
	return p, nil
}

// Check verifies that the library file exists.
func (p Paths) Check() error {
	info, err := os.Stat(p.Library)
	if err != nil {
		return errors.Load("Unable to find file "+p.Library, err)
	}
	if info.IsDir() {
		return errors.Load("Unable to find file "+p.Library+": is a directory", nil)
	}
	return nil
}

// joinFor joins with the separator of the target OS so that paths for
// another OS can be computed in tests.
func joinFor(goos string, elem ...string) string {
	if goos == runtime.GOOS {
		return filepath.Join(elem...)
	}
	sep := "/"
	if goos == "windows" {
		sep = `\`
	}
	out := strings.TrimRight(elem[0], `/\`)
	for _, e := range elem[1:] {
		out += sep + strings.Trim(e, `/\`)
	}
	return out
}
