package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/interop-runtime/errors"
)

func TestLibraryFilename(t *testing.T) {
	tests := []struct {
		goos   string
		remote bool
		want   string
	}{
		{"linux", false, "libinterop-api.so.1"},
		{"linux", true, "libinteropapi-remote.so.1"},
		{"windows", false, "interopapi.dll"},
		{"windows", true, "interopapi-remote.dll"},
		{"darwin", false, "libinterop-api.1.dylib"},
	}
	for _, tt := range tests {
		got, err := LibraryFilename(tt.goos, tt.remote)
		if err != nil {
			t.Errorf("LibraryFilename(%s, %v) error: %v", tt.goos, tt.remote, err)
			continue
		}
		if got != tt.want {
			t.Errorf("LibraryFilename(%s, %v) = %s, want %s", tt.goos, tt.remote, got, tt.want)
		}
	}

	if _, err := LibraryFilename("plan9", false); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("plan9 error = %v", err)
	}
	if _, err := LibraryFilename("darwin", true); err == nil {
		t.Error("remote darwin should fail")
	}
}

func TestResolve_Windows(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	if runtime.GOOS == "windows" {
		t.Skip("cross-OS join only applies off windows")
	}
	p, err := Resolve(`C:\Program Files\Lumerical\v241`, true, "windows")
	if err != nil {
		t.Fatal(err)
	}
	want := Paths{
		InstallDir:  `C:\Program Files\Lumerical\v241`,
		LibDir:      `C:\Program Files\Lumerical\v241\api\python`,
		LibFilename: "interopapi-remote.dll",
		Library:     `C:\Program Files\Lumerical\v241\api\python\interopapi-remote.dll`,
		EnvPath:     `C:\Program Files\Lumerical\v241\bin;/usr/bin`,
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_Darwin(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	if runtime.GOOS == "windows" {
		t.Skip("cross-OS join only applies off windows")
	}
	p, err := Resolve("/Applications/Lumerical v241.app", false, "darwin")
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(p.EnvPath, ":")
	if len(parts) != 5 || parts[4] != "/usr/bin" {
		t.Fatalf("EnvPath = %q", p.EnvPath)
	}
	if !strings.HasSuffix(parts[0], "/Contents/Applications/FDTD Solutions.app/Contents/MacOS") {
		t.Errorf("first bundle dir = %q", parts[0])
	}
	if p.LibFilename != "libinterop-api.1.dylib" {
		t.Errorf("LibFilename = %s", p.LibFilename)
	}
}

func TestResolve_EnvFallback(t *testing.T) {
	if runtime.GOOS != "linux" && runtime.GOOS != "windows" && runtime.GOOS != "darwin" {
		t.Skip("unsupported OS")
	}
	t.Setenv(EnvInstallDir, "/opt/lumerical/v241")
	p, err := Resolve("", false, runtime.GOOS)
	if err != nil {
		t.Fatal(err)
	}
	if p.InstallDir != "/opt/lumerical/v241" {
		t.Errorf("InstallDir = %s", p.InstallDir)
	}
	if p.Library != filepath.Join(p.LibDir, p.LibFilename) {
		t.Errorf("Library = %s", p.Library)
	}
}

func TestResolve_NoInstallDir(t *testing.T) {
	t.Setenv(EnvInstallDir, "")
	if _, err := Resolve("", false, "linux"); !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("error = %v, want invalid input", err)
	}
}

func TestPaths_Check(t *testing.T) {
	dir := t.TempDir()
	p := Paths{Library: filepath.Join(dir, "missing.so")}
	err := p.Check()
	if err == nil || !strings.Contains(err.Error(), "Unable to find file") {
		t.Errorf("Check() = %v", err)
	}

	lib := filepath.Join(dir, "lib.so")
	if err := os.WriteFile(lib, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	p.Library = lib
	if err := p.Check(); err != nil {
		t.Errorf("Check() on existing file = %v", err)
	}
}

func TestWithEnv_Restores(t *testing.T) {
	t.Setenv("INTEROP_TEST_SET", "before")
	os.Unsetenv("INTEROP_TEST_UNSET")

	err := WithEnv(map[string]string{
		"INTEROP_TEST_SET":   "during",
		"INTEROP_TEST_UNSET": "during",
	}, func() error {
		if got := os.Getenv("INTEROP_TEST_SET"); got != "during" {
			t.Errorf("inside scope INTEROP_TEST_SET = %q", got)
		}
		if got := os.Getenv("INTEROP_TEST_UNSET"); got != "during" {
			t.Errorf("inside scope INTEROP_TEST_UNSET = %q", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := os.Getenv("INTEROP_TEST_SET"); got != "before" {
		t.Errorf("INTEROP_TEST_SET restored to %q", got)
	}
	if _, ok := os.LookupEnv("INTEROP_TEST_UNSET"); ok {
		t.Error("INTEROP_TEST_UNSET should be unset again")
	}
}

func TestWithEnv_ReturnsError(t *testing.T) {
	want := errors.InvalidInput(errors.PhaseLoad, "boom")
	err := WithEnv(nil, func() error { return want })
	if err != want {
		t.Errorf("WithEnv error = %v, want %v", err, want)
	}
}

func TestLoadProfile(t *testing.T) {
	t.Setenv(EnvInstallDir, "")
	path := filepath.Join(t.TempDir(), "fdtd.yaml")
	doc := `
product: device
install_dir: /opt/lumerical/v241
hide: true
server_args:
  use-solve: true
  threads: "2"
  logall: false
remote_args:
  hostname: 123.123.123.123
  port: 8989
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.Product != "device" || !p.Hide || p.InstallDir != "/opt/lumerical/v241" {
		t.Errorf("profile = %+v", p)
	}
	if p.LogLevel != "info" {
		t.Errorf("LogLevel default lost: %q", p.LogLevel)
	}
	if p.RemoteArgs == nil || p.RemoteArgs.Port != 8989 {
		t.Errorf("RemoteArgs = %+v", p.RemoteArgs)
	}
	if diff := cmp.Diff([]string{"--threads=2", "--use-solve"}, p.ServerArgs.Flags()); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadProfile_ServerArgsList(t *testing.T) {
	var p Profile
	err := ParseProfile([]byte("server_args:\n  - use-solve: true\n    threads: \"2\"\n"), &p)
	if err == nil {
		t.Fatal("expected error for server_args sequence")
	}
	if !strings.Contains(err.Error(), "Server arguments must be in dict format") {
		t.Errorf("error = %v", err)
	}
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Errorf("error kind = %v", err)
	}
}

func TestLoadProfile_MissingFile(t *testing.T) {
	t.Setenv(EnvInstallDir, "/from/env")
	p, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if p.Product != "fdtd" {
		t.Errorf("Product = %s, want default fdtd", p.Product)
	}
	if p.InstallDir != "/from/env" {
		t.Errorf("InstallDir = %s, want env override", p.InstallDir)
	}
}

func TestLoadProfile_RemoteNeedsHost(t *testing.T) {
	var p Profile
	if err := ParseProfile([]byte("remote_args:\n  port: 1\n"), &p); err == nil {
		t.Error("expected error for remote_args without hostname")
	}
}
