package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/interop-runtime/errors"
)

// RemoteArgs describes a connection to an application on another host.
type RemoteArgs struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
}

// ServerArgs are engine options passed on the command line of the
// application, such as use-solve or threads. true renders as a bare flag,
// false omits the option.
type ServerArgs map[string]any

// UnmarshalYAML accepts only a mapping.
func (s *ServerArgs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.InvalidInput(errors.PhaseConfig, "Server arguments must be in dict format")
	}
	m := make(map[string]any)
	if err := node.Decode(&m); err != nil {
		return err
	}
	*s = m
	return nil
}

// Flags renders the arguments as command-line options sorted by name.
func (s ServerArgs) Flags() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		name := "--" + strings.TrimLeft(k, "-")
		switch v := s[k].(type) {
		case bool:
			if v {
				out = append(out, name)
			}
		case nil:
			out = append(out, name)
		default:
			out = append(out, fmt.Sprintf("%s=%v", name, v))
		}
	}
	return out
}

// Profile is a saved description of how to open a session.
type Profile struct {
	Product    string      `yaml:"product"`
	InstallDir string      `yaml:"install_dir"`
	Project    string      `yaml:"project"`
	Filename   string      `yaml:"filename"`
	Script     string      `yaml:"script"`
	LogLevel   string      `yaml:"log_level"`
	ServerArgs ServerArgs  `yaml:"server_args"`
	RemoteArgs *RemoteArgs `yaml:"remote_args"`
	Hide       bool        `yaml:"hide"`
}

// DefaultProfile returns the settings used when no profile file is given.
func DefaultProfile() *Profile {
	return &Profile{
		Product:  "fdtd",
		LogLevel: "info",
	}
}

// LoadProfile reads a YAML profile on top of the defaults and applies
// environment overrides. A missing file yields the defaults.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := ParseProfile(data, p); err != nil {
				return nil, err
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "failed to read profile")
		}
	}

	p.applyEnvOverrides()
	return p, nil
}

// ParseProfile decodes YAML into p, keeping fields the document omits.
func ParseProfile(data []byte, p *Profile) error {
	if err := yaml.Unmarshal(data, p); err != nil {
		var e *errors.Error
		if asConfigError(err, &e) {
			return e
		}
		return errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "failed to parse profile")
	}
	if p.RemoteArgs != nil && p.RemoteArgs.Hostname == "" {
		return errors.InvalidInput(errors.PhaseConfig, "remote_args needs a hostname")
	}
	return nil
}

func (p *Profile) applyEnvOverrides() {
	if dir := os.Getenv(EnvInstallDir); dir != "" {
		p.InstallDir = dir
	}
}

// asConfigError digs our own error out of yaml's wrapping.
func asConfigError(err error, target **errors.Error) bool {
	for err != nil {
		if e, ok := err.(*errors.Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
