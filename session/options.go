package session

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	interop "github.com/wippyai/interop-runtime"
	"github.com/wippyai/interop-runtime/config"
	"github.com/wippyai/interop-runtime/errors"
)

// Options control how a session is started.
type Options struct {
	// Logger receives session diagnostics. Defaults to the package logger.
	Logger *zap.Logger
	// Warn receives non-fatal warnings in addition to the log.
	Warn func(Warning)
	// RemoteArgs connects to an application on another host.
	RemoteArgs *config.RemoteArgs
	// Key is the license key passed to the application.
	Key *interop.Key
	// ServerArgs are extra engine options, see config.ServerArgs.
	ServerArgs config.ServerArgs
	// Project is loaded after start.
	Project string
	// Filename is loaded after start, or run when it is a .lsf script.
	Filename string
	// Script is run after start and after any project is loaded.
	Script string
	// InstallDir locates the native library for OpenNative.
	InstallDir string
	// Hide starts the application without its window.
	Hide bool
}

// FromProfile converts a saved profile.
func FromProfile(p *config.Profile) Options {
	return Options{
		Hide:       p.Hide,
		Project:    p.Project,
		Filename:   p.Filename,
		Script:     p.Script,
		ServerArgs: p.ServerArgs,
		RemoteArgs: p.RemoteArgs,
		InstallDir: p.InstallDir,
	}
}

// ScriptExt marks a Filename that is run rather than loaded.
const ScriptExt = ".lsf"

// startup works out what to load and run once the application is up.
func (o Options) startup() (load, script string, err error) {
	if o.Project != "" && o.Filename != "" {
		return "", "", errors.InvalidInput(errors.PhaseOpen,
			"project and filename both given; pass one file to load")
	}
	load = o.Project
	if load == "" {
		load = o.Filename
	}
	script = o.Script
	if strings.EqualFold(filepath.Ext(load), ScriptExt) {
		if script != "" {
			return "", "", errors.InvalidInput(errors.PhaseOpen,
				fmt.Sprintf("two scripts given (%s and %s); pass at most one", load, script))
		}
		load, script = "", load
	}
	return load, script, nil
}

// openURL builds the appOpen URL, e.g.
//
//	fdtd://localhost?server=true&hide&server-args=--threads%3D4
func openURL(p interop.Product, o Options) (string, error) {
	parts := []string{"server=true"}
	if o.Hide {
		parts = append(parts, "hide")
	}
	if flags := o.ServerArgs.Flags(); len(flags) > 0 {
		parts = append(parts, "server-args="+url.QueryEscape(strings.Join(flags, " ")))
	}
	if r := o.RemoteArgs; r != nil {
		if r.Hostname == "" {
			return "", errors.New(errors.PhaseOpen, errors.KindConnection).
				Detail("remote arguments need a hostname").
				Build()
		}
		if r.Port < 0 || r.Port > 65535 {
			return "", errors.New(errors.PhaseOpen, errors.KindConnection).
				Value(r.Port).
				Detail("remote port %d is out of range", r.Port).
				Build()
		}
		parts = append(parts, "remote-host="+url.QueryEscape(r.Hostname))
		if r.Port != 0 {
			parts = append(parts, fmt.Sprintf("remote-port=%d", r.Port))
		}
	}
	return p.Scheme() + "://localhost?" + strings.Join(parts, "&"), nil
}

// quote renders s as a script string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}
