// Package config locates the native interop library and loads session
// profiles.
//
// Resolve derives everything the loader needs from a single install
// directory: the library file, which differs per OS and between the local
// and remote variants, and the PATH value the library needs while it is
// being loaded. The install directory itself comes from the caller, a
// profile, or the INTEROP_INSTALL_DIR environment variable; this package
// does not scan the disk for installations.
//
// Profiles are YAML files describing how to open a session:
//
//	product: fdtd
//	install_dir: /opt/lumerical/v241
//	hide: true
//	server_args:
//	  use-solve: true
//	  threads: "2"
//	remote_args:
//	  hostname: 10.0.0.5
//	  port: 8989
//	log_level: debug
package config
