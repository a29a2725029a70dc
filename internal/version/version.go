/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version provides build version information.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current version of Grimnir Timeline.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/grimnir_timeline/internal/version.Version=X.Y.Z
var Version = "0.1.0"

// Info describes the running binary.
type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
}

// Get returns the version together with VCS details embedded by the Go
// toolchain, when present.
func Get() Info {
	info := Info{Version: Version, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String formats i for humans, e.g. "0.1.0 (1a2b3c4d, go1.24.0)".
func (i Info) String() string {
	rev := i.Revision
	if len(rev) > 8 {
		rev = rev[:8]
	}
	if rev == "" {
		return fmt.Sprintf("%s (%s)", i.Version, i.GoVersion)
	}
	if i.Modified {
		rev += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", i.Version, rev, i.GoVersion)
}
