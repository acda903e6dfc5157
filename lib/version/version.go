// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the CLI version string embedded at build time.
package version

import "runtime/debug"

// Version is the release version, overridden at build time via
// -ldflags "-X github.com/openhands/openhands-cli/lib/version.Version=...".
var Version = "dev"

// String returns the human-readable version. For plain "go install"
// builds without ldflags it falls back to the module version recorded
// in build info.
func String() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
