// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command tree framework for the openhands
// binary: declarative commands with pflag flag sets, structured help
// output, typo suggestions, and exit-code-carrying errors.
package cli
