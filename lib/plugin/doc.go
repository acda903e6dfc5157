// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package plugin manages plugin marketplaces and installed plugins.
//
// Marketplaces are remote indexes (a marketplace.json reachable over
// HTTP) registered in ~/.openhands/marketplaces.json and cached under
// ~/.openhands/marketplace_cache/. Installed plugins are recorded in
// ~/.openhands/plugins.json and resolved against the cached indexes
// when a conversation starts.
package plugin
