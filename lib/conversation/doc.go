// Copyright 2026 The OpenHands Authors
// SPDX-License-Identifier: Apache-2.0

// Package conversation persists and presents conversation trajectories.
//
// Each conversation lives under its own directory keyed by UUID, with
// one JSON document per event. The Store appends events as they stream
// from the engine, the Lister enumerates past conversations for resume
// pickers and the view command, and the Visualizer renders recorded
// events for terminal display.
package conversation
