package server

import "github.com/oliwoli/castcut/internal/bundle"

// loadBundle is the thin seam between the command layer and
// internal/bundle.Load, kept as its own function so a test can substitute
// a fixture loader without touching the filesystem.
var loadBundle = bundle.Load
