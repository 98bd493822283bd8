// Package configs provides embedded configuration templates for typeindex.
//
// Templates are embedded at build time so `typeindex init` works from any
// installation. Configuration is layered as described in
// internal/config Load(): defaults, user config, project config, then
// TYPEINDEX_* environment variables.
package configs

import _ "embed"

// ProjectConfigTemplate is written by `typeindex init` as .typeindex.yaml.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
