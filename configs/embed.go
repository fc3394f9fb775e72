// Package configs provides embedded configuration templates for classfind.
//
// The templates are written by `classfind config init`:
//   - user-config.example.yaml at ~/.config/classfind/config.yaml
//   - project-config.example.yaml at .classfind.yaml with --project
//
// Every option in a template is commented out, so a fresh file changes
// nothing until an option is uncommented. See internal/config for the
// precedence of defaults, user config, project config and CLASSFIND_* env vars.
package configs

import _ "embed"

// UserConfigTemplate is the template for machine-level configuration.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for per-project configuration.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
