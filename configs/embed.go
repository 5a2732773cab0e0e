// Package configs embeds the configuration templates written by
// `siteindex config init`.
package configs

import _ "embed"

// UserConfigTemplate is written to ~/.config/siteindex/config.yaml.
// Every key is present with its default value and a short explanation.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
