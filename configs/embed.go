// Package configs embeds the configuration template written by
// `bmsearch config init`. Embedding keeps it available in every build,
// including `go install` and release binaries.
package configs

import _ "embed"

// ConfigTemplate is written to ~/.config/bmsearch/config.yaml (or
// $XDG_CONFIG_HOME/bmsearch/config.yaml). Every key is present with its
// default value, so loading the template yields the default configuration.
//
//go:embed config.example.yaml
var ConfigTemplate string
