//go:build embed_model

package provider

import "embed"

// models/ is populated by the download-model command before building.
//
//go:embed all:models
var embeddedModelFS embed.FS

const hasEmbeddedModel = true
