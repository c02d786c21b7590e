package tables

import (
	"github.com/JonMunkholm/AssetViewer/internal/core"
	"github.com/JonMunkholm/AssetViewer/internal/dump"
)

const (
	brandColID   = 0
	brandColName = 1

	modelColID   = 0
	modelColName = 2
)

func init() {
	core.Register(core.TableDefinition{
		Key:       "brands",
		Table:     "brand",
		Label:     "Brands",
		MinFields: brandColName + 1,
		Apply: func(b *core.Builder, t dump.Tuple) {
			b.PutBrand(t.Field(brandColID), t.Field(brandColName))
		},
	})

	core.Register(core.TableDefinition{
		Key:       "models",
		Table:     "model",
		Label:     "Models",
		MinFields: modelColName + 1,
		Apply: func(b *core.Builder, t dump.Tuple) {
			b.PutModel(t.Field(modelColID), t.Field(modelColName))
		},
	})
}
