package tables

import (
	"github.com/JonMunkholm/AssetViewer/internal/core"
	"github.com/JonMunkholm/AssetViewer/internal/dump"
)

// Column positions in the `asset` table.
const (
	assetColID       = 0
	assetColCategory = 2
	assetColBrand    = 3
	assetColModel    = 4
	assetColName     = 5
	assetColComment  = 6
	assetColActive   = 7
	assetColOwner    = 8
	assetColCreated  = 10
	assetColLocation = 11
	assetColBlog     = 13
)

// Column positions in `assetcategory` and `assetcategoryfield`.
const (
	categoryColID   = 0
	categoryColName = 2

	categoryFieldColID   = 0
	categoryFieldColName = 1
)

// Column positions in `mmassetfieldvalue`.
const (
	fieldValueColAsset = 1
	fieldValueColField = 2
	fieldValueColValue = 3
)

// Column positions in `assetupdate`.
const (
	updateColAsset    = 1
	updateColUser     = 2
	updateColUserType = 3
	updateColDate     = 4
)

func init() {
	registerAssets()
	registerAssetCategories()
	registerAssetCategoryFields()
	registerAssetFieldValues()
	registerAssetUpdates()
}

func registerAssets() {
	core.Register(core.TableDefinition{
		Key:       "assets",
		Table:     "asset",
		Label:     "Assets",
		MinFields: assetColOwner + 1,
		Apply: func(b *core.Builder, t dump.Tuple) {
			b.PutAsset(core.Asset{
				ID:         t.Field(assetColID),
				CategoryID: t.Field(assetColCategory),
				BrandID:    t.Field(assetColBrand),
				ModelID:    t.Field(assetColModel),
				Name:       t.Field(assetColName),
				Comment:    t.Field(assetColComment),
				IsActive:   t.Field(assetColActive),
				OwnerID:    t.Field(assetColOwner),
				CreatedAt:  t.Field(assetColCreated),
				Location:   t.Field(assetColLocation),
				Blog:       t.Field(assetColBlog),
			})
		},
	})
}

func registerAssetCategories() {
	core.Register(core.TableDefinition{
		Key:       "asset_categories",
		Table:     "assetcategory",
		Label:     "Asset Categories",
		MinFields: categoryColName + 1,
		Apply: func(b *core.Builder, t dump.Tuple) {
			b.PutCategory(t.Field(categoryColID), t.Field(categoryColName))
		},
	})
}

func registerAssetCategoryFields() {
	core.Register(core.TableDefinition{
		Key:       "asset_category_fields",
		Table:     "assetcategoryfield",
		Label:     "Asset Category Fields",
		MinFields: categoryFieldColName + 1,
		Apply: func(b *core.Builder, t dump.Tuple) {
			b.PutCategoryField(t.Field(categoryFieldColID), t.Field(categoryFieldColName))
		},
	})
}

func registerAssetFieldValues() {
	core.Register(core.TableDefinition{
		Key:       "asset_field_values",
		Table:     "mmassetfieldvalue",
		Label:     "Asset Field Values",
		MinFields: fieldValueColValue + 1,
		Apply: func(b *core.Builder, t dump.Tuple) {
			b.AddFieldValue(
				t.Field(fieldValueColAsset),
				t.Field(fieldValueColField),
				t.Field(fieldValueColValue),
			)
		},
	})
}

func registerAssetUpdates() {
	core.Register(core.TableDefinition{
		Key:       "asset_updates",
		Table:     "assetupdate",
		Label:     "Asset Updates",
		MinFields: updateColDate + 1,
		Apply: func(b *core.Builder, t dump.Tuple) {
			b.AddUpdate(t.Field(updateColAsset), core.AssetUpdate{
				UserID:   t.Field(updateColUser),
				UserType: t.Field(updateColUserType),
				Date:     t.Field(updateColDate),
			})
		},
	})
}
