package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/AssetViewer/internal/dump"
)

// User types recorded on asset updates.
const (
	UserTypeEngineer = "1"
	UserTypeCustomer = "2"
)

// Asset is one row of the asset table, projected to the columns the viewer shows.
type Asset struct {
	ID         string `json:"PKAssetId"`
	CategoryID string `json:"FKAssetCategoryId"`
	BrandID    string `json:"FKBrandId"`
	ModelID    string `json:"FKModelId"`
	Name       string `json:"AssetName"`
	Comment    string `json:"Comment"`
	IsActive   string `json:"IsActive"`
	OwnerID    string `json:"FKOwnerId"`
	CreatedAt  string `json:"DateCreated"`
	Location   string `json:"AssetLocation"`
	Blog       string `json:"AssetBlog"`
}

// Customer holds the display fields of a customer row.
type Customer struct {
	Name        string `json:"CustomerName"`
	CompanyName string `json:"CompanyName"`
}

// AssetUpdate records who touched an asset and when.
type AssetUpdate struct {
	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`
	Date     string `json:"date"`
}

// SnapshotMeta identifies one build of a snapshot.
type SnapshotMeta struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Source    string    `json:"source,omitempty"`
}

// AssetSummary is one row of the asset grid.
type AssetSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Customer string `json:"customer"`
	Location string `json:"location"`
}

// AssetInfo is the fixed block of the asset detail view. Field order matches
// the order the detail page shows them in.
type AssetInfo struct {
	AssetName       string `json:"Asset Name"`
	CustomerName    string `json:"Customer Name"`
	BrandName       string `json:"Brand Name"`
	ModelName       string `json:"Model Name"`
	CategoryName    string `json:"Asset Category Name"`
	CreatedBy       string `json:"Created By"`
	UpdatedBy       string `json:"Updated By"`
	CreatedDateTime string `json:"Created Date-Time"`
	UpdatedDateTime string `json:"Updated Date-Time"`
	Location        string `json:"Location"`
	Comment         string `json:"Comment"`
	AssetBlog       string `json:"Asset Blog"`
}

// AssetDetail is everything known about one asset.
type AssetDetail struct {
	ID           string            `json:"-"`
	Info         AssetInfo         `json:"asset_info"`
	CustomFields map[string]string `json:"custom_fields"`
}

// ApplyFunc projects one tuple of a table into the builder.
type ApplyFunc func(b *Builder, t dump.Tuple)

// TableDefinition describes how one dump table feeds the snapshot.
type TableDefinition struct {
	Key       string    // Unique identifier: "assets"
	Table     string    // Table name in the dump: "asset"
	Label     string    // Display name: "Assets"
	MinFields int       // Narrower tuples are skipped
	Apply     ApplyFunc // Positional projection into the builder
}

// Prefix is the literal line prefix of this table's INSERT statements.
func (t TableDefinition) Prefix() string {
	return insertPrefix + t.Table + insertSuffix
}

// SnapshotSource produces a snapshot, e.g. by parsing a dump or reading a
// previously exported one.
type SnapshotSource interface {
	Name() string
	Snapshot(ctx context.Context) (*Snapshot, error)
}
