package core

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// fieldValue is a custom field value whose field name is resolved at build
// time, so the order of tables in the dump does not matter.
type fieldValue struct {
	fieldID string
	value   string
}

// Builder accumulates projected records while a dump is read.
//
// Map-backed tables are last-writer-wins per key. A Builder is not safe for
// concurrent use; the loader applies tuples from a single goroutine in source
// order.
type Builder struct {
	assets         map[string]Asset
	categories     map[string]string
	brands         map[string]string
	models         map[string]string
	categoryFields map[string]string
	fieldValues    map[string][]fieldValue
	customers      map[string]Customer
	engineers      map[string]string
	updates        map[string][]AssetUpdate
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		assets:         make(map[string]Asset),
		categories:     make(map[string]string),
		brands:         make(map[string]string),
		models:         make(map[string]string),
		categoryFields: make(map[string]string),
		fieldValues:    make(map[string][]fieldValue),
		customers:      make(map[string]Customer),
		engineers:      make(map[string]string),
		updates:        make(map[string][]AssetUpdate),
	}
}

// Put* methods insert or replace one record by id.
func (b *Builder) PutAsset(a Asset) { b.assets[a.ID] = a }
func (b *Builder) PutCategory(id, name string) { b.categories[id] = name }
func (b *Builder) PutBrand(id, name string) { b.brands[id] = name }
func (b *Builder) PutModel(id, name string) { b.models[id] = name }
func (b *Builder) PutCategoryField(id, name string) { b.categoryFields[id] = name }
func (b *Builder) PutCustomer(id string, c Customer) { b.customers[id] = c }
func (b *Builder) PutEngineer(id, name string) { b.engineers[id] = name }

// AddFieldValue appends a custom field value for an asset, creating the
// asset's list on first use.
func (b *Builder) AddFieldValue(assetID, fieldID, value string) {
	b.fieldValues[assetID] = append(b.fieldValues[assetID], fieldValue{fieldID: fieldID, value: value})
}

// AddUpdate appends an update record for an asset, creating the asset's list
// on first use.
func (b *Builder) AddUpdate(assetID string, u AssetUpdate) {
	b.updates[assetID] = append(b.updates[assetID], u)
}

// Build resolves custom field names and freezes the accumulated records.
// The builder must not be used afterwards.
func (b *Builder) Build(meta SnapshotMeta) *Snapshot {
	resolved := make(map[string]map[string]string, len(b.fieldValues))
	for assetID, values := range b.fieldValues {
		fields := make(map[string]string, len(values))
		for _, fv := range values {
			fields[b.fieldName(fv.fieldID)] = fv.value
		}
		resolved[assetID] = fields
	}

	return &Snapshot{
		meta:           meta,
		assets:         b.assets,
		categories:     b.categories,
		brands:         b.brands,
		models:         b.models,
		categoryFields: b.categoryFields,
		fieldValues:    resolved,
		customers:      b.customers,
		engineers:      b.engineers,
		updates:        b.updates,
	}
}

func (b *Builder) fieldName(fieldID string) string {
	if name, ok := b.categoryFields[fieldID]; ok {
		return name
	}
	return "Field_" + fieldID
}

// DisplayName joins a first and last name. Without a last name only the
// first name is used, untrimmed.
func DisplayName(first, last string) string {
	if last == "" {
		return first
	}
	return strings.TrimSpace(first + " " + last)
}

// Snapshot is the fully parsed content of a dump. It is read-only once built
// and safe to share between request handlers.
type Snapshot struct {
	meta           SnapshotMeta
	assets         map[string]Asset
	categories     map[string]string
	brands         map[string]string
	models         map[string]string
	categoryFields map[string]string
	fieldValues    map[string]map[string]string
	customers      map[string]Customer
	engineers      map[string]string
	updates        map[string][]AssetUpdate
}

// TableCounts reports how many records each table contributed.
type TableCounts struct {
	Assets         int `json:"assets"`
	Categories     int `json:"asset_categories"`
	Brands         int `json:"brands"`
	Models         int `json:"models"`
	CategoryFields int `json:"asset_category_fields"`
	FieldValues    int `json:"asset_field_values"`
	Customers      int `json:"customers"`
	Engineers      int `json:"engineers"`
	Updates        int `json:"asset_updates"`
}

// Meta returns the snapshot's identity.
func (s *Snapshot) Meta() SnapshotMeta { return s.meta }

// Len returns the number of assets.
func (s *Snapshot) Len() int { return len(s.assets) }

// Counts returns per-table record counts.
func (s *Snapshot) Counts() TableCounts {
	return TableCounts{
		Assets:         len(s.assets),
		Categories:     len(s.categories),
		Brands:         len(s.brands),
		Models:         len(s.models),
		CategoryFields: len(s.categoryFields),
		FieldValues:    len(s.fieldValues),
		Customers:      len(s.customers),
		Engineers:      len(s.engineers),
		Updates:        len(s.updates),
	}
}

// Assets returns the asset grid rows ordered by asset id. Unknown category,
// brand, model or owner ids resolve to "".
func (s *Snapshot) Assets() []AssetSummary {
	ids := make([]string, 0, len(s.assets))
	for id := range s.assets {
		ids = append(ids, id)
	}
	sortIDs(ids)

	result := make([]AssetSummary, 0, len(ids))
	for _, id := range ids {
		a := s.assets[id]
		result = append(result, AssetSummary{
			ID:       id,
			Name:     a.Name,
			Category: s.categories[a.CategoryID],
			Brand:    s.brands[a.BrandID],
			Model:    s.models[a.ModelID],
			Customer: s.customers[a.OwnerID].Name,
			Location: a.Location,
		})
	}
	return result
}

// Detail returns the detail view of an asset. Created By and Updated By come
// from the earliest and latest update by date.
func (s *Snapshot) Detail(id string) (AssetDetail, bool) {
	a, ok := s.assets[id]
	if !ok {
		return AssetDetail{}, false
	}

	info := AssetInfo{
		AssetName:       a.Name,
		CustomerName:    s.customers[a.OwnerID].Name,
		BrandName:       s.brands[a.BrandID],
		ModelName:       s.models[a.ModelID],
		CategoryName:    s.categories[a.CategoryID],
		CreatedDateTime: a.CreatedAt,
		Location:        a.Location,
		Comment:         a.Comment,
		AssetBlog:       a.Blog,
	}

	if updates := s.sortedUpdates(id); len(updates) > 0 {
		first, last := updates[0], updates[len(updates)-1]
		info.CreatedBy = s.userName(first)
		info.UpdatedBy = s.userName(last)
		info.UpdatedDateTime = last.Date
	}

	fields := make(map[string]string, len(s.fieldValues[id]))
	for k, v := range s.fieldValues[id] {
		fields[k] = v
	}

	return AssetDetail{ID: id, Info: info, CustomFields: fields}, true
}

func (s *Snapshot) sortedUpdates(assetID string) []AssetUpdate {
	src := s.updates[assetID]
	if len(src) == 0 {
		return nil
	}
	updates := make([]AssetUpdate, len(src))
	copy(updates, src)
	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Date < updates[j].Date
	})
	return updates
}

func (s *Snapshot) userName(u AssetUpdate) string {
	switch u.UserType {
	case UserTypeEngineer:
		return s.engineers[u.UserID]
	case UserTypeCustomer:
		return s.customers[u.UserID].Name
	default:
		return ""
	}
}

// sortIDs orders numeric ids numerically, then any others lexically.
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.ParseInt(ids[i], 10, 64)
		b, errB := strconv.ParseInt(ids[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			if a != b {
				return a < b
			}
			return ids[i] < ids[j]
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}

// snapshotJSON is the persisted shape of a snapshot.
type snapshotJSON struct {
	Meta           SnapshotMeta                 `json:"meta"`
	Assets         map[string]Asset             `json:"assets"`
	Categories     map[string]string            `json:"asset_categories"`
	Brands         map[string]string            `json:"brands"`
	Models         map[string]string            `json:"models"`
	CategoryFields map[string]string            `json:"asset_category_fields"`
	FieldValues    map[string]map[string]string `json:"asset_field_values"`
	Customers      map[string]Customer          `json:"customers"`
	Engineers      map[string]string            `json:"engineers"`
	Updates        map[string][]AssetUpdate     `json:"asset_updates"`
}

// MarshalJSON implements json.Marshaler.
func (s *Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshotJSON{
		Meta:           s.meta,
		Assets:         s.assets,
		Categories:     s.categories,
		Brands:         s.brands,
		Models:         s.models,
		CategoryFields: s.categoryFields,
		FieldValues:    s.fieldValues,
		Customers:      s.customers,
		Engineers:      s.engineers,
		Updates:        s.updates,
	})
}

// UnmarshalJSON implements json.Unmarshaler. Missing tables decode as empty.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var w snapshotJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Snapshot{
		meta:           w.Meta,
		assets:         orEmpty(w.Assets),
		categories:     orEmpty(w.Categories),
		brands:         orEmpty(w.Brands),
		models:         orEmpty(w.Models),
		categoryFields: orEmpty(w.CategoryFields),
		fieldValues:    orEmpty(w.FieldValues),
		customers:      orEmpty(w.Customers),
		engineers:      orEmpty(w.Engineers),
		updates:        orEmpty(w.Updates),
	}
	return nil
}

func orEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return make(map[string]V)
	}
	return m
}
