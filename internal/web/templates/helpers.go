// Package templates renders the asset viewer pages as templ components.
//
// The .templ files are the source; run `templ generate` after editing them.
package templates

import (
	"net/url"
	"sort"
	"strconv"

	"github.com/JonMunkholm/AssetViewer/internal/core"
	"github.com/a-h/templ"
)

// assetURL is the detail page link for an asset id.
func assetURL(id string) templ.SafeURL {
	return templ.URL("/asset/" + url.PathEscape(id))
}

// countLabel is the line above the grid, e.g. "3 of 40 assets" while searching.
func countLabel(shown, total int, query string) string {
	if query != "" {
		return strconv.Itoa(shown) + " of " + strconv.Itoa(total) + " assets"
	}
	return strconv.Itoa(total) + " assets"
}

// infoRows lists the fixed detail fields in display order.
func infoRows(info core.AssetInfo) [][2]string {
	return [][2]string{
		{"Asset Name", info.AssetName},
		{"Customer Name", info.CustomerName},
		{"Brand Name", info.BrandName},
		{"Model Name", info.ModelName},
		{"Asset Category Name", info.CategoryName},
		{"Created By", info.CreatedBy},
		{"Updated By", info.UpdatedBy},
		{"Created Date-Time", info.CreatedDateTime},
		{"Updated Date-Time", info.UpdatedDateTime},
		{"Location", info.Location},
		{"Comment", info.Comment},
		{"Asset Blog", info.AssetBlog},
	}
}

func sortedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// pageTitle falls back to the id for unnamed assets.
func pageTitle(detail core.AssetDetail) string {
	if detail.Info.AssetName == "" {
		return "Asset " + detail.ID
	}
	return detail.Info.AssetName
}
