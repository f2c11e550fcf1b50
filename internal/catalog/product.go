package catalog

import (
	"net/url"
	"strings"
)

// Field names used by the catalog's product detail payload.
const (
	fieldCode        = "productCode"
	fieldBrand       = "brandNameEn"
	fieldModel       = "productModel"
	fieldPackage     = "encapStandard"
	fieldIntro       = "productIntroEn"
	fieldDescription = "productDescEn"
	fieldStock       = "stockNumber"
	fieldLinks       = "links"
)

// PageLinks builds canonical product page URLs.
type PageLinks struct {
	// ProductPageBase is prefixed to "<code>.html".
	ProductPageBase string
	// SiteRoot is joined with a relative "links" path when the result carries one.
	SiteRoot string
}

// URL returns the product page for code, preferring a relative link supplied by the catalog.
func (p PageLinks) URL(code, relative string) string {
	if relative != "" {
		if strings.HasPrefix(relative, "http://") || strings.HasPrefix(relative, "https://") {
			return relative
		}
		if p.SiteRoot != "" {
			return strings.TrimSuffix(p.SiteRoot, "/") + "/" + strings.TrimPrefix(relative, "/")
		}
	}
	if code == "" || p.ProductPageBase == "" {
		return ""
	}
	return p.ProductPageBase + url.PathEscape(code) + ".html"
}

// ExtractProduct pulls the report fields out of a catalog result object.
// Absent fields stay empty; the catalog code falls back to the identifier
// that was looked up.
func ExtractProduct(identifier string, result Document, links PageLinks) Product {
	code := result.String(fieldCode)
	if code == "" {
		code = identifier
	}

	return Product{
		Code:                   code,
		Manufacturer:           result.String(fieldBrand),
		ManufacturerPartNumber: result.String(fieldModel),
		Package:                result.String(fieldPackage),
		Description:            result.FirstString(fieldIntro, fieldDescription),
		Stock:                  result.String(fieldStock),
		PageURL:                links.URL(code, result.String(fieldLinks)),
	}
}
