package catalog

// Options selects which stages run for a reference and how failures are
// treated.
type Options struct {
	ImportProduct    bool   `json:"import_product" mapstructure:"import_product"`
	ImportBrand      bool   `json:"import_brand" mapstructure:"import_brand"`
	ImportCategory   bool   `json:"import_category" mapstructure:"import_category"`
	ImportSkus       bool   `json:"import_skus" mapstructure:"import_skus"`
	ImportImages     bool   `json:"import_images" mapstructure:"import_images"`
	ImportStock      bool   `json:"import_stock" mapstructure:"import_stock"`
	ImportAttributes bool   `json:"import_attributes" mapstructure:"import_attributes"`
	// SkipExisting keeps the pipeline moving past a failed stage: every
	// later stage whose dependencies are satisfied still runs. When false
	// the reference stops at the first failed stage and the remaining
	// stages are reported as not executed.
	SkipExisting bool `json:"skip_existing" mapstructure:"skip_existing"`
	// WarehouseFilter restricts stock rows to a warehouse ID or name.
	// Empty means every warehouse.
	WarehouseFilter string `json:"warehouse_filter" mapstructure:"warehouse_filter"`
}

// DefaultOptions enables every stage and continues past non-fatal failures.
func DefaultOptions() Options {
	return Options{
		ImportProduct:    true,
		ImportBrand:      true,
		ImportCategory:   true,
		ImportSkus:       true,
		ImportImages:     true,
		ImportStock:      true,
		ImportAttributes: true,
		SkipExisting:     true,
	}
}

// StageEnabled reports whether the options allow the given stage to run.
func (o Options) StageEnabled(stage Stage) bool {
	switch stage {
	case StageProduct:
		return o.ImportProduct
	case StageBrand:
		return o.ImportBrand
	case StageCategory:
		return o.ImportCategory
	case StageSkus:
		return o.ImportSkus
	case StageImages:
		return o.ImportImages
	case StageStock:
		return o.ImportStock
	case StageAttributes:
		return o.ImportAttributes
	default:
		return false
	}
}
