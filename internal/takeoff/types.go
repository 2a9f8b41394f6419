// Package takeoff applies a bid template to an extracted variable table,
// resolving each line item's quantity in dependency order.
package takeoff

// Section groups line items for display. Materials always precede labor in
// resolved output.
type Section string

const (
	SectionMaterials Section = "materials"
	SectionLabor     Section = "labor"
)

// rank orders sections in resolved output; unknown sections sort last.
func (s Section) rank() int {
	switch s {
	case SectionMaterials:
		return 0
	case SectionLabor:
		return 1
	default:
		return 2
	}
}

// CatalogPrice links an item to its catalog price record. The engine passes
// it through untouched; margin and tax math belong to the pricing layer.
type CatalogPrice struct {
	UnitPrice float64 `yaml:"unit_price" json:"unit_price"`
	Taxable   bool    `yaml:"taxable" json:"taxable"`
}

// TemplateItem is one configured candidate line item. Templates are loaded
// once per run and treated as read-only input.
type TemplateItem struct {
	ID          string        `yaml:"id" json:"id"`
	Section     Section       `yaml:"section" json:"section"`
	Description string        `yaml:"description" json:"description"`
	Unit        string        `yaml:"unit,omitempty" json:"unit,omitempty"`
	Formula     string        `yaml:"formula,omitempty" json:"formula,omitempty"`
	Compute     string        `yaml:"compute,omitempty" json:"compute,omitempty"`
	Quantity    *float64      `yaml:"quantity,omitempty" json:"quantity,omitempty"`
	DependsOn   string        `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	SortOrder   int           `yaml:"sort_order,omitempty" json:"sort_order,omitempty"`
	Price       *CatalogPrice `yaml:"price,omitempty" json:"price,omitempty"`
}

// QuantitySource records where a resolved quantity came from.
type QuantitySource string

const (
	// SourceFormula marks a quantity computed from the item's formula or
	// its named trade computation.
	SourceFormula QuantitySource = "formula"

	// SourceFixed marks the configured fallback quantity (or zero when
	// the item has neither formula nor fallback).
	SourceFixed QuantitySource = "manual"

	// SourceExternal marks a quantity supplied by the caller as an
	// override.
	SourceExternal QuantitySource = "external"
)

// ResolvedLineItem is one output row of a template application. It is
// created fresh on every pass and never mutated afterwards; ownership
// passes to the pricing layer.
type ResolvedLineItem struct {
	ItemID      string         `json:"item_id" yaml:"item_id"`
	Section     Section        `json:"section" yaml:"section"`
	Description string         `json:"description" yaml:"description"`
	Unit        string         `json:"unit,omitempty" yaml:"unit,omitempty"`
	Quantity    float64        `json:"quantity" yaml:"quantity"`
	Source      QuantitySource `json:"source" yaml:"source"`

	// Formula is the literal formula text when Source is SourceFormula,
	// kept for audit and display.
	Formula string `json:"formula,omitempty" yaml:"formula,omitempty"`

	Price     *CatalogPrice `json:"price,omitempty" yaml:"price,omitempty"`
	SortOrder int           `json:"sort_order" yaml:"sort_order"`
}
