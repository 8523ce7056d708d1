package domain

import "github.com/shopspring/decimal"

// Material is a raw material consumed by production. Immutable once loaded.
type Material struct {
	ID          string
	Name        string
	Description string
}

// BOMLine is one bill-of-materials entry: how much of a material one unit
// of the product consumes.
type BOMLine struct {
	MaterialID string `json:"material_id"`
	Quantity   int    `json:"quantity"`
}

// Product is a manufacturable good with its bill of materials and the number
// of whole days one production run takes. Immutable once loaded.
type Product struct {
	ID             string
	Name           string
	BOM            []BOMLine
	ProductionTime int
}

// RequiredMaterials computes the total material needs for the given quantity
// of this product, aggregated per material.
func (p Product) RequiredMaterials(quantity int) map[string]int {
	required := make(map[string]int, len(p.BOM))
	for _, line := range p.BOM {
		required[line.MaterialID] += line.Quantity * quantity
	}
	return required
}

// BOMMaterialIDs returns the distinct material ids in BOM order. Callers use
// this when a deterministic iteration order over requirements matters, e.g.
// reporting the first material that blocks an acceptance.
func (p Product) BOMMaterialIDs() []string {
	seen := make(map[string]bool, len(p.BOM))
	ids := make([]string, 0, len(p.BOM))
	for _, line := range p.BOM {
		if !seen[line.MaterialID] {
			seen[line.MaterialID] = true
			ids = append(ids, line.MaterialID)
		}
	}
	return ids
}

// Offering is a single catalog entry of a provider: a material at a unit
// price with a delivery lead time.
type Offering struct {
	MaterialID      string          `json:"material_id"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit"`
	OfferedUnitSize int             `json:"offered_unit_size"`
	LeadTimeDays    int             `json:"lead_time_days"`
}

// Provider is a supplier with a catalog of material offerings. Immutable once
// loaded. A material may be offered by several providers at different prices
// and lead times.
type Provider struct {
	ID      string
	Name    string
	Catalog []Offering
}

// OfferingFor returns the provider's offering for the given material, if any.
func (p Provider) OfferingFor(materialID string) (Offering, bool) {
	for _, o := range p.Catalog {
		if o.MaterialID == materialID {
			return o, true
		}
	}
	return Offering{}, false
}
