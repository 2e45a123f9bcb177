package cart

import "coffeepos/internal/models"

// Toggle flips a variant in a selection set. Selecting an already-selected
// variant removes it; selecting a variant whose type is already represented
// first evicts the previous choice of that type, so at most one variant per
// type is ever selected.
func Toggle(selections models.VariantSelections, variant models.ProductVariant, catalog []models.ProductVariant) models.VariantSelections {
	for i, s := range selections {
		if s.VariantID == variant.ID {
			out := make(models.VariantSelections, 0, len(selections)-1)
			out = append(out, selections[:i]...)
			return append(out, selections[i+1:]...)
		}
	}

	typeOf := make(map[int64]models.VariantType, len(catalog))
	for _, v := range catalog {
		typeOf[v.ID] = v.Type
	}

	out := make(models.VariantSelections, 0, len(selections)+1)
	for _, s := range selections {
		if typeOf[s.VariantID] != variant.Type {
			out = append(out, s)
		}
	}
	return append(out, models.VariantSelection{
		VariantID:     variant.ID,
		Name:          variant.Name,
		PriceModifier: variant.AdditionalPrice,
	})
}
