package domain

// Plantio is one planting record: a crop planted in a given year over a
// number of hectares, with the expected yield and sack price used for the
// revenue estimate. Records are soft-deleted by flipping Active to false;
// they are never removed while a report references them.
type Plantio struct {
	ID              string  `json:"id"`
	Year            int     `json:"ano"`
	Crop            string  `json:"cultura"`
	Hectares        float64 `json:"hectares"`
	SacksPerHectare float64 `json:"sacas_por_hectare"`
	PricePerSack    float64 `json:"preco_por_saca"`
	Active          bool    `json:"ativo"`
}

// Sacks returns the expected total yield in sacks.
func (p Plantio) Sacks() float64 {
	return p.Hectares * p.SacksPerHectare
}

// EstimatedRevenue returns hectares × yield × price. Recomputed on every
// read so updates to any input are reflected immediately.
func (p Plantio) EstimatedRevenue() float64 {
	return p.Sacks() * p.PricePerSack
}

// ActivePlantios filters out soft-deleted records.
func ActivePlantios(plantios []Plantio) []Plantio {
	out := make([]Plantio, 0, len(plantios))
	for _, p := range plantios {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}
