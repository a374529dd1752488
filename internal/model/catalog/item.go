package catalog

// Item is one sneaker in the catalog. Quality attributes are scored 0-100.
type Item struct {
	Name               string  `json:"name"`
	Price              float64 `json:"price"`
	Cushioning         float64 `json:"cushioning"`
	OutdoorDurability  float64 `json:"outdoorDurability"`
	Fit                float64 `json:"fit"`
	Traction           float64 `json:"traction"`
	Support            float64 `json:"support"`
	MaterialDurability float64 `json:"materialDurability"`
}

// Value returns the numeric value of attr.
func (i Item) Value(attr Attribute) (float64, bool) {
	switch attr {
	case Price:
		return i.Price, true
	case Cushioning:
		return i.Cushioning, true
	case OutdoorDurability:
		return i.OutdoorDurability, true
	case Fit:
		return i.Fit, true
	case Traction:
		return i.Traction, true
	case Support:
		return i.Support, true
	case MaterialDurability:
		return i.MaterialDurability, true
	}
	return 0, false
}

// Seed provides a small sample catalog for runs without a database.
func Seed() []Item {
	return []Item{
		{Name: "Nike G.T. Cut 3", Price: 190, Cushioning: 92, OutdoorDurability: 40, Fit: 85, Traction: 90, Support: 78, MaterialDurability: 65},
		{Name: "Nike LeBron XXI", Price: 200, Cushioning: 95, OutdoorDurability: 60, Fit: 82, Traction: 88, Support: 90, MaterialDurability: 80},
		{Name: "Adidas Dame 8", Price: 115, Cushioning: 82, OutdoorDurability: 70, Fit: 84, Traction: 89, Support: 78, MaterialDurability: 78},
		{Name: "Puma MB.03", Price: 125, Cushioning: 85, OutdoorDurability: 65, Fit: 80, Traction: 86, Support: 80, MaterialDurability: 76},
		{Name: "Li-Ning Way of Wade 10", Price: 175, Cushioning: 93, OutdoorDurability: 55, Fit: 88, Traction: 92, Support: 88, MaterialDurability: 77},
		{Name: "Under Armour Curry 11", Price: 160, Cushioning: 84, OutdoorDurability: 35, Fit: 90, Traction: 94, Support: 76, MaterialDurability: 62},
		{Name: "Anta KT 9", Price: 150, Cushioning: 91, OutdoorDurability: 50, Fit: 70, Traction: 80, Support: 86, MaterialDurability: 75},
		{Name: "New Balance TWO WXY v4", Price: 110, Cushioning: 80, OutdoorDurability: 45, Fit: 78, Traction: 84, Support: 82, MaterialDurability: 64},
		{Name: "Jordan Luka 2", Price: 130, Cushioning: 81, OutdoorDurability: 58, Fit: 83, Traction: 87, Support: 88, MaterialDurability: 79},
		{Name: "Nike Zoom Freak 5", Price: 120, Cushioning: 90, OutdoorDurability: 66, Fit: 72, Traction: 78, Support: 86, MaterialDurability: 80},
	}
}
