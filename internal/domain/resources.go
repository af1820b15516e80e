package domain

// ResourceKind names one of the four gatherable resources.
type ResourceKind int

const (
	ResourceFood ResourceKind = iota
	ResourceWood
	ResourceGold
	ResourceStone
)

// String returns a human-readable resource name.
func (r ResourceKind) String() string {
	switch r {
	case ResourceFood:
		return "food"
	case ResourceWood:
		return "wood"
	case ResourceGold:
		return "gold"
	case ResourceStone:
		return "stone"
	default:
		return "unknown"
	}
}

// Segment is one slice of the villager distribution bar.
type Segment struct {
	Kind    ResourceKind
	Count   int
	Percent float64 // 0-100
}

// Distribution splits the villager allocation into proportional segments in
// food, wood, gold, stone order. Zero counts produce no segment; a nil or
// all-zero snapshot produces none at all.
func (r *Resources) Distribution() []Segment {
	if r == nil {
		return nil
	}
	counts := [...]int{r.Food, r.Wood, r.Gold, r.Stone}
	total := 0
	for _, c := range counts {
		if c > 0 {
			total += c
		}
	}
	if total == 0 {
		return nil
	}

	var out []Segment
	for i, c := range counts {
		if c <= 0 {
			continue
		}
		out = append(out, Segment{
			Kind:    ResourceKind(i),
			Count:   c,
			Percent: float64(c) / float64(total) * 100,
		})
	}
	return out
}
