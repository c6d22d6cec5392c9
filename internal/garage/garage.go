package garage

// Garage represents the occupancy of one parking garage at fetch time
type Garage struct {
	Name         string  `json:"name"`
	Available    int     `json:"available"`
	Capacity     int     `json:"capacity"`
	Saturation   int     `json:"saturation"` // Occupied spaces, never negative
	PercentFull  float64 `json:"percent_full"`
	PercentAvail float64 `json:"percent_avail"`
}

// Set is an ordered list of garages in source document order
type Set []Garage

// New creates a Garage with all derived fields populated.
//
// Saturation is clamped at zero because the source page sometimes reports more
// free spaces than the garage holds. A garage with no capacity reports 0% for
// both percentages.
func New(name string, available, capacity int) Garage {
	saturation := capacity - available
	if saturation < 0 {
		saturation = 0
	}

	g := Garage{
		Name:       name,
		Available:  available,
		Capacity:   capacity,
		Saturation: saturation,
	}

	if capacity > 0 {
		g.PercentFull = 100.0 * float64(saturation) / float64(capacity)
		g.PercentAvail = 100.0 * float64(available) / float64(capacity)
	}

	return g
}

// Names returns the garage names in order
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for _, g := range s {
		names = append(names, g.Name)
	}
	return names
}
