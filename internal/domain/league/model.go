package league

const (
	// Home-advantage priors vary by league culture; configured values are
	// clamped into this range.
	MinHomeAdvantage     = 0.08
	MaxHomeAdvantage     = 0.18
	DefaultHomeAdvantage = 0.12
)

// League is a canonical competition for one season.
type League struct {
	ID            string
	Name          string
	Country       string
	Tier          int // 1 = top flight, larger = more minor
	SeasonYear    int
	HomeAdvantage float64
}

// ClampHomeAdvantage forces a configured prior into the documented range.
// Zero (unset) falls back to the default.
func ClampHomeAdvantage(v float64) float64 {
	if v == 0 {
		return DefaultHomeAdvantage
	}
	if v < MinHomeAdvantage {
		return MinHomeAdvantage
	}
	if v > MaxHomeAdvantage {
		return MaxHomeAdvantage
	}
	return v
}
