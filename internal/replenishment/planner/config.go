package planner

// Config holds the engine constants of a replenishment run. It is built once
// at construction time and passed by value into every run.
type Config struct {
	WarehouseStoreID    string
	ReviewPeriodDays    int
	LeadTimeDays        int
	LookbackDays        int
	ReadinessWindowDays int
	OverstockDays       float64
	DefaultTier         TierParams
}

func DefaultConfig() Config {
	return Config{
		ReviewPeriodDays:    7,
		LeadTimeDays:        2,
		LookbackDays:        28,
		ReadinessWindowDays: 28,
		OverstockDays:       120,
		DefaultTier:         DefaultTierParams(),
	}
}

// WithDefaults fills zero values from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.ReviewPeriodDays <= 0 {
		c.ReviewPeriodDays = d.ReviewPeriodDays
	}
	if c.LeadTimeDays < 0 {
		c.LeadTimeDays = d.LeadTimeDays
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = d.LookbackDays
	}
	if c.ReadinessWindowDays <= 0 {
		c.ReadinessWindowDays = d.ReadinessWindowDays
	}
	if c.OverstockDays <= 0 {
		c.OverstockDays = d.OverstockDays
	}
	if c.DefaultTier.Tier == "" {
		c.DefaultTier = d.DefaultTier
	}
	return c
}

func (c Config) CoverDays() int {
	return c.ReviewPeriodDays + c.LeadTimeDays
}
