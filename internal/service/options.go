package service

import "time"

const (
	DefaultFreshness         = 24 * time.Hour
	DefaultTaxFetchLimit     = 80
	DefaultSavingsFetchLimit = 50
)

// Options tunes the analysis services
type Options struct {
	// Freshness is how long a stored analysis is served instead of a new one.
	Freshness         time.Duration
	TaxFetchLimit     int
	SavingsFetchLimit int
}

// DefaultOptions returns a 24 hour window with 80 and 50 row fetch limits
func DefaultOptions() Options {
	return Options{
		Freshness:         DefaultFreshness,
		TaxFetchLimit:     DefaultTaxFetchLimit,
		SavingsFetchLimit: DefaultSavingsFetchLimit,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Freshness <= 0 {
		o.Freshness = def.Freshness
	}
	if o.TaxFetchLimit <= 0 {
		o.TaxFetchLimit = def.TaxFetchLimit
	}
	if o.SavingsFetchLimit <= 0 {
		o.SavingsFetchLimit = def.SavingsFetchLimit
	}
	return o
}
