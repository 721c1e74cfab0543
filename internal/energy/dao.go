package energy

import "context"

// DAO is the query contract for energy statistics.
type DAO interface {
	// CountryEnergy returns national monthly totals ordered by year-month.
	// Only the period bounds of the filter apply.
	CountryEnergy(ctx context.Context, f *Filter) ([]Record, error)
	// CityEnergy returns the county rows of f.CityID, or of every city when it
	// is zero, ordered by city, county, then year-month.
	CityEnergy(ctx context.Context, f *Filter) ([]Record, error)
	// CountyEnergy returns the rows of f.CountyID, or of every county when it
	// is zero, ordered by city, county, then year-month.
	CountyEnergy(ctx context.Context, f *Filter) ([]Record, error)
	// EnergyForecast returns predicted rows at county, city or national level
	// depending on which ids the filter carries, ordered by city, county,
	// then year-month.
	EnergyForecast(ctx context.Context, f *Filter) ([]Forecast, error)
}
