package temperature

import "context"

// DAO is the query contract for temperature statistics.
type DAO interface {
	// CountryTemperature returns one national row per month, ordered by
	// year-month: the mean of the city averages with the lowest minimum and
	// highest maximum. Only the period bounds of the filter apply.
	CountryTemperature(ctx context.Context, f *Filter) ([]Record, error)
	// CityTemperature returns the rows of f.CityID, or of every city when it
	// is zero, ordered by city then year-month.
	CityTemperature(ctx context.Context, f *Filter) ([]Record, error)
}
