package store

import (
	"context"

	"github.com/i474232898/energy-climate-stats/internal/energy"
)

// energy_usage holds county-level rows only; national totals are computed.
const (
	countryEnergyQuery = `
		SELECT 0 AS city_id, 0 AS county_id, year_month,
		       SUM(use_elect) AS use_elect, SUM(use_gas) AS use_gas
		FROM energy_usage
		%s
		GROUP BY year_month
		ORDER BY year_month`

	energyRowsQuery = `
		SELECT city_id, county_id, year_month, use_elect, use_gas
		FROM energy_usage
		%s
		ORDER BY city_id, county_id, year_month`

	forecastQuery = `
		SELECT city_id, county_id, year_month, pre_elect, pre_gas
		FROM energy_forecast
		%s
		ORDER BY city_id, county_id, year_month`

	upsertEnergyStmt = `
		INSERT INTO energy_usage (city_id, county_id, year_month, use_elect, use_gas)
		VALUES (:city_id, :county_id, :year_month, :use_elect, :use_gas)
		ON CONFLICT (city_id, county_id, year_month)
		DO UPDATE SET use_elect = excluded.use_elect, use_gas = excluded.use_gas`

	upsertForecastStmt = `
		INSERT INTO energy_forecast (city_id, county_id, year_month, pre_elect, pre_gas)
		VALUES (:city_id, :county_id, :year_month, :pre_elect, :pre_gas)
		ON CONFLICT (city_id, county_id, year_month)
		DO UPDATE SET pre_elect = excluded.pre_elect, pre_gas = excluded.pre_gas`
)

var _ energy.DAO = (*SQLStore)(nil)

// CountryEnergy sums every county row per month.
func (s *SQLStore) CountryEnergy(ctx context.Context, f *energy.Filter) ([]energy.Record, error) {
	w := &where{}
	if f != nil {
		w.period(f.FromYearMonth, f.ToYearMonth)
	}
	return selectAll[energy.Record](ctx, s, "country energy", countryEnergyQuery, w)
}

// CityEnergy returns the county rows belonging to f.CityID.
func (s *SQLStore) CityEnergy(ctx context.Context, f *energy.Filter) ([]energy.Record, error) {
	w := &where{}
	if f != nil {
		if f.CityID != 0 {
			w.add("city_id = ?", f.CityID)
		}
		w.period(f.FromYearMonth, f.ToYearMonth)
	}
	return selectAll[energy.Record](ctx, s, "city energy", energyRowsQuery, w)
}

// CountyEnergy returns the rows of f.CountyID.
func (s *SQLStore) CountyEnergy(ctx context.Context, f *energy.Filter) ([]energy.Record, error) {
	w := &where{}
	if f != nil {
		if f.CountyID != 0 {
			w.add("county_id = ?", f.CountyID)
		}
		w.period(f.FromYearMonth, f.ToYearMonth)
	}
	return selectAll[energy.Record](ctx, s, "county energy", energyRowsQuery, w)
}

// EnergyForecast picks the county, city or national forecast level from the filter.
func (s *SQLStore) EnergyForecast(ctx context.Context, f *energy.Filter) ([]energy.Forecast, error) {
	w := &where{}
	switch {
	case f != nil && f.CountyID != 0:
		w.add("county_id = ?", f.CountyID)
	case f != nil && f.CityID != 0:
		w.add("city_id = ?", f.CityID)
		w.add("county_id = 0")
	default:
		w.add("city_id = 0")
		w.add("county_id = 0")
	}
	if f != nil {
		w.period(f.FromYearMonth, f.ToYearMonth)
	}
	return selectAll[energy.Forecast](ctx, s, "energy forecast", forecastQuery, w)
}

// UpsertEnergy inserts or replaces usage rows.
func (s *SQLStore) UpsertEnergy(ctx context.Context, records []energy.Record) (int, error) {
	return upsertAll(ctx, s, "upsert energy", upsertEnergyStmt, records)
}

// UpsertForecast inserts or replaces forecast rows.
func (s *SQLStore) UpsertForecast(ctx context.Context, forecasts []energy.Forecast) (int, error) {
	return upsertAll(ctx, s, "upsert forecast", upsertForecastStmt, forecasts)
}
