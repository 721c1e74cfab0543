package store

import (
	"context"

	"github.com/i474232898/energy-climate-stats/internal/temperature"
)

const (
	countryTemperatureQuery = `
		SELECT 0 AS city_id, year_month,
		       AVG(avg_temp) AS avg_temp, MIN(min_temp) AS min_temp, MAX(max_temp) AS max_temp
		FROM temperature
		%s
		GROUP BY year_month
		ORDER BY year_month`

	cityTemperatureQuery = `
		SELECT city_id, year_month, avg_temp, min_temp, max_temp
		FROM temperature
		%s
		ORDER BY city_id, year_month`

	upsertTemperatureStmt = `
		INSERT INTO temperature (city_id, year_month, avg_temp, min_temp, max_temp)
		VALUES (:city_id, :year_month, :avg_temp, :min_temp, :max_temp)
		ON CONFLICT (city_id, year_month)
		DO UPDATE SET avg_temp = excluded.avg_temp, min_temp = excluded.min_temp, max_temp = excluded.max_temp`
)

var _ temperature.DAO = (*SQLStore)(nil)

// CountryTemperature aggregates every city row per month.
func (s *SQLStore) CountryTemperature(ctx context.Context, f *temperature.Filter) ([]temperature.Record, error) {
	w := &where{}
	if f != nil {
		w.period(f.FromYearMonth, f.ToYearMonth)
	}
	return selectAll[temperature.Record](ctx, s, "country temperature", countryTemperatureQuery, w)
}

// CityTemperature returns the rows of f.CityID.
func (s *SQLStore) CityTemperature(ctx context.Context, f *temperature.Filter) ([]temperature.Record, error) {
	w := &where{}
	if f != nil {
		if f.CityID != 0 {
			w.add("city_id = ?", f.CityID)
		}
		w.period(f.FromYearMonth, f.ToYearMonth)
	}
	return selectAll[temperature.Record](ctx, s, "city temperature", cityTemperatureQuery, w)
}

// UpsertTemperature inserts or replaces monthly temperature rows.
func (s *SQLStore) UpsertTemperature(ctx context.Context, records []temperature.Record) (int, error) {
	return upsertAll(ctx, s, "upsert temperature", upsertTemperatureStmt, records)
}
