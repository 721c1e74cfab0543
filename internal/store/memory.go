package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/i474232898/energy-climate-stats/internal/energy"
	"github.com/i474232898/energy-climate-stats/internal/temperature"
)

type usageKey struct {
	cityID, countyID, yearMonth int
}

type tempKey struct {
	cityID, yearMonth int
}

// MemoryStore is a concurrency-safe in-memory implementation of the energy and
// temperature DAOs. It follows the same ordering and aggregation rules as SQLStore.
type MemoryStore struct {
	mu sync.RWMutex

	usage     map[usageKey]energy.Record
	forecasts map[usageKey]energy.Forecast
	temps     map[tempKey]temperature.Record
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usage:     make(map[usageKey]energy.Record),
		forecasts: make(map[usageKey]energy.Forecast),
		temps:     make(map[tempKey]temperature.Record),
	}
}

var (
	_ energy.DAO      = (*MemoryStore)(nil)
	_ temperature.DAO = (*MemoryStore)(nil)
)

// UpsertEnergy inserts or replaces usage rows.
func (s *MemoryStore) UpsertEnergy(_ context.Context, records []energy.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.usage[usageKey{r.CityID, r.CountyID, r.YearMonth}] = r
	}
	return len(records), nil
}

// UpsertForecast inserts or replaces forecast rows.
func (s *MemoryStore) UpsertForecast(_ context.Context, forecasts []energy.Forecast) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range forecasts {
		s.forecasts[usageKey{f.CityID, f.CountyID, f.YearMonth}] = f
	}
	return len(forecasts), nil
}

// UpsertTemperature inserts or replaces temperature rows.
func (s *MemoryStore) UpsertTemperature(_ context.Context, records []temperature.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		s.temps[tempKey{r.CityID, r.YearMonth}] = r
	}
	return len(records), nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) CountryEnergy(ctx context.Context, f *energy.Filter) ([]energy.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[int]*energy.Record)
	for _, r := range s.usage {
		if !f.InPeriod(r.YearMonth) {
			continue
		}
		t, ok := totals[r.YearMonth]
		if !ok {
			t = &energy.Record{YearMonth: r.YearMonth}
			totals[r.YearMonth] = t
		}
		t.UseElect += r.UseElect
		t.UseGas += r.UseGas
	}

	var result []energy.Record
	for _, t := range totals {
		result = append(result, *t)
	}
	sortRecords(result)
	return result, nil
}

func (s *MemoryStore) CityEnergy(ctx context.Context, f *energy.Filter) ([]energy.Record, error) {
	return s.selectUsage(ctx, func(r energy.Record) bool {
		return f == nil || f.CityID == 0 || r.CityID == f.CityID
	}, f)
}

func (s *MemoryStore) CountyEnergy(ctx context.Context, f *energy.Filter) ([]energy.Record, error) {
	return s.selectUsage(ctx, func(r energy.Record) bool {
		return f == nil || f.CountyID == 0 || r.CountyID == f.CountyID
	}, f)
}

func (s *MemoryStore) selectUsage(ctx context.Context, match func(energy.Record) bool, f *energy.Filter) ([]energy.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []energy.Record
	for _, r := range s.usage {
		if match(r) && f.InPeriod(r.YearMonth) {
			result = append(result, r)
		}
	}
	sortRecords(result)
	return result, nil
}

func (s *MemoryStore) EnergyForecast(ctx context.Context, f *energy.Filter) ([]energy.Forecast, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	match := func(p energy.Forecast) bool { return p.CityID == 0 && p.CountyID == 0 }
	switch {
	case f != nil && f.CountyID != 0:
		match = func(p energy.Forecast) bool { return p.CountyID == f.CountyID }
	case f != nil && f.CityID != 0:
		match = func(p energy.Forecast) bool { return p.CityID == f.CityID && p.CountyID == 0 }
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []energy.Forecast
	for _, p := range s.forecasts {
		if match(p) && f.InPeriod(p.YearMonth) {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.CityID != b.CityID {
			return a.CityID < b.CityID
		}
		if a.CountyID != b.CountyID {
			return a.CountyID < b.CountyID
		}
		return a.YearMonth < b.YearMonth
	})
	return result, nil
}

func (s *MemoryStore) CountryTemperature(ctx context.Context, f *temperature.Filter) ([]temperature.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type acc struct {
		sum, min, max float64
		n             int
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	months := make(map[int]*acc)
	for _, r := range s.temps {
		if !f.InPeriod(r.YearMonth) {
			continue
		}
		a, ok := months[r.YearMonth]
		if !ok {
			a = &acc{min: math.Inf(1), max: math.Inf(-1)}
			months[r.YearMonth] = a
		}
		a.sum += r.AvgTemp
		a.min = math.Min(a.min, r.MinTemp)
		a.max = math.Max(a.max, r.MaxTemp)
		a.n++
	}

	var result []temperature.Record
	for ym, a := range months {
		result = append(result, temperature.Record{
			YearMonth: ym,
			AvgTemp:   a.sum / float64(a.n),
			MinTemp:   a.min,
			MaxTemp:   a.max,
		})
	}
	sortTemperatures(result)
	return result, nil
}

func (s *MemoryStore) CityTemperature(ctx context.Context, f *temperature.Filter) ([]temperature.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []temperature.Record
	for _, r := range s.temps {
		if f != nil && f.CityID != 0 && r.CityID != f.CityID {
			continue
		}
		if f.InPeriod(r.YearMonth) {
			result = append(result, r)
		}
	}
	sortTemperatures(result)
	return result, nil
}

func sortRecords(rs []energy.Record) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.CityID != b.CityID {
			return a.CityID < b.CityID
		}
		if a.CountyID != b.CountyID {
			return a.CountyID < b.CountyID
		}
		return a.YearMonth < b.YearMonth
	})
}

func sortTemperatures(rs []temperature.Record) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].CityID != rs[j].CityID {
			return rs[i].CityID < rs[j].CityID
		}
		return rs[i].YearMonth < rs[j].YearMonth
	})
}
