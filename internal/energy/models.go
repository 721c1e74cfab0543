package energy

// Record is a monthly electricity/gas usage row.
// Aggregate rows carry 0 for the ids below their level:
// a national row has CityID 0 and CountyID 0.
type Record struct {
	CityID    int     `json:"cityId" db:"city_id"`
	CountyID  int     `json:"countyId" db:"county_id"`
	YearMonth int     `json:"yearMonth" db:"year_month"` // YYYYMM
	UseElect  float64 `json:"useElect" db:"use_elect"`
	UseGas    float64 `json:"useGas" db:"use_gas"`
}

// Forecast is a predicted monthly usage row.
type Forecast struct {
	CityID    int     `json:"cityId" db:"city_id"`
	CountyID  int     `json:"countyId" db:"county_id"`
	YearMonth int     `json:"yearMonth" db:"year_month"`
	PreElect  float64 `json:"preElect" db:"pre_elect"`
	PreGas    float64 `json:"preGas" db:"pre_gas"`
}

// Filter narrows a lookup. A nil *Filter or a zero field means unconstrained.
// FromYearMonth and ToYearMonth are inclusive YYYYMM bounds.
type Filter struct {
	CityID        int
	CountyID      int
	FromYearMonth int
	ToYearMonth   int
}

// InPeriod reports whether ym falls inside the filter's period.
func (f *Filter) InPeriod(ym int) bool {
	if f == nil {
		return true
	}
	if f.FromYearMonth > 0 && ym < f.FromYearMonth {
		return false
	}
	if f.ToYearMonth > 0 && ym > f.ToYearMonth {
		return false
	}
	return true
}
