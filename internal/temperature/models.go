package temperature

// Record is a monthly temperature summary in degrees Celsius.
// National rows carry CityID 0.
type Record struct {
	CityID    int     `json:"cityId" db:"city_id"`
	YearMonth int     `json:"yearMonth" db:"year_month"`
	AvgTemp   float64 `json:"avgTemp" db:"avg_temp"`
	MinTemp   float64 `json:"minTemp" db:"min_temp"`
	MaxTemp   float64 `json:"maxTemp" db:"max_temp"`
}

// Filter narrows a lookup; nil or zero fields are unconstrained.
type Filter struct {
	CityID        int
	FromYearMonth int
	ToYearMonth   int
}

// InPeriod reports whether ym falls inside the filter's inclusive period.
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
