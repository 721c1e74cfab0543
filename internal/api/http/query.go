package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/energy-climate-stats/internal/energy"
	"github.com/i474232898/energy-climate-stats/internal/temperature"
)

// statsQuery holds the query parameters shared by the statistics endpoints.
type statsQuery struct {
	CityID   int `query:"cityId" validate:"gte=0"`
	CountyID int `query:"countyId" validate:"gte=0"`
	Year     int `query:"year" validate:"omitempty,min=1000,max=9999"`
	From     int `query:"from" validate:"omitempty,yearmonth"`
	To       int `query:"to" validate:"omitempty,yearmonth"`
}

func (q *statsQuery) bind(c *fiber.Ctx) error {
	if err := c.QueryParser(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid query parameters: "+err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if q.Year != 0 && (q.From != 0 || q.To != 0) {
		return fiber.NewError(fiber.StatusBadRequest, "year cannot be combined with from/to")
	}
	if q.From != 0 && q.To != 0 && q.From > q.To {
		return fiber.NewError(fiber.StatusBadRequest, "from must not be after to")
	}
	return nil
}

// period resolves the inclusive YYYYMM bounds; a year expands to its twelve months.
func (q *statsQuery) period() (from, to int) {
	if q.Year != 0 {
		return q.Year*100 + 1, q.Year*100 + 12
	}
	return q.From, q.To
}

func energyFilter(c *fiber.Ctx) (*energy.Filter, error) {
	var q statsQuery
	if err := q.bind(c); err != nil {
		return nil, err
	}
	from, to := q.period()
	return &energy.Filter{
		CityID:        q.CityID,
		CountyID:      q.CountyID,
		FromYearMonth: from,
		ToYearMonth:   to,
	}, nil
}

func temperatureFilter(c *fiber.Ctx) (*temperature.Filter, error) {
	var q statsQuery
	if err := q.bind(c); err != nil {
		return nil, err
	}
	from, to := q.period()
	return &temperature.Filter{
		CityID:        q.CityID,
		FromYearMonth: from,
		ToYearMonth:   to,
	}, nil
}
