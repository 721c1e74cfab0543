package httpapi

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/energy-climate-stats/internal/energy"
	"github.com/i474232898/energy-climate-stats/internal/temperature"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// yearmonth accepts YYYYMM with a month between 01 and 12.
	_ = v.RegisterValidation("yearmonth", func(fl validator.FieldLevel) bool {
		ym := fl.Field().Int()
		if ym < 100001 || ym > 999912 {
			return false
		}
		m := ym % 100
		return m >= 1 && m <= 12
	})
	return v
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, energySvc *energy.Service, tempSvc *temperature.Service, pinger Pinger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		if pinger != nil {
			if err := pinger.Ping(c.UserContext()); err != nil {
				log.Error().Err(err).Msg("health check failed")
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":  "unavailable",
					"service": "energy-climate-stats",
				})
			}
		}
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "energy-climate-stats",
		})
	})

	api := app.Group("/api")

	api.Get("/energy", func(c *fiber.Ctx) error {
		f, err := energyFilter(c)
		if err != nil {
			return err
		}
		var rows []energy.Record
		switch {
		case f.CountyID > 0:
			rows, err = energySvc.CountyEnergy(c.UserContext(), f)
		case f.CityID > 0:
			rows, err = energySvc.CityEnergy(c.UserContext(), f)
		default:
			rows, err = energySvc.CountryEnergy(c.UserContext(), f)
		}
		return respond(c, rows, err, "failed to fetch energy usage")
	})

	api.Get("/energy/country", func(c *fiber.Ctx) error {
		f, err := energyFilter(c)
		if err != nil {
			return err
		}
		rows, err := energySvc.CountryEnergy(c.UserContext(), f)
		return respond(c, rows, err, "failed to fetch energy usage")
	})

	api.Get("/energy/city", func(c *fiber.Ctx) error {
		f, err := energyFilter(c)
		if err != nil {
			return err
		}
		if f.CityID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "cityId query parameter is required")
		}
		rows, err := energySvc.CityEnergy(c.UserContext(), f)
		return respond(c, rows, err, "failed to fetch energy usage")
	})

	api.Get("/energy/county", func(c *fiber.Ctx) error {
		f, err := energyFilter(c)
		if err != nil {
			return err
		}
		if f.CountyID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "countyId query parameter is required")
		}
		rows, err := energySvc.CountyEnergy(c.UserContext(), f)
		return respond(c, rows, err, "failed to fetch energy usage")
	})

	api.Get("/predict-energy", func(c *fiber.Ctx) error {
		f, err := energyFilter(c)
		if err != nil {
			return err
		}
		rows, err := energySvc.EnergyForecast(c.UserContext(), f)
		return respond(c, rows, err, "failed to fetch energy forecast")
	})

	api.Get("/temperature", func(c *fiber.Ctx) error {
		f, err := temperatureFilter(c)
		if err != nil {
			return err
		}
		var rows []temperature.Record
		if f.CityID > 0 {
			rows, err = tempSvc.CityTemperature(c.UserContext(), f)
		} else {
			rows, err = tempSvc.CountryTemperature(c.UserContext(), f)
		}
		return respond(c, rows, err, "failed to fetch temperature data")
	})

	api.Get("/temperature/country", func(c *fiber.Ctx) error {
		f, err := temperatureFilter(c)
		if err != nil {
			return err
		}
		rows, err := tempSvc.CountryTemperature(c.UserContext(), f)
		return respond(c, rows, err, "failed to fetch temperature data")
	})

	api.Get("/temperature/city", func(c *fiber.Ctx) error {
		f, err := temperatureFilter(c)
		if err != nil {
			return err
		}
		if f.CityID == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "cityId query parameter is required")
		}
		rows, err := tempSvc.CityTemperature(c.UserContext(), f)
		return respond(c, rows, err, "failed to fetch temperature data")
	})
}

// respond writes rows in the list envelope, or maps err to a 500.
func respond[T any](c *fiber.Ctx, rows []T, err error, failure string) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fiber.NewError(fiber.StatusRequestTimeout, "request cancelled")
		}
		log.Error().Err(err).Str("path", c.Path()).Msg(failure)
		return fiber.NewError(fiber.StatusInternalServerError, failure)
	}
	if rows == nil {
		rows = []T{}
	}
	return c.JSON(fiber.Map{"items": rows})
}

// ErrorHandler renders errors with the JSON error envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
