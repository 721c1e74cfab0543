package energy

import "context"

// Service exposes energy lookups to callers.
type Service struct {
	dao DAO
}

// NewService creates a new Service.
func NewService(dao DAO) *Service {
	return &Service{
		dao: dao,
	}
}

// CountryEnergy delegates to the underlying DAO.
func (s *Service) CountryEnergy(ctx context.Context, f *Filter) ([]Record, error) {
	return s.dao.CountryEnergy(ctx, f)
}

// CityEnergy delegates to the underlying DAO.
func (s *Service) CityEnergy(ctx context.Context, f *Filter) ([]Record, error) {
	return s.dao.CityEnergy(ctx, f)
}

// CountyEnergy delegates to the underlying DAO.
func (s *Service) CountyEnergy(ctx context.Context, f *Filter) ([]Record, error) {
	return s.dao.CountyEnergy(ctx, f)
}

// EnergyForecast delegates to the underlying DAO.
func (s *Service) EnergyForecast(ctx context.Context, f *Filter) ([]Forecast, error) {
	return s.dao.EnergyForecast(ctx, f)
}
