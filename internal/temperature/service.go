package temperature

import "context"

// Service forwards temperature lookups to a DAO.
type Service struct {
	dao DAO
}

// NewService creates a new Service.
func NewService(dao DAO) *Service {
	return &Service{dao: dao}
}

// CountryTemperature delegates to the underlying DAO.
func (s *Service) CountryTemperature(ctx context.Context, f *Filter) ([]Record, error) {
	return s.dao.CountryTemperature(ctx, f)
}

// CityTemperature delegates to the underlying DAO.
func (s *Service) CityTemperature(ctx context.Context, f *Filter) ([]Record, error) {
	return s.dao.CityTemperature(ctx, f)
}
