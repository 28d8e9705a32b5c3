package repository

import (
	"boothfair/internal/database"
)

type Repositories struct {
	Promos *PromoRepository
	Layout *BoothLayoutRepository
	Usages *PromoUsageRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Promos: NewPromoRepository(db),
		Layout: NewBoothLayoutRepository(db),
		Usages: NewPromoUsageRepository(db),
	}
}
