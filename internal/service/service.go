package service

type Services struct {
	Booths *BoothService
	Promos *PromoService
	Drafts *DraftService
	Events *EventService
}
