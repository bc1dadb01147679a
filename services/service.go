package services

import (
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/clients"
	"github.com/sepalink/sepalink-go/store"
)

type service struct {
	store          store.Store
	rates          clients.RateSource
	payouts        clients.PayoutAPI
	webhookService WebhookService
	journalService JournalService
	dispatcher     PayoutDispatcherService
	log            *zap.Logger
}

const (
	SourceAsset      = "XRP"
	DestinationAsset = "EUR"
)
