package main

import (
	"net/http"

	"github.com/madflojo/tasks"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/clients"
	"github.com/sepalink/sepalink-go/db"
	"github.com/sepalink/sepalink-go/handlers"
	"github.com/sepalink/sepalink-go/services"
	"github.com/sepalink/sepalink-go/store/sqlstore"
)

func main() {
	fx.New(
		fx.Provide(
			NewHttpServer,
			fx.Annotate(
				NewServeMux,
				fx.ParamTags(`group:"handlers"`),
			),
			fx.Annotate(
				handlers.NewQuoteHandler,
				fx.As(new(handlers.Handler)),
				fx.ResultTags(`group:"handlers"`),
			),
			fx.Annotate(
				handlers.NewPaymentHandler,
				fx.As(new(handlers.Handler)),
				fx.ResultTags(`group:"handlers"`),
			),
			fx.Annotate(
				handlers.NewReconciliationHandler,
				fx.As(new(handlers.Handler)),
				fx.ResultTags(`group:"handlers"`),
			),
			fx.Annotate(
				handlers.NewFederationHandler,
				fx.As(new(handlers.Handler)),
				fx.ResultTags(`group:"handlers"`),
			),
			handlers.NewMiddlewareHandler,
			services.NewQuoteService,
			services.NewPaymentMatcherService,
			services.NewPayoutDispatcherService,
			services.NewReconciliationService,
			services.NewWebhookService,
			services.NewJournalService,
			clients.NewRateSource,
			clients.NewPayoutAPI,
			clients.NewReceiptVerifier,
			sqlstore.New,
			db.GetDataDBConnection,
			db.GetTxDBConnection,
			tasks.New,
			zap.NewProduction,
		),
		fx.Invoke(func(*http.Server) {}),
		fx.Invoke(func(dispatcher services.PayoutDispatcherService) error {
			return dispatcher.StartBackground()
		}),
	).Run()
}
