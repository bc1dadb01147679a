package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MadAppGang/httplog"
	lzap "github.com/MadAppGang/httplog/zap"
	ghandlers "github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/config"
	"github.com/sepalink/sepalink-go/handlers"
)

func NewHttpServer(lc fx.Lifecycle, mux *http.ServeMux, log *zap.Logger) *http.Server {
	handler := httplog.LoggerWithFormatter(
		lzap.ZapLogger(log, zap.InfoLevel, "request"),
	)(mux)
	handler = ghandlers.RecoveryHandler(ghandlers.RecoveryLogger(zap.NewStdLog(log)))(handler)

	srv := &http.Server{
		Addr:         config.LISTEN_ADDR,
		Handler:      handler,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			fmt.Println("Starting HTTP server at", srv.Addr)
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

func NewServeMux(routers []handlers.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	for _, router := range routers {
		router.ServeHttp(mux)
	}
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
