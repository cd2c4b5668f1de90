// Package main (in api-subfolder) provides launch of the HTTP describe service
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/percepto/internal/config"
	"github.com/UnendingLoop/percepto/internal/metrics"
	"github.com/UnendingLoop/percepto/internal/mwlogger"
	"github.com/UnendingLoop/percepto/internal/service"
	"github.com/UnendingLoop/percepto/internal/transport"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig, err := config.Load("./.env")
	if err != nil {
		log.Fatalf("Failed to load config: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	if err := zlog.SetLevel(appConfig.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// метрики
	recorder := metrics.New()

	// создаем экземпляр сервиса
	var svc DescribeAPIService
	svc, err = service.Build(ctx, appConfig, recorder)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewDescribeHandler(svc, appConfig.MaxUploadBytes)
	// сетапим сервер
	engine := ginext.New(appConfig.GinMode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.POST("/api/v1/describe", handlers.Describe) // описание + озвучка

	// /metrics мимо логгера запросов, чтобы скрейпы не шумели в логах
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	mux.Handle("/", mwlogger.NewMWLogger(engine))

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		zlog.Logger.Info().Strs("models", modelNames(appConfig)).Msg("vision models in preference order")
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для грейсфул остановки сервера
	<-ctx.Done()

	shutdown(srv, appConfig.VisionTimeout+appConfig.TTSTimeout)
	log.Println("Exiting app...")
}

func shutdown(srv *http.Server, grace time.Duration) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// даем текущим запросам дойти до конца: vision + tts
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Failed to shutdown server correctly:", err)
		return
	}
	log.Println("Server stopped")
}
