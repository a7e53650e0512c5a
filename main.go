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

	"github.com/Jmdec/ipponyari-sub001/configs"
	"github.com/Jmdec/ipponyari-sub001/notify"
	"github.com/Jmdec/ipponyari-sub001/routes"
	"github.com/Jmdec/ipponyari-sub001/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := configs.LoadConfig()

	// cart persistence slot
	configs.ConnectionDB(cfg.DBSource)
	configs.SetupDatabase()

	// admin notifications: websocket stream always, email when configured
	hub := ws.NewNotifyHub()
	go hub.Run()

	sinks := []notify.Sink{hub}
	if cfg.SMTPAddr != "" && cfg.AdminEmail != "" {
		sinks = append(sinks, &notify.EmailSink{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom, To: cfg.AdminEmail})
	}
	dispatcher := notify.NewDispatcher(sinks...)

	r := gin.Default()
	routes.RegisterRoutes(r, cfg, hub, dispatcher)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (origin %s)", cfg.Port, cfg.APIBaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	dispatcher.Close()
	log.Println("server exited")
}
