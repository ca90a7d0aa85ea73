package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/work-marketplace/backend/internal/config"
	"github.com/work-marketplace/backend/internal/db"
	"github.com/work-marketplace/backend/internal/events"
	"github.com/work-marketplace/backend/internal/metrics"
	"github.com/work-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

// Notifier subscribes to Redis notification events and forwards them to
// the external dispatcher. Delivery is best effort; the API never waits
// on it.

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	subscriber := events.NewRedisSubscriber(rdb, log)
	dispatcher := services.NewDispatcherClient(cfg.DispatcherInternalURL, log)

	// Health and metrics on the notifier's own port.
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if err := http.ListenAndServe(":"+cfg.NotifierPort, mux); err != nil {
			log.Warn("metrics listener stopped", zap.Error(err))
		}
	}()

	log.Info("notifier started", zap.String("port", cfg.NotifierPort))

	_ = subscriber.Subscribe(ctx, "events:notifications", func(event events.Event) {
		forward(ctx, dispatcher, event, log)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down notifier")
	cancel()
}

func forward(ctx context.Context, dispatcher *services.DispatcherClient, event events.Event, log *zap.Logger) {
	userID, _ := event.Payload["user_id"].(string)
	if userID == "" {
		return
	}

	eventName, _ := event.Payload["event"].(string)
	message, _ := event.Payload["message"].(string)

	req := services.NotifyRequest{
		UserID:  userID,
		Event:   eventName,
		Message: message,
		Data:    event.Payload,
	}
	if err := dispatcher.SendNotification(ctx, req); err != nil {
		metrics.NotificationsForwardedTotal.WithLabelValues("error").Inc()
		log.Warn("failed to forward notification", zap.String("event", eventName), zap.Error(err))
		return
	}
	metrics.NotificationsForwardedTotal.WithLabelValues("ok").Inc()
}
