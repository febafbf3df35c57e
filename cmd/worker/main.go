package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chat-handoff-be/internal/config"
	"chat-handoff-be/pkg/events"
	"chat-handoff-be/pkg/nats"
)

// Tails the handoff event stream with a durable consumer. Run it next to the
// API to watch what workflow automations will receive, or point an integration
// at its log output while the real webhook dispatcher is being built out.
func main() {
	cfg := config.Load()

	sub, err := nats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Unable to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe("events.>", "event-tap", func(ctx context.Context, event events.Event) error {
		log.Printf("[%s] %v", event.EventType(), event.Payload())
		return nil
	})
	if err != nil {
		log.Fatalf("Unable to subscribe: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down event tap")
}
