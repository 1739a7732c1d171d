package main

import (
	"context"

	"github.com/anu-082006/Knee-Braced/internal/config"
	"github.com/anu-082006/Knee-Braced/internal/database"
	"github.com/anu-082006/Knee-Braced/internal/logging"
	"github.com/anu-082006/Knee-Braced/internal/progress"
	"github.com/anu-082006/Knee-Braced/internal/repository"
	"github.com/anu-082006/Knee-Braced/internal/router"
	"github.com/anu-082006/Knee-Braced/internal/serial"
	"github.com/anu-082006/Knee-Braced/internal/services"
	"github.com/anu-082006/Knee-Braced/internal/webhook"

	"go.uber.org/zap"
)

func main() {
	log, err := logging.Init(".")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := config.Init(".", log); err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// The document store backs all exercise and measurement data; the
	// relational side only holds user accounts.
	var store *repository.Store
	if config.Conf.Docstore.Driver == "postgres" {
		database.Init(log)
		store = repository.NewPostgresStore(database.DB)
	} else {
		database.Init(log)
		store = repository.NewMemoryStore()
		log.Warn("Using in-memory document store; exercise data will not survive restarts")
	}

	updater := progress.NewUpdater(store, config.Conf.Progress.Window, log)
	forwarder := webhook.NewForwarder(config.Conf.Webhook.URL, config.Conf.Webhook.Source, store.Measurements, log)
	dispatcher := services.NewDispatcher(updater, forwarder, log)
	manager := serial.NewManager(log)

	janitor := services.NewJanitor(store.Sessions, config.Conf.Progress.AbandonAfter, log)
	janitor.Start(context.Background())

	r := router.Setup(log, store, manager, dispatcher)

	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
