package server

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"kraken-orderbook-watcher/internal/database"
	"kraken-orderbook-watcher/internal/domain"
	"kraken-orderbook-watcher/internal/stream"
)

type BookReader interface {
	Pairs() []string
	View(pair string, depth int) (domain.BookView, bool)
}

type FiberServer struct {
	*fiber.App

	db      database.Service
	books   BookReader
	hub     *stream.Hub
	metrics http.Handler
}

func New(db database.Service, books BookReader, hub *stream.Hub, metrics http.Handler) *FiberServer {
	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:          "kraken-orderbook-watcher",
			AppName:               "kraken-orderbook-watcher",
			DisableStartupMessage: true,
		}),

		db:      db,
		books:   books,
		hub:     hub,
		metrics: metrics,
	}

	return server
}
