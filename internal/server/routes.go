package server

import (
	"kraken-orderbook-watcher/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

const (
	defaultDepth = 10
	maxDepth     = 1000
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Get("/health", s.healthHandler)

	api := s.App.Group("/api")
	api.Get("/books", s.booksHandler)
	api.Get("/books/:base/:quote", s.bookHandler)
	api.Get("/anomalies", s.anomaliesHandler)

	if s.metrics != nil {
		s.App.Get("/metrics", adaptor.HTTPHandler(s.metrics))
	}

	if s.hub != nil {
		s.App.Use("/ws", s.hub.Upgrade)
		s.App.Get("/ws/books", s.hub.Handler())
	}
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"pairs":    s.books.Pairs(),
		"database": s.db.Health(),
	})
}

// booksHandler returns best ask and bid for every pair.
func (s *FiberServer) booksHandler(c *fiber.Ctx) error {
	views := make([]domain.BookView, 0)
	for _, pair := range s.books.Pairs() {
		if view, ok := s.books.View(pair, 1); ok {
			view.Asks, view.Bids = nil, nil
			views = append(views, view)
		}
	}
	return c.JSON(views)
}

func (s *FiberServer) bookHandler(c *fiber.Ctx) error {
	pair := c.Params("base") + "/" + c.Params("quote")

	depth := c.QueryInt("depth", defaultDepth)
	if depth < 0 || depth > maxDepth {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "depth must be between 0 and 1000"})
	}

	view, ok := s.books.View(pair, depth)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no order book for pair " + pair})
	}
	return c.JSON(view)
}

func (s *FiberServer) anomaliesHandler(c *fiber.Ctx) error {
	anomalies, err := s.db.RecentAnomalies(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(anomalies)
}
