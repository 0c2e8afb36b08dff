package main

import (
	"context"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"

	"github.com/ticketchain/ticket-service/config"
	"github.com/ticketchain/ticket-service/internal/dto"
	"github.com/ticketchain/ticket-service/internal/handler"
	"github.com/ticketchain/ticket-service/internal/ledger"
	"github.com/ticketchain/ticket-service/internal/middleware"
	"github.com/ticketchain/ticket-service/internal/registry"
	"github.com/ticketchain/ticket-service/internal/service"
	"github.com/ticketchain/ticket-service/pkg/database"
	"github.com/ticketchain/ticket-service/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	// Registry store: postgres when a database is configured, otherwise a
	// JSON file, otherwise memory only.
	var store registry.Store
	switch {
	case cfg.DatabaseURL != "":
		db := database.NewPostgresDB(cfg.DatabaseURL)
		store = registry.NewGormStore(db)
		log.Println("[Registry] using postgres store")
	case cfg.RegistryPath != "":
		store = registry.NewFileStore(cfg.RegistryPath)
		log.Printf("[Registry] using file store at %s", cfg.RegistryPath)
	default:
		log.Println("[Registry] no persistence configured, registry is in-memory only")
	}
	reg := registry.New(store, registry.Durability(cfg.RegistryDurability))

	led, backend := ledger.Select(context.Background(), ledger.EthereumConfig{
		RPCURL:          cfg.RPCURL,
		PrivateKey:      cfg.PrivateKey,
		ContractAddress: cfg.ContractAddress,
		ContractABIPath: cfg.ContractABIPath,
		ChainID:         cfg.ChainID,
	})

	var publisher *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		var err error
		publisher, err = rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	}

	ticketSvc := service.NewTicketService(reg, led, publisher, cfg.LedgerTimeout)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())
	e.Use(echoMw.CORS())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, dto.HealthResponse{
			Status:          "ok",
			Service:         "ticket-service",
			LedgerBackend:   backend,
			ContractAddress: cfg.ContractAddress,
		})
	})

	api := e.Group("/api/v1/tickets")
	handler.NewTicketHandler(ticketSvc).RegisterRoutes(api)

	log.Printf("Ticket Service starting on :%s (ledger backend: %s)", cfg.ServerPort, backend)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
