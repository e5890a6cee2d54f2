package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"

	"github.com/niksmo/recycled/config"
	"github.com/niksmo/recycled/internal/adapter"
	"github.com/niksmo/recycled/internal/adapter/httphandler"
	"github.com/niksmo/recycled/internal/adapter/kafka"
	"github.com/niksmo/recycled/internal/adapter/materials"
	"github.com/niksmo/recycled/internal/adapter/storage"
	"github.com/niksmo/recycled/internal/core/port"
	"github.com/niksmo/recycled/internal/core/service"
	"github.com/niksmo/recycled/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

type outbound struct {
	sqldb        storage.SQLDB
	products     storage.ProductsRepository
	materials    materials.Catalog
	lookupEvents port.LookupEventsProducer
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	outbound   outbound
	producers  []func(context.Context)
	service    port.ProductLookuper
	httpServer httphandler.HTTPServer
}

// New builds the application. Any failure to reach the database, apply
// migrations or load reference data aborts startup.
func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	sqldb, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.sqldb = sqldb

	if err := storage.Migrate(app.cfg.SQLDB); err != nil {
		app.fallDown(op, err)
	}
	app.outbound.products = storage.NewProductsRepository(sqldb)

	app.outbound.materials = app.loadMaterials()

	if app.cfg.LookupEventsEnabled() {
		p := app.createLookupEventsProducer()
		app.outbound.lookupEvents = p
		app.producers = append(app.producers, p.Close)
	}
}

func (app *App) loadMaterials() materials.Catalog {
	const op = "App.loadMaterials"

	var (
		c   materials.Catalog
		err error
	)
	if app.cfg.MaterialsFile != "" {
		c, err = materials.LoadCatalog(app.cfg.MaterialsFile)
	} else {
		c, err = materials.NewCatalog()
	}
	if err != nil {
		app.fallDown(op, err)
	}
	return c
}

func (app *App) createLookupEventsProducer() kafka.LookupEventsProducer {
	const op = "App.createLookupEventsProducer"
	broker := app.cfg.Broker

	srClient, err := sr.NewClient(sr.URLs(broker.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeLookupEventV1(
		app.ctx,
		schema.SubjectOpt(broker.Topics.ProductLookups+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	var tlsCfg *tls.Config
	if broker.TLS.Enabled() {
		tlsCfg, err = adapter.MakeTLSConfig(
			broker.TLS.CA, broker.TLS.Cert, broker.TLS.Key,
		)
		if err != nil {
			app.fallDown(op, err)
		}
	}

	p, err := kafka.NewLookupEventsProducer(
		kafka.ProducerClientOpt(
			app.ctx, broker.SeedBrokers, broker.Topics.ProductLookups, tlsCfg,
		),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	return p
}

func (app *App) initCoreService() {
	app.service = service.New(
		app.outbound.products,
		app.outbound.materials,
		app.outbound.lookupEvents,
		app.cfg.PublicURL,
	)
}

func (app *App) initInboundAdapters() {
	handler := httphandler.NewRouter(app.service, app.cfg.StaticDir)
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, handler)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	for _, closeProducer := range app.producers {
		closeProducer(ctx)
	}
	app.outbound.sqldb.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
