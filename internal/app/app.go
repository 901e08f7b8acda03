package app

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/Additional-Code/autoservice/internal/cache"
	"github.com/Additional-Code/autoservice/internal/config"
	"github.com/Additional-Code/autoservice/internal/database"
	"github.com/Additional-Code/autoservice/internal/logger"
	"github.com/Additional-Code/autoservice/internal/messaging"
	"github.com/Additional-Code/autoservice/internal/migration"
	"github.com/Additional-Code/autoservice/internal/observability"
	repositoryorder "github.com/Additional-Code/autoservice/internal/repository/order"
	"github.com/Additional-Code/autoservice/internal/seeder"
	grpcserver "github.com/Additional-Code/autoservice/internal/server/grpc"
	httpserver "github.com/Additional-Code/autoservice/internal/server/http"
	serviceorder "github.com/Additional-Code/autoservice/internal/service/order"
	"github.com/Additional-Code/autoservice/internal/session"
	transporthttp "github.com/Additional-Code/autoservice/internal/transport/http"
	"github.com/Additional-Code/autoservice/internal/worker"
	workerorder "github.com/Additional-Code/autoservice/internal/worker/order"
)

// Core provides the foundational modules shared across executables. It does
// not touch the schema; Store adds that on top.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	migration.Module,
	session.Module,
	repositoryorder.Module,
	serviceorder.Module,
	seeder.Module,
)

// Store is Core with the schema brought up to date on start.
var Store = fx.Options(
	Core,
	migration.AutoMigrate,
)

// HTTP wires the HTTP and gRPC surfaces on top of the store.
var HTTP = fx.Options(
	Store,
	ZapEvents,
	httpserver.Module,
	transporthttp.Module,
	grpcserver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Store,
	ZapEvents,
	worker.Module,
	workerorder.Module,
)

// ZapEvents routes Fx lifecycle events through the application logger.
var ZapEvents = fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
})

// Module is the default application wiring (HTTP only).
var Module = HTTP
