package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/checkout/internal/cache"
	"github.com/Additional-Code/checkout/internal/config"
	"github.com/Additional-Code/checkout/internal/database"
	"github.com/Additional-Code/checkout/internal/logger"
	"github.com/Additional-Code/checkout/internal/messaging"
	"github.com/Additional-Code/checkout/internal/notification"
	"github.com/Additional-Code/checkout/internal/observability"
	"github.com/Additional-Code/checkout/internal/payment"
	repositoryorder "github.com/Additional-Code/checkout/internal/repository/order"
	repositoryproduct "github.com/Additional-Code/checkout/internal/repository/product"
	repositoryzone "github.com/Additional-Code/checkout/internal/repository/shippingzone"
	httpserver "github.com/Additional-Code/checkout/internal/server/http"
	servicecheckout "github.com/Additional-Code/checkout/internal/service/checkout"
	serviceorder "github.com/Additional-Code/checkout/internal/service/order"
	transporthttp "github.com/Additional-Code/checkout/internal/transport/http"
	"github.com/Additional-Code/checkout/internal/worker"
	workernotification "github.com/Additional-Code/checkout/internal/worker/notification"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	payment.Module,
	repositoryorder.Module,
	repositoryproduct.Module,
	repositoryzone.Module,
	serviceorder.Module,
	servicecheckout.Module,
)

// HTTP wires the HTTP transport on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
)

// Worker exposes background notification processing.
var Worker = fx.Options(
	Core,
	notification.Module,
	worker.Module,
	workernotification.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
