package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/Additional-Code/autoservice/internal/transport/http/order"
)

// Module aggregates the HTTP route groups served by the local API.
var Module = fx.Module("http_transport",
	ordertransport.Module,
)
