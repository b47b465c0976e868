// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/powledger/app/services/node/handlers/v1/chaingrp"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {
	cgh := chaingrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", cgh.Events)
	app.Handle(http.MethodGet, version, "/blocks/list", cgh.List)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", cgh.BlocksByNumber)
	app.Handle(http.MethodGet, version, "/blocks/latest", cgh.Latest)
	app.Handle(http.MethodGet, version, "/blocks/:index", cgh.Block)
	app.Handle(http.MethodPost, version, "/blocks/add", cgh.Add)
	app.Handle(http.MethodPut, version, "/blocks/tamper/:index", cgh.Tamper)
	app.Handle(http.MethodGet, version, "/chain/validate", cgh.Validate)
}
