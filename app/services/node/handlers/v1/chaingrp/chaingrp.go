// Package chaingrp maintains the group of handlers for chain access.
package chaingrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/powledger/business/sys/metrics"
	"github.com/ardanlabs/powledger/business/sys/validate"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/chain"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of chain endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// List returns every block in the chain from genesis to the tip.
func (h Handlers) List(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveBlocks(), http.StatusOK)
}

// Latest returns the block at the tip of the chain.
func (h Handlers) Latest(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest, err := h.State.RetrieveLatestBlock()
	if err != nil {
		return web.NewShutdownError(fmt.Sprintf("latest block: %s", err))
	}

	return web.Respond(ctx, w, latest, http.StatusOK)
}

// Block returns the block at the specified index. The index "latest"
// returns the tip of the chain.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := queryIndex(r, "index")
	if err != nil {
		return err
	}

	blk, err := h.State.QueryBlock(index)
	if err != nil {
		if errors.Is(err, state.ErrBlockNotFound) {
			return errs.NewTrusted(fmt.Errorf("block %s: %w", web.Param(r, "index"), err), http.StatusNotFound)
		}
		return fmt.Errorf("query block: %w", err)
	}

	return web.Respond(ctx, w, blk, http.StatusOK)
}

// BlocksByNumber returns all the blocks based on the specified to/from values.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, err := queryIndex(r, "from")
	if err != nil {
		return err
	}

	to, err := queryIndex(r, "to")
	if err != nil {
		return err
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByNumber(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Add mines a new block with the provided data and appends it to the chain.
// The call blocks until the block is mined or the client goes away.
func (h Handlers) Add(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var ab AddBlock
	if err := web.Decode(r, &ab); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(ab); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	h.Log.Infow("add block", "traceid", web.GetTraceID(ctx), "data", ab.Data)

	rec, err := h.State.AddBlock(ctx, ab.Data)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrShutdown):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		case ctx.Err() != nil:
			return errs.NewTrusted(errors.New("request canceled while mining"), http.StatusRequestTimeout)
		}
		return fmt.Errorf("add block: %w", err)
	}

	metrics.AddBlockMined(rec.Nonce)

	return web.Respond(ctx, w, rec, http.StatusCreated)
}

// Tamper overwrites the data of the block at the specified index without
// mining it again. It exists to demonstrate that validation catches the change.
func (h Handlers) Tamper(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid index: %w", err), http.StatusBadRequest)
	}

	var tb TamperBlock
	if err := web.Decode(r, &tb); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(tb); err != nil {
		return fmt.Errorf("validating data: %w", err)
	}

	h.Log.Infow("tamper block", "traceid", web.GetTraceID(ctx), "index", index, "data", tb.Data)

	if err := h.State.Tamper(index, tb.Data); err != nil {
		if errors.Is(err, state.ErrBlockNotFound) {
			return errs.NewTrusted(fmt.Errorf("block %d: %w", index, err), http.StatusNotFound)
		}
		return fmt.Errorf("tamper: %w", err)
	}

	resp := tampered{
		Index:  index,
		Data:   tb.Data,
		Status: "block data replaced without mining",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Validate walks the chain and reports the first block that fails.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v := h.State.Validate()
	metrics.AddValidation(v.Valid)

	return web.Respond(ctx, w, toValidation(v), http.StatusOK)
}

// Events handles a web socket to provide notifications to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// =============================================================================

// queryIndex parses a block index route parameter. An empty value or
// "latest" selects the tip of the chain.
func queryIndex(r *http.Request, name string) (uint64, error) {
	str := web.Param(r, name)
	if str == "latest" || str == "" {
		return state.QueryLatest, nil
	}

	index, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return 0, errs.NewTrusted(fmt.Errorf("invalid %s: %w", name, err), http.StatusBadRequest)
	}

	return index, nil
}

// toValidation drops the block index and reason from a valid result.
func toValidation(v chain.Validation) validation {
	if v.Valid {
		return validation{
			Valid:   true,
			Message: v.Message,
		}
	}

	index := v.Index
	return validation{
		Message:    v.Message,
		BlockIndex: &index,
		Reason:     v.Reason.String(),
	}
}
