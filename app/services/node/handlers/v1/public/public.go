// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	v1 "github.com/doniyorcoin/ledger/business/web/v1"
	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/state"
	"github.com/doniyorcoin/ledger/foundation/events"
	"github.com/doniyorcoin/ledger/foundation/validate"
	"github.com/doniyorcoin/ledger/foundation/web"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Need this to handle CORS on the websocket.
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	// This upgrades the HTTP connection to a websocket connection.
	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	// This provides a channel for receiving events from the ledger.
	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	// Starting a ticker to send a ping message over the websocket.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	// Set the timeout value for the handshake before the first ping.
	c.SetReadDeadline(time.Now().Add(5 * time.Second))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(5 * time.Second))
	})

	// The reader G only exists to process pong and close frames.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.NextReader(); err != nil {
				return
			}
		}
	}()

	// Block waiting for events from the ledger or ticker.
	for {
		select {
		case msg, wd := <-ch:

			// If the channel is closed, release the websocket.
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}

		case <-closed:
			return nil
		}
	}
}

// SubmitTransaction adds a new signed transaction to the pending pool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("add tran", "traceid", web.GetTraceID(ctx), "from", tx.FromID, "to", tx.ToID, "amount", tx.Value)
	if err := h.State.AddTransaction(tx); err != nil {
		if errors.Is(err, database.ErrInvalidTransaction) {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}
		return err
	}

	resp := status{
		Status: "transaction queued for mining",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mine mines the pending transactions into a new block paying the reward
// to the requested miner.
func (h Handlers) Mine(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req mineRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	block, err := h.State.MinePendingTransactions(ctx, req.Miner)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrInvalidTransaction):
			return v1.NewRequestError(err, http.StatusBadRequest)
		case ctx.Err() != nil:
			return v1.NewRequestError(err, http.StatusServiceUnavailable)
		}
		return err
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Genesis returns the genesis block and the chain settings.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := genesis{
		Difficulty:   h.State.Difficulty(),
		MiningReward: h.State.MiningReward(),
		Block:        h.State.RetrieveGenesis(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()
	if txs == nil {
		txs = []database.Tx{}
	}

	resp := pending{
		Count:        len(txs),
		Transactions: txs,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Balance returns the balance of the specified address.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := web.Param(r, "address")

	resp := balance{
		Address: address,
		Balance: h.State.Balance(address),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByNumber returns the blocks in the requested range. Without a range
// the whole chain is returned. The keyword "latest" selects the newest block.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	toStr := web.Param(r, "to")

	if fromStr == "" {
		return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
	}

	from, err := parseNumber(fromStr)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	to, err := parseNumber(toStr)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if from != state.QueryLatest && from > to {
		return v1.NewRequestError(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByNumber(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// Validate reports whether the chain passes validation.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := chainStatus{
		Valid:  true,
		Length: h.State.ChainLength(),
	}

	if err := h.State.ValidateChain(); err != nil {
		resp.Valid = false
		resp.Error = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// parseNumber converts a block number parameter. The value "latest" maps to
// the newest block.
func parseNumber(s string) (uint64, error) {
	if s == "latest" || s == "" {
		return state.QueryLatest, nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid block number %q", s)
	}

	return n, nil
}
