package mid

import (
	"context"
	"net/http"

	"github.com/doniyorcoin/ledger/business/sys/metrics"
	"github.com/doniyorcoin/ledger/foundation/web"
)

// Metrics updates program counters.
func Metrics(m *metrics.Metrics) web.Middleware {
	mw := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			m.AddRequest()
			if err != nil {
				m.AddError()
			}

			return err
		}

		return h
	}

	return mw
}
