package freightapi

import (
	"net/http"
	"time"

	"github.com/dnlogistics/freightdesk/internal/models"
)

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var in models.OrderCreateInput
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	o, err := a.orders.CreateOrder(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, o)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	o, err := a.orders.GetOrder(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, o)
}

func (a *API) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var patch models.OrderPatch
	if err := decodeBody(r, &patch); err != nil {
		respondErr(w, r, err)
		return
	}
	o, err := a.orders.UpdateOrder(r.Context(), id, patch)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, o)
}

func (a *API) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if err := a.orders.DeleteOrder(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{"deleted": true})
}

// handleListOrders serves plain listing plus the q / status / date_from
// filters. Filters are exclusive, checked in that order.
func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var (
		out []*models.Order
		err error
	)
	switch {
	case q.Get("q") != "":
		out, err = a.orders.SearchOrders(ctx, q.Get("q"))
	case q.Get("status") != "":
		out, err = a.orders.FilterByStatus(ctx, q.Get("status"))
	case q.Get("date_from") != "":
		var from time.Time
		from, err = time.Parse("2006-01-02", q.Get("date_from"))
		if err != nil {
			respondErr(w, r, models.NewValidationError("date_from must be YYYY-MM-DD"))
			return
		}
		out, err = a.orders.FilterByDateFrom(ctx, from)
	default:
		out, err = a.orders.ListOrders(ctx, queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if out == nil {
		out = []*models.Order{}
	}
	respondOK(w, http.StatusOK, out)
}

func (a *API) handleAppendTracking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var in models.TrackingEventInput
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	ev, err := a.tracking.AppendEvent(r.Context(), id, in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, ev)
}

func (a *API) handleListTracking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	evs, err := a.tracking.ListEvents(r.Context(), id, queryInt(r, "limit", 0), queryInt(r, "offset", 0))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if evs == nil {
		evs = []*models.TrackingEvent{}
	}
	respondOK(w, http.StatusOK, evs)
}
