package freightapi

import (
	"net/http"

	"github.com/dnlogistics/freightdesk/internal/models"
)

func (a *API) handleCreateContainer(w http.ResponseWriter, r *http.Request) {
	var in models.ContainerInput
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	c, err := a.containers.Create(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, c)
}

func (a *API) handleGetContainer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	c, err := a.containers.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, c)
}

func (a *API) handleListContainers(w http.ResponseWriter, r *http.Request) {
	cs, err := a.containers.List(r.Context(), queryInt(r, "limit", 50), queryInt(r, "offset", 0))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if cs == nil {
		cs = []*models.Container{}
	}
	respondOK(w, http.StatusOK, cs)
}

func (a *API) handleUpdateContainer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var in models.ContainerInput
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	c, err := a.containers.Update(r.Context(), id, in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, c)
}

func (a *API) handleBroadcastContainerStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ContainerID uint64 `json:"container_id"`
		Status      string `json:"status"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	if in.ContainerID == 0 {
		respondErr(w, r, models.NewValidationError("Missing required fields: container_id"))
		return
	}
	c, notified, err := a.containers.BroadcastStatus(r.Context(), in.ContainerID, in.Status)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, map[string]any{
		"container": c,
		"notified":  notified,
	})
}
