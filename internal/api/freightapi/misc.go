package freightapi

import (
	"net/http"
	"strings"

	"github.com/dnlogistics/freightdesk/internal/models"
	"github.com/dnlogistics/freightdesk/internal/services/orders"
	"github.com/go-chi/chi/v5"
)

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (a *API) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var inv models.Invoice
	if err := decodeBody(r, &inv); err != nil {
		respondErr(w, r, err)
		return
	}
	if strings.TrimSpace(inv.Number) == "" {
		respondErr(w, r, models.NewValidationError("Missing required fields: number"))
		return
	}
	if inv.Currency == "" {
		inv.Currency = "XAF"
	}
	if err := a.billing.CreateInvoice(r.Context(), &inv); err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, inv)
}

func (a *API) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	invs, err := a.billing.ListInvoicesByOrder(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if invs == nil {
		invs = []*models.Invoice{}
	}
	respondOK(w, http.StatusOK, invs)
}

func (a *API) handleCreatePackage(w http.ResponseWriter, r *http.Request) {
	var in models.PackageInput
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	status := in.Status
	if status == "" {
		status = models.PackageStatusPreparation
	}
	if !models.ValidPackageStatus(status) {
		respondErr(w, r, models.NewValidationError("invalid status: "+status))
		return
	}
	p := &models.Package{
		QRCode:      orders.NewQRToken(),
		Description: in.Description,
		Status:      status,
		ClientID:    in.ClientID,
		ContainerID: in.ContainerID,
	}
	if err := a.billing.CreatePackage(r.Context(), p); err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, p)
}

// handlePublicTrack is the unauthenticated endpoint behind the QR link in
// notification emails.
func (a *API) handlePublicTrack(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	res, err := a.resolver.Resolve(r.Context(), code)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, res)
}

func (a *API) handleResolveQR(w http.ResponseWriter, r *http.Request) {
	var in struct {
		QRCode string `json:"qr_code"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := a.resolver.Resolve(r.Context(), in.QRCode)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, res)
}
