package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/campaign"
)

// ListCampaigns returns the send history, most recent first.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.campaigns.All())
}

// DeleteCampaign removes one history entry by its position in the list.
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid index")
		return
	}
	if err := h.campaigns.Delete(index); err != nil {
		if errors.Is(err, campaign.ErrIndexOutOfRange) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
