package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"campaign-console/internal/campaign"
	"campaign-console/internal/storage"
)

type CampaignStore interface {
	GetCampaign(ctx context.Context, id string) (campaign.Campaign, error)
	UpsertCampaign(ctx context.Context, c campaign.Campaign) error
}

type CampaignHandler struct {
	Store CampaignStore
}

func NewCampaignHandler(st CampaignStore) *CampaignHandler {
	return &CampaignHandler{Store: st}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.Store.GetCampaign(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("get campaign")
		writeError(w, http.StatusInternalServerError, "failed to load campaign")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Update replaces the campaign at {id} with the request body. The path id
// wins over any _id in the body.
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var c campaign.Campaign
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if c == nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}
	c[campaign.FieldID] = id

	if err := h.Store.UpsertCampaign(r.Context(), c); err != nil {
		log.Error().Err(err).Str("id", id).Msg("update campaign")
		writeError(w, http.StatusInternalServerError, "failed to save campaign")
		return
	}
	log.Info().Str("id", id).Str("name", c.Name()).Msg("campaign updated")
	writeJSON(w, http.StatusOK, c)
}
