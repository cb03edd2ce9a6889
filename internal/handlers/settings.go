package handlers

import "net/http"

func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	settings, err := h.settingsService.Get(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to load settings")
		return
	}

	writeJSON(ctx, w, http.StatusOK, settings)
}

func (h *Handlers) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	announcement, err := h.settingsService.UpdateAnnouncement(ctx, body.Text)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update announcement")
		return
	}

	writeJSON(ctx, w, http.StatusOK, announcement)
}

func (h *Handlers) UpdateFestivalTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body struct {
		ActiveTheme string `json:"activeTheme"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	theme, err := h.settingsService.UpdateFestivalTheme(ctx, body.ActiveTheme)
	if err != nil {
		h.writeServiceError(ctx, w, err, "failed to update festival theme")
		return
	}

	writeJSON(ctx, w, http.StatusOK, theme)
}
