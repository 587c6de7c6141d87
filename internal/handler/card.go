package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/business-cards/internal/apperror"
	"github.com/sakif/business-cards/internal/model"
	"github.com/sakif/business-cards/internal/rasterizer"
	"github.com/sakif/business-cards/internal/render"
	"github.com/sakif/business-cards/internal/repository"
	"github.com/sakif/business-cards/internal/sharecode"
)

// CardHandler serves saved cards to anyone holding the locator.
type CardHandler struct {
	cards  CardStore
	raster rasterizer.Rasterizer
	pages  *Pages
	links  ShareLinks
	logger *slog.Logger
}

func NewCardHandler(cards CardStore, raster rasterizer.Rasterizer, pages *Pages, links ShareLinks, logger *slog.Logger) *CardHandler {
	return &CardHandler{
		cards:  cards,
		raster: raster,
		pages:  pages,
		links:  links,
		logger: logger,
	}
}

// HandleView renders a saved card read-only. Links are derived again from
// the stored raw fields and the style is normalized by the service, so an
// old or tampered document still renders.
//
// HTTP: GET /card/{id}
func (h *CardHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	card, ok := loadCard(r.Context(), w, h.cards, h.pages, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	fragment, err := render.Fragment(render.ComputePreview(card.Profile, card.Style))
	if err != nil {
		h.logger.Error("failed to render card", slog.String("id", card.ID), slog.String("error", err.Error()))
		h.pages.Failure(w, http.StatusInternalServerError, "Card could not be loaded")
		return
	}

	h.pages.Render(w, http.StatusOK, PageCard, pageData{
		Title:   card.Profile.BusinessName,
		Preview: fragment,
	})
}

// HandleImage exports a saved card as PNG. Like the configurator export, a
// rasterizer failure is answered with 204.
//
// HTTP: GET /card/{id}/image.png
func (h *CardHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	card, err := h.cards.Load(r.Context(), id)
	if err != nil {
		status, _ := statusFor(err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	png, err := rasterize(r.Context(), h.raster, render.ComputePreview(card.Profile, card.Style))
	if err != nil {
		h.logger.Error("card export failed", slog.String("id", id), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writePNG(w, png, false)
}

// HandleQR returns the share code of a card locator as PNG. The card itself
// is not loaded; a malformed id is rejected without touching the store.
//
// HTTP: GET /card/{id}/qr.png?size=N
func (h *CardHandler) HandleQR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !repository.ValidID(id) {
		http.NotFound(w, r)
		return
	}

	size := sharecode.DefaultSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 64 || n > 1024 {
			http.Error(w, "size must be between 64 and 1024", http.StatusBadRequest)
			return
		}
		size = n
	}

	png, err := sharecode.PNG(h.links.CardURL(r, id), size)
	if err != nil {
		h.logger.Error("failed to encode share code", slog.String("id", id), slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writePNG(w, png, false)
}

// loadCard loads a card for an HTML page, rendering the not-found or error
// page itself when that fails.
func loadCard(ctx context.Context, w http.ResponseWriter, cards CardStore, pages *Pages, id string) (*model.SavedCard, bool) {
	card, err := cards.Load(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			pages.NotFound(w)
		} else {
			pages.Failure(w, http.StatusBadGateway, "Card could not be loaded")
		}
		return nil, false
	}
	return card, true
}

// rasterize turns a render tree into PNG bytes. Every failure comes back as
// apperror.ErrExport.
func rasterize(ctx context.Context, r rasterizer.Rasterizer, tree render.Tree) ([]byte, error) {
	doc, err := render.Document(tree)
	if err != nil {
		return nil, apperror.ExportFailed(err)
	}
	png, err := r.Rasterize(ctx, rasterizer.Request{
		Document: doc,
		Selector: render.CardSelector,
		Width:    rasterizer.DefaultWidth,
	})
	if err != nil {
		return nil, apperror.ExportFailed(err)
	}
	return png, nil
}

func writePNG(w http.ResponseWriter, png []byte, attachment bool) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	if attachment {
		w.Header().Set("Content-Disposition", `attachment; filename="`+ExportFilename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
