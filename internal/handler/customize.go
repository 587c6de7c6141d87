package handler

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/sakif/business-cards/internal/apperror"
	"github.com/sakif/business-cards/internal/model"
	"github.com/sakif/business-cards/internal/rasterizer"
	"github.com/sakif/business-cards/internal/render"
	"github.com/sakif/business-cards/internal/sharecode"
	"github.com/sakif/business-cards/internal/wizard"
)

// CardStore is the part of service.CardService the handlers use.
type CardStore interface {
	Save(ctx context.Context, profile model.ProfileRecord, style model.StyleConfig) (*model.SavedCard, error)
	Load(ctx context.Context, id string) (*model.SavedCard, error)
}

// ExportFilename is the download name of an exported card.
const ExportFilename = "business-card.png"

// maxFormMemory bounds the multipart parts held in memory; logo and
// background data URLs are plain fields, so they stay well below it.
const maxFormMemory = 8 << 20

// CustomizeHandler serves the second wizard step: the style configurator
// with its live preview, the PNG export and the save.
//
// Every route except HandleShare sits behind wizard.RequireDraft, so the
// profile being styled always comes from the draft, never from the form.
type CustomizeHandler struct {
	intake   ProfileIntake
	cards    CardStore
	raster   rasterizer.Rasterizer
	sessions *scs.SessionManager
	pages    *Pages
	links    ShareLinks
	logger   *slog.Logger
}

func NewCustomizeHandler(intake ProfileIntake, cards CardStore, raster rasterizer.Rasterizer, sessions *scs.SessionManager, pages *Pages, links ShareLinks, logger *slog.Logger) *CustomizeHandler {
	return &CustomizeHandler{
		intake:   intake,
		cards:    cards,
		raster:   raster,
		sessions: sessions,
		pages:    pages,
		links:    links,
		logger:   logger,
	}
}

// HandleCustomize shows the configurator with the default style.
//
// HTTP: GET /customize
func (h *CustomizeHandler) HandleCustomize(w http.ResponseWriter, r *http.Request) {
	profile, err := h.draftProfile(r)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrUnauthorized) {
			// the draft outlived its profile; start over
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.pages.Failure(w, http.StatusBadGateway, "Your details could not be loaded")
		return
	}

	flash := h.sessions.PopString(r.Context(), flashKey)
	h.renderConfigurator(w, http.StatusOK, *profile, model.DefaultStyle(), flash, "")
}

// HandlePreview returns the card fragment for the submitted style.
//
// HTTP: POST /customize/preview (form encoded, every style field optional)
//
// The static script calls this on every control change and swaps the
// result into #preview. An invalid value answers 400 JSON and the script
// keeps the previous preview.
func (h *CustomizeHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	profile, style, ok := h.profileAndStyle(w, r)
	if !ok {
		return
	}

	fragment, err := render.Fragment(render.ComputePreview(*profile, style))
	if err != nil {
		h.logger.Error("failed to render preview", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(fragment))
}

// HandleExport rasterizes the current preview into a PNG download.
//
// HTTP: POST /customize/export
//
// EXPORT FAILURES ARE ABSORBED:
// Whatever goes wrong in the rasterizer (no browser, daemon down, timeout,
// or exports disabled) is logged and answered with 204 No Content. The
// script only downloads on 200, so the user simply gets no file.
func (h *CustomizeHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	profile, style, ok := h.profileAndStyle(w, r)
	if !ok {
		return
	}
	h.export(w, r, render.ComputePreview(*profile, style), slog.String("profile_id", profile.ID))
}

// HandleSave stores the styled card and shows the share page.
//
// HTTP: POST /customize/save
func (h *CustomizeHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	profile, err := h.draftProfile(r)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrUnauthorized) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		h.pages.Failure(w, http.StatusBadGateway, "Your details could not be loaded")
		return
	}

	form, err := parseStyleForm(r)
	if err != nil {
		h.renderConfigurator(w, http.StatusBadRequest, *profile, model.DefaultStyle(), "", "The form could not be read")
		return
	}
	style, err := styleFromForm(form)
	if err != nil {
		h.renderConfigurator(w, http.StatusBadRequest, *profile, style, "", apperror.PublicMessage(err))
		return
	}

	card, err := h.cards.Save(r.Context(), *profile, style)
	if err != nil {
		// no retry; the user keeps their style and may press save again
		status, _ := statusFor(err)
		h.renderConfigurator(w, status, *profile, style, "", MsgSaveFailed)
		return
	}

	h.sessions.Put(r.Context(), flashKey, MsgSaved)
	http.Redirect(w, r, "/share/"+card.ID, http.StatusSeeOther)
}

// HandleShare shows a saved card with its locator and a QR code.
//
// HTTP: GET /share/{id}
func (h *CustomizeHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	card, ok := loadCard(r.Context(), w, h.cards, h.pages, id)
	if !ok {
		return
	}

	fragment, err := render.Fragment(render.ComputePreview(card.Profile, card.Style))
	if err != nil {
		h.logger.Error("failed to render card", slog.String("id", id), slog.String("error", err.Error()))
		h.pages.Failure(w, http.StatusInternalServerError, "Card could not be loaded")
		return
	}

	shareURL := h.links.CardURL(r, card.ID)
	qr, err := sharecode.DataURI(shareURL, sharecode.DefaultSize)
	if err != nil {
		// the page is still useful without the code
		h.logger.Warn("failed to encode share code", slog.String("error", err.Error()))
	}

	h.pages.Render(w, http.StatusOK, PageShare, pageData{
		Title:    "Share your card",
		Flash:    h.sessions.PopString(r.Context(), flashKey),
		Preview:  fragment,
		ShareURL: shareURL,
		QR:       qr,
		ImageURL: "/card/" + card.ID + "/image.png",
	})
}

// export rasterizes tree and writes the PNG, or 204 on any failure.
func (h *CustomizeHandler) export(w http.ResponseWriter, r *http.Request, tree render.Tree, attrs ...any) {
	png, err := rasterize(r.Context(), h.raster, tree)
	if err != nil {
		h.logger.Error("card export failed", append(attrs, slog.String("error", err.Error()))...)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writePNG(w, png, true)
}

// profileAndStyle resolves the draft profile and the submitted style for
// the JSON-answering routes. It writes the error response itself.
func (h *CustomizeHandler) profileAndStyle(w http.ResponseWriter, r *http.Request) (*model.ProfileRecord, model.StyleConfig, bool) {
	form, err := parseStyleForm(r)
	if err != nil {
		writeError(w, apperror.ValidationFailed("", "The form could not be read"))
		return nil, model.StyleConfig{}, false
	}
	style, err := styleFromForm(form)
	if err != nil {
		writeError(w, err)
		return nil, model.StyleConfig{}, false
	}
	profile, err := h.draftProfile(r)
	if err != nil {
		writeError(w, err)
		return nil, model.StyleConfig{}, false
	}
	return profile, style, true
}

func (h *CustomizeHandler) draftProfile(r *http.Request) (*model.ProfileRecord, error) {
	state := wizard.StateFromContext(r.Context())
	if state.Step != wizard.StepCustomizing {
		return nil, apperror.Unauthorized("no draft in progress")
	}
	return h.intake.Get(r.Context(), state.ProfileID)
}

func (h *CustomizeHandler) renderConfigurator(w http.ResponseWriter, status int, profile model.ProfileRecord, style model.StyleConfig, flash, errMsg string) {
	fragment, err := render.Fragment(render.ComputePreview(profile, style))
	if err != nil {
		h.logger.Error("failed to render preview", slog.String("error", err.Error()))
		fragment = template.HTML("")
	}

	h.pages.Render(w, status, PageCustomize, pageData{
		Title:         "Design your card",
		Step:          wizard.StepCustomizing,
		Flash:         flash,
		Error:         errMsg,
		Style:         style.Normalize(),
		Orientations:  []model.Orientation{model.OrientationHorizontal, model.OrientationVertical},
		LogoPositions: []model.LogoPosition{model.LogoTop, model.LogoLeft, model.LogoRight, model.LogoBottom},
		BorderStyles:  []model.BorderStyle{model.BorderSolid, model.BorderDashed, model.BorderDouble, model.BorderDotted, model.BorderShadow},
		Repeats:       []model.BackgroundRepeat{model.BackgroundRepeatOn, model.BackgroundRepeatOff},
		Fits:          []model.BackgroundFit{model.BackgroundCover, model.BackgroundContain},
		MinFontSize:   model.MinFontSize,
		MaxFontSize:   model.MaxFontSize,
		MinLogoSize:   model.MinLogoSize,
		MaxLogoSize:   model.MaxLogoSize,
		Preview:       fragment,
	})
}

// parseStyleForm reads the posted style controls. The script sends
// FormData (multipart); the plain form submit is url-encoded.
func parseStyleForm(r *http.Request) (url.Values, error) {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, err
	}
	return r.PostForm, nil
}

// styleFromForm starts from the default style and applies every style key
// present in the form. The returned style holds every valid field even when
// an error is returned.
func styleFromForm(form url.Values) (model.StyleConfig, error) {
	fields := make(map[string]string, len(model.StyleFields))
	for _, key := range model.StyleFields {
		if _, ok := form[key]; ok {
			fields[key] = form.Get(key)
		}
	}
	style := model.DefaultStyle()
	err := style.UpdateFields(fields)
	return style, err
}
