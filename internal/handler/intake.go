package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/alexedwards/scs/v2"

	"github.com/sakif/business-cards/internal/apperror"
	"github.com/sakif/business-cards/internal/model"
	"github.com/sakif/business-cards/internal/wizard"
)

// ProfileIntake is the part of service.IntakeService the handlers use.
type ProfileIntake interface {
	Submit(ctx context.Context, fields map[string]string) (*model.ProfileRecord, error)
	Get(ctx context.Context, id string) (*model.ProfileRecord, error)
}

// Status messages shown to the user.
const (
	MsgSaved      = "✅ Saved successfully!"
	MsgSaveFailed = "❌ Failed to save"
)

// flashKey is the session key of the one-shot status shown after a redirect.
const flashKey = "flash"

// IntakeHandler serves the first wizard step: the profile form.
type IntakeHandler struct {
	intake   ProfileIntake
	tokens   *wizard.TokenService
	sessions *scs.SessionManager
	pages    *Pages
	secure   bool
	logger   *slog.Logger
}

// NewIntakeHandler creates an IntakeHandler. secure marks the draft cookie
// Secure and should be true whenever the site is served over HTTPS.
func NewIntakeHandler(intake ProfileIntake, tokens *wizard.TokenService, sessions *scs.SessionManager, pages *Pages, secure bool, logger *slog.Logger) *IntakeHandler {
	return &IntakeHandler{
		intake:   intake,
		tokens:   tokens,
		sessions: sessions,
		pages:    pages,
		secure:   secure,
		logger:   logger,
	}
}

// HandleForm shows the empty intake form.
//
// HTTP: GET /
func (h *IntakeHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, http.StatusOK, map[string]string{}, nil, h.sessions.PopString(r.Context(), flashKey))
}

// HandleSubmit validates and stores the profile, then moves the wizard to
// the customizing step.
//
// HTTP: POST /
//
// OUTCOMES:
//   - success: draft cookie + flash, 303 to /customize
//   - invalid input: 422, form re-rendered with the input and the message
//   - store failure: 502, form re-rendered with the input, still collecting
func (h *IntakeHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("invalid intake form", slog.String("error", err.Error()))
		h.renderForm(w, http.StatusBadRequest, map[string]string{}, apperror.ValidationFailed("", "The form could not be read"), "")
		return
	}
	fields := profileFields(r.PostForm)

	profile, err := h.intake.Submit(r.Context(), fields)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, apperror.ErrPersistenceWrite):
			status = http.StatusBadGateway
		}
		h.renderForm(w, status, fields, err, "")
		return
	}

	state := wizard.New()
	if err := state.Advance(profile.ID); err != nil {
		h.logger.Error("wizard transition failed", slog.String("error", err.Error()))
		h.pages.Failure(w, http.StatusInternalServerError, "Something went wrong")
		return
	}
	if err := wizard.SetDraftCookie(w, h.tokens, state.ProfileID, h.secure); err != nil {
		h.logger.Error("failed to issue draft", slog.String("error", err.Error()))
		h.pages.Failure(w, http.StatusInternalServerError, "Something went wrong")
		return
	}

	h.sessions.Put(r.Context(), flashKey, MsgSaved)
	http.Redirect(w, r, "/customize", http.StatusSeeOther)
}

// renderForm shows the intake form. A validation error is reported next to
// its field; any other error becomes the generic save failure status.
func (h *IntakeHandler) renderForm(w http.ResponseWriter, status int, values map[string]string, err error, flash string) {
	data := pageData{
		Title:  "Your details",
		Step:   wizard.StepCollecting,
		Flash:  flash,
		Fields: model.ProfileFields,
		Values: values,
	}
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			data.Error = apperror.PublicMessage(err)
			data.ErrorField = fieldOf(err)
		} else {
			data.Error = MsgSaveFailed
		}
	}
	h.pages.Render(w, status, PageIntake, data)
}

// profileFields picks the known intake keys out of a submitted form. Values
// are passed on untrimmed; the service trims.
func profileFields(form url.Values) map[string]string {
	fields := make(map[string]string, len(model.ProfileFields))
	for _, f := range model.ProfileFields {
		fields[f.Key] = form.Get(f.Key)
	}
	return fields
}
