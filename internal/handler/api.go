package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/business-cards/internal/apperror"
	"github.com/sakif/business-cards/internal/model"
	"github.com/sakif/business-cards/internal/render"
	"github.com/sakif/business-cards/internal/wizard"
)

// APIHandler exposes the same wizard as JSON, for scripts and tests.
//
// The flow mirrors the pages: POST /api/profiles answers with the draft
// cookie, and POST /api/cards must carry it.
type APIHandler struct {
	intake ProfileIntake
	cards  CardStore
	tokens *wizard.TokenService
	links  ShareLinks
	secure bool
	logger *slog.Logger
}

func NewAPIHandler(intake ProfileIntake, cards CardStore, tokens *wizard.TokenService, links ShareLinks, secure bool, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		intake: intake,
		cards:  cards,
		tokens: tokens,
		links:  links,
		secure: secure,
		logger: logger,
	}
}

type profileResponse struct {
	ID    string         `json:"id"`
	Step  wizard.Step    `json:"step"`
	Links render.LinkSet `json:"links"`
}

// createCardRequest is the body of POST /api/cards. Style values may be
// JSON strings or numbers: {"fontSize": 20} and {"fontSize": "20"} are the
// same update.
type createCardRequest struct {
	ProfileID string         `json:"profileId"`
	Style     map[string]any `json:"style"`
}

type createCardResponse struct {
	ID       string `json:"id"`
	ShareURL string `json:"shareUrl"`
}

type cardDocument struct {
	ID        string              `json:"id"`
	Profile   model.ProfileRecord `json:"profile"`
	Style     model.StyleConfig   `json:"style"`
	CreatedAt time.Time           `json:"createdAt"`
}

type cardResponse struct {
	Card  cardDocument   `json:"card"`
	Links render.LinkSet `json:"links"`
}

// HandleCreateProfile stores a profile and starts a draft.
//
// HTTP: POST /api/profiles
// REQUEST BODY: {"fullName": "...", "businessName": "...", "description": "...", ...}
// RESPONSE: 201 {"id": "...", "step": "customizing", "links": {...}} + draft cookie
func (h *APIHandler) HandleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.logger.Warn("invalid profile JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("", "Invalid JSON body"))
		return
	}

	profile, err := h.intake.Submit(r.Context(), fields)
	if err != nil {
		writeError(w, err)
		return
	}

	state := wizard.New()
	if err := state.Advance(profile.ID); err != nil {
		writeError(w, err)
		return
	}
	if err := wizard.SetDraftCookie(w, h.tokens, state.ProfileID, h.secure); err != nil {
		h.logger.Error("failed to issue draft", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, profileResponse{
		ID:    profile.ID,
		Step:  state.Step,
		Links: render.DeriveLinks(*profile),
	})
}

// HandleCreateCard saves a styled card for the draft's profile.
//
// HTTP: POST /api/cards (draft required)
// REQUEST BODY: {"profileId": "...", "style": {"orientation": "vertical", "fontSize": 20}}
// RESPONSE: 201 {"id": "...", "shareUrl": "https://.../card/..."}
//
// profileId may be omitted; when present it must be the draft's profile.
func (h *APIHandler) HandleCreateCard(w http.ResponseWriter, r *http.Request) {
	var req createCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid card JSON", slog.String("error", err.Error()))
		writeError(w, apperror.ValidationFailed("", "Invalid JSON body"))
		return
	}

	state := wizard.StateFromContext(r.Context())
	if state.Step != wizard.StepCustomizing {
		writeError(w, apperror.Unauthorized("no draft in progress"))
		return
	}
	if req.ProfileID != "" && req.ProfileID != state.ProfileID {
		writeError(w, apperror.Unauthorized("profileId does not match the draft"))
		return
	}

	fields, err := styleStrings(req.Style)
	if err != nil {
		writeError(w, err)
		return
	}
	style := model.DefaultStyle()
	if err := style.UpdateFields(fields); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.intake.Get(r.Context(), state.ProfileID)
	if err != nil {
		writeError(w, err)
		return
	}

	card, err := h.cards.Save(r.Context(), *profile, style)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createCardResponse{
		ID:       card.ID,
		ShareURL: h.links.CardURL(r, card.ID),
	})
}

// HandleGetCard returns a saved card with its derived links.
//
// HTTP: GET /api/cards/{id}
func (h *APIHandler) HandleGetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cardResponse{
		Card: cardDocument{
			ID:        card.ID,
			Profile:   card.Profile,
			Style:     card.Style,
			CreatedAt: card.CreatedAt,
		},
		Links: render.DeriveLinks(card.Profile),
	})
}

// styleStrings converts decoded JSON style values to the string form
// StyleConfig.Update expects. Unknown keys are rejected rather than ignored.
func styleStrings(in map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(in))
	for key, v := range in {
		switch v := v.(type) {
		case string:
			out[key] = v
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return nil, apperror.ValidationFailed(key, fmt.Sprintf("%s must be a string or a number", key))
		}
	}
	for key := range out {
		if !slices.Contains(model.StyleFields, key) {
			return nil, apperror.ValidationFailed(key, fmt.Sprintf("unknown style field %q", key))
		}
	}
	return out, nil
}
