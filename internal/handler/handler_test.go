package handler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/business-cards/internal/apperror"
	"github.com/sakif/business-cards/internal/handler"
	"github.com/sakif/business-cards/internal/model"
	"github.com/sakif/business-cards/internal/rasterizer"
	"github.com/sakif/business-cards/internal/repository"
	"github.com/sakif/business-cards/internal/wizard"
	"github.com/sakif/business-cards/web"
)

// fakePNG starts with the PNG signature, which is all the handlers look at.
var fakePNG = []byte("\x89PNG\r\n\x1a\nfake")

// mockIntake implements handler.ProfileIntake without a store.
type mockIntake struct {
	profile   *model.ProfileRecord
	submitted map[string]string
	submitErr error
	getErr    error
}

func (m *mockIntake) Submit(ctx context.Context, fields map[string]string) (*model.ProfileRecord, error) {
	m.submitted = fields
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	p := *m.profile
	return &p, nil
}

func (m *mockIntake) Get(ctx context.Context, id string) (*model.ProfileRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.profile == nil || id != m.profile.ID {
		return nil, apperror.NotFound(repository.CollectionProfiles, id)
	}
	p := *m.profile
	return &p, nil
}

// mockCards implements handler.CardStore over a map.
type mockCards struct {
	cards   map[string]model.SavedCard
	saveErr error
	loadErr error
	saves   int
}

func (m *mockCards) Save(ctx context.Context, profile model.ProfileRecord, style model.StyleConfig) (*model.SavedCard, error) {
	m.saves++
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	card := model.SavedCard{
		ID:        repository.NewID(),
		Profile:   profile,
		Style:     style.Normalize(),
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	m.cards[card.ID] = card
	return &card, nil
}

func (m *mockCards) Load(ctx context.Context, id string) (*model.SavedCard, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	card, ok := m.cards[id]
	if !ok {
		return nil, apperror.NotFound(repository.CollectionCards, id)
	}
	return &card, nil
}

// mockRaster captures the last request.
type mockRaster struct {
	req rasterizer.Request
	png []byte
	err error
}

func (m *mockRaster) Rasterize(ctx context.Context, req rasterizer.Request) ([]byte, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return m.png, nil
}

type fixture struct {
	intake  *mockIntake
	cards   *mockCards
	raster  *mockRaster
	tokens  *wizard.TokenService
	router  http.Handler
	profile model.ProfileRecord
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	pages, err := handler.NewPages(web.Templates, logger)
	require.NoError(t, err)
	tokens, err := wizard.NewTokenService("handler-test-secret-value", time.Hour)
	require.NoError(t, err)
	sessions := scs.New()

	profile := model.ProfileRecord{
		ID:           repository.NewID(),
		FullName:     "Ada Lovelace",
		BusinessName: "Ada Bakery",
		Description:  "Fresh bread daily",
		Email:        "ada@example.com",
		Instagram:    "adabakes",
	}
	f := &fixture{
		intake:  &mockIntake{profile: &profile},
		cards:   &mockCards{cards: map[string]model.SavedCard{}},
		raster:  &mockRaster{png: fakePNG},
		tokens:  tokens,
		profile: profile,
	}

	links := handler.ShareLinks{}
	ih := handler.NewIntakeHandler(f.intake, tokens, sessions, pages, false, logger)
	ch := handler.NewCustomizeHandler(f.intake, f.cards, f.raster, sessions, pages, links, logger)
	vh := handler.NewCardHandler(f.cards, f.raster, pages, links, logger)
	ah := handler.NewAPIHandler(f.intake, f.cards, tokens, links, false, logger)

	r := chi.NewRouter()
	r.Use(sessions.LoadAndSave)
	r.Get("/", ih.HandleForm)
	r.Post("/", ih.HandleSubmit)
	r.Group(func(r chi.Router) {
		r.Use(wizard.RequireDraft(tokens, handler.RejectPage))
		r.Get("/customize", ch.HandleCustomize)
		r.Post("/customize/save", ch.HandleSave)
	})
	r.Group(func(r chi.Router) {
		r.Use(wizard.RequireDraft(tokens, handler.RejectAPI))
		r.Post("/customize/preview", ch.HandlePreview)
		r.Post("/customize/export", ch.HandleExport)
	})
	r.Get("/share/{id}", ch.HandleShare)
	r.Get("/card/{id}", vh.HandleView)
	r.Get("/card/{id}/image.png", vh.HandleImage)
	r.Get("/card/{id}/qr.png", vh.HandleQR)
	r.Post("/api/profiles", ah.HandleCreateProfile)
	r.With(wizard.RequireDraft(tokens, handler.RejectAPI)).Post("/api/cards", ah.HandleCreateCard)
	r.Get("/api/cards/{id}", ah.HandleGetCard)
	r.Get("/healthz", handler.HandleHealth)

	f.router = r
	return f
}

func (f *fixture) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func (f *fixture) draft(t *testing.T) *http.Cookie {
	t.Helper()
	token, err := f.tokens.Issue(f.profile.ID)
	require.NoError(t, err)
	return &http.Cookie{Name: wizard.DraftCookie, Value: token}
}

func (f *fixture) savedCard(t *testing.T) model.SavedCard {
	t.Helper()
	card, err := f.cards.Save(context.Background(), f.profile, model.DefaultStyle())
	require.NoError(t, err)
	return *card
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// postMultipart builds the body the configurator script sends with FormData.
func postMultipart(t *testing.T, target string, form url.Values) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, values := range form {
		for _, v := range values {
			require.NoError(t, mw.WriteField(key, v))
		}
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func cookieNamed(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestIntake_Form(t *testing.T) {
	f := newFixture(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	for _, field := range model.ProfileFields {
		assert.Contains(t, rr.Body.String(), `name="`+field.Key+`"`)
	}
}

func TestIntake_SubmitSuccess(t *testing.T) {
	f := newFixture(t)
	form := url.Values{
		model.FieldFullName:     {"Ada Lovelace"},
		model.FieldBusinessName: {"Ada Bakery"},
		model.FieldDescription:  {"Fresh bread daily"},
	}

	rr := f.do(postForm("/", form))

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/customize", rr.Header().Get("Location"))
	assert.Equal(t, "Ada Bakery", f.intake.submitted[model.FieldBusinessName])

	cookies := rr.Result().Cookies()
	draft := cookieNamed(cookies, wizard.DraftCookie)
	require.NotNil(t, draft, "draft cookie must be issued")
	assert.True(t, draft.HttpOnly)

	state, err := f.tokens.Verify(draft.Value)
	require.NoError(t, err)
	assert.Equal(t, wizard.StepCustomizing, state.Step)
	assert.Equal(t, f.profile.ID, state.ProfileID)

	// following the redirect shows the one-shot flash and the live preview
	next := f.do(httptest.NewRequest(http.MethodGet, "/customize", nil), cookies...)
	require.Equal(t, http.StatusOK, next.Code)
	assert.Contains(t, next.Body.String(), handler.MsgSaved)
	assert.Contains(t, next.Body.String(), `id="card"`)
	assert.Contains(t, next.Body.String(), "Ada Bakery")

	again := f.do(httptest.NewRequest(http.MethodGet, "/customize", nil), cookies...)
	assert.NotContains(t, again.Body.String(), handler.MsgSaved, "flash is shown once")
}

func TestIntake_SubmitValidationError(t *testing.T) {
	f := newFixture(t)
	f.intake.submitErr = apperror.ValidationFailed(model.FieldFullName, "Full Name is required")

	rr := f.do(postForm("/", url.Values{model.FieldBusinessName: {"Kept Input"}}))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, 1, strings.Count(rr.Body.String(), "Full Name is required"), "shown once, next to the field")
	assert.Contains(t, rr.Body.String(), `<p class="field-error" role="alert">Full Name is required</p>`)
	assert.NotContains(t, rr.Body.String(), "status--error")
	assert.Contains(t, rr.Body.String(), `value="Kept Input"`)
	assert.Nil(t, cookieNamed(rr.Result().Cookies(), wizard.DraftCookie))
}

func TestIntake_SubmitWriteFailure(t *testing.T) {
	f := newFixture(t)
	f.intake.submitErr = apperror.WriteFailed(repository.CollectionProfiles, errors.New("disk full"))

	rr := f.do(postForm("/", url.Values{model.FieldBusinessName: {"Kept Input"}}))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), `<p class="status status--error" role="alert">`+handler.MsgSaveFailed+`</p>`)
	assert.Contains(t, rr.Body.String(), `value="Kept Input"`)
	assert.NotContains(t, rr.Body.String(), "disk full")
	assert.Nil(t, cookieNamed(rr.Result().Cookies(), wizard.DraftCookie))
}

func TestCustomize_RequiresDraft(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		cookie *http.Cookie
	}{
		{"no cookie", nil},
		{"garbage cookie", &http.Cookie{Name: wizard.DraftCookie, Value: "not-a-token"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/customize", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rr := f.do(req)
			assert.Equal(t, http.StatusSeeOther, rr.Code)
			assert.Equal(t, "/", rr.Header().Get("Location"))
		})
	}
}

func TestCustomize_DraftForMissingProfile(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Issue(repository.NewID())
	require.NoError(t, err)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/customize", nil),
		&http.Cookie{Name: wizard.DraftCookie, Value: token})

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestCustomize_Preview(t *testing.T) {
	f := newFixture(t)

	t.Run("applies submitted fields", func(t *testing.T) {
		rr := f.do(postForm("/customize/preview", url.Values{
			model.StyleOrientation: {"vertical"},
			model.StyleBorderStyle: {"shadow"},
			model.StyleFontSize:    {"99"},
		}), f.draft(t))

		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "flex-direction: column")
		assert.Contains(t, body, "border: none")
		assert.Contains(t, body, "font-size: 25px", "font size is clamped")
		assert.Contains(t, body, "https://instagram.com/adabakes")
	})

	t.Run("invalid value is a JSON 400", func(t *testing.T) {
		rr := f.do(postForm("/customize/preview", url.Values{
			model.StyleCardColor: {"red; background: url(evil)"},
		}), f.draft(t))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Body.String(), `"field":"cardColor"`)
	})
}

func TestCustomize_MultipartStyle(t *testing.T) {
	style := url.Values{
		model.StyleOrientation: {"vertical"},
		model.StyleBorderStyle: {"dotted"},
		model.StyleBorderColor: {"#ff0000"},
	}

	t.Run("preview", func(t *testing.T) {
		f := newFixture(t)

		rr := f.do(postMultipart(t, "/customize/preview", style), f.draft(t))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "border: 3px dotted #ff0000")
		assert.Contains(t, rr.Body.String(), "flex-direction: column")
	})

	t.Run("export", func(t *testing.T) {
		f := newFixture(t)

		rr := f.do(postMultipart(t, "/customize/export", style), f.draft(t))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, f.raster.req.Document, "border: 3px dotted #ff0000")
		assert.Contains(t, f.raster.req.Document, "flex-direction: column")
	})

	t.Run("save", func(t *testing.T) {
		f := newFixture(t)

		rr := f.do(postMultipart(t, "/customize/save", style), f.draft(t))

		require.Equal(t, http.StatusSeeOther, rr.Code)
		id := strings.TrimPrefix(rr.Header().Get("Location"), "/share/")
		saved := f.cards.cards[id]
		assert.Equal(t, model.BorderDotted, saved.Style.BorderStyle)
		assert.Equal(t, "#ff0000", saved.Style.BorderColor)
		assert.Equal(t, model.OrientationVertical, saved.Style.Orientation)
	})
}

func TestCustomize_ScriptRoutesWithoutDraft(t *testing.T) {
	f := newFixture(t)

	for _, target := range []string{"/customize/preview", "/customize/export"} {
		t.Run(target, func(t *testing.T) {
			rr := f.do(postMultipart(t, target, url.Values{model.StyleOrientation: {"vertical"}}))

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), `"error":"unauthorized"`)
			assert.Empty(t, rr.Header().Get("Location"))
			assert.Empty(t, f.raster.req.Document, "nothing is rasterized")
		})
	}
}

func TestCustomize_Export(t *testing.T) {
	t.Run("png attachment", func(t *testing.T) {
		f := newFixture(t)

		rr := f.do(postForm("/customize/export", url.Values{model.StyleOrientation: {"vertical"}}), f.draft(t))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Contains(t, rr.Header().Get("Content-Disposition"), handler.ExportFilename)
		assert.Equal(t, fakePNG, rr.Body.Bytes())

		assert.Equal(t, "#card", f.raster.req.Selector)
		assert.Contains(t, f.raster.req.Document, "<!DOCTYPE html>")
		assert.Contains(t, f.raster.req.Document, "Ada Bakery")
	})

	t.Run("failure is absorbed", func(t *testing.T) {
		f := newFixture(t)
		f.raster.err = errors.New("browser crashed")

		rr := f.do(postForm("/customize/export", url.Values{}), f.draft(t))

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.Bytes())
	})

	t.Run("disabled rasterizer is absorbed", func(t *testing.T) {
		f := newFixture(t)
		f.raster.err = rasterizer.ErrUnavailable

		rr := f.do(postForm("/customize/export", url.Values{}), f.draft(t))

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestCustomize_Save(t *testing.T) {
	t.Run("success redirects to the share page", func(t *testing.T) {
		f := newFixture(t)

		rr := f.do(postForm("/customize/save", url.Values{
			model.StyleOrientation: {"vertical"},
			model.StyleBorderStyle: {"dotted"},
			model.StyleBorderColor: {"#ff0000"},
		}), f.draft(t))

		require.Equal(t, http.StatusSeeOther, rr.Code)
		require.Len(t, f.cards.cards, 1)
		for id, card := range f.cards.cards {
			assert.Equal(t, "/share/"+id, rr.Header().Get("Location"))
			assert.Equal(t, model.OrientationVertical, card.Style.Orientation)
			assert.Equal(t, model.BorderDotted, card.Style.BorderStyle)
			assert.Equal(t, "#ff0000", card.Style.BorderColor)
			assert.Equal(t, f.profile.BusinessName, card.Profile.BusinessName)
		}
	})

	t.Run("write failure keeps the configurator", func(t *testing.T) {
		f := newFixture(t)
		f.cards.saveErr = apperror.WriteFailed(repository.CollectionCards, errors.New("timeout"))

		rr := f.do(postForm("/customize/save", url.Values{model.StyleOrientation: {"vertical"}}), f.draft(t))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, 1, f.cards.saves, "no retry")
		assert.Contains(t, rr.Body.String(), handler.MsgSaveFailed)
		assert.Contains(t, rr.Body.String(), `id="style-form"`)
		assert.Contains(t, rr.Body.String(), "flex-direction: column", "the submitted style is kept")
	})
}

func TestShare(t *testing.T) {
	f := newFixture(t)
	card := f.savedCard(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/share/"+card.ID, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "http://example.com/card/"+card.ID)
	assert.Contains(t, body, `src="data:image/png;base64,`)
	assert.Contains(t, body, "/card/"+card.ID+"/image.png")

	missing := f.do(httptest.NewRequest(http.MethodGet, "/share/"+repository.NewID(), nil))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestCardView(t *testing.T) {
	f := newFixture(t)
	card := f.savedCard(t)

	t.Run("found", func(t *testing.T) {
		rr := f.do(httptest.NewRequest(http.MethodGet, "/card/"+card.ID, nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Ada Bakery")
		assert.Contains(t, rr.Body.String(), "mailto:ada@example.com")
	})

	t.Run("not found", func(t *testing.T) {
		rr := f.do(httptest.NewRequest(http.MethodGet, "/card/"+repository.NewID(), nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "Card not found")
	})

	t.Run("read failure", func(t *testing.T) {
		f.cards.loadErr = apperror.ReadFailed(repository.CollectionCards, card.ID, errors.New("connection reset"))
		defer func() { f.cards.loadErr = nil }()

		rr := f.do(httptest.NewRequest(http.MethodGet, "/card/"+card.ID, nil))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Contains(t, rr.Body.String(), "Card could not be loaded")
		assert.NotContains(t, rr.Body.String(), "connection reset")
	})
}

func TestCardImage(t *testing.T) {
	f := newFixture(t)
	card := f.savedCard(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/card/"+card.ID+"/image.png", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
	assert.Empty(t, rr.Header().Get("Content-Disposition"))

	f.raster.err = rasterizer.ErrUnavailable
	rr = f.do(httptest.NewRequest(http.MethodGet, "/card/"+card.ID+"/image.png", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(httptest.NewRequest(http.MethodGet, "/card/"+repository.NewID()+"/image.png", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCardQR(t *testing.T) {
	f := newFixture(t)
	id := repository.NewID()

	rr := f.do(httptest.NewRequest(http.MethodGet, "/card/"+id+"/qr.png", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, rasterizer.IsPNG(rr.Body.Bytes()))

	rr = f.do(httptest.NewRequest(http.MethodGet, "/card/not-an-id/qr.png", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(httptest.NewRequest(http.MethodGet, "/card/"+id+"/qr.png?size=10", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rr := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAPI_CreateProfile(t *testing.T) {
	f := newFixture(t)

	rr := f.do(postJSON("/api/profiles", `{"fullName":"Ada Lovelace","businessName":"Ada Bakery","description":"Fresh bread daily","instagram":"adabakes"}`))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{
		"id": "`+f.profile.ID+`",
		"step": "customizing",
		"links": {"email": "mailto:ada@example.com", "instagram": "https://instagram.com/adabakes", "facebook": "", "website": ""}
	}`, rr.Body.String())
	assert.NotNil(t, cookieNamed(rr.Result().Cookies(), wizard.DraftCookie))

	t.Run("invalid JSON", func(t *testing.T) {
		rr := f.do(postJSON("/api/profiles", `{"fullName":`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		f.intake.submitErr = apperror.ValidationFailed(model.FieldDescription, "Description is required")
		defer func() { f.intake.submitErr = nil }()

		rr := f.do(postJSON("/api/profiles", `{"fullName":"Ada"}`))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), `"field":"description"`)
		assert.Nil(t, cookieNamed(rr.Result().Cookies(), wizard.DraftCookie))
	})
}

func TestAPI_CreateCard(t *testing.T) {
	t.Run("requires a draft", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(postJSON("/api/cards", `{"style":{}}`))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Zero(t, f.cards.saves)
	})

	t.Run("profile must match the draft", func(t *testing.T) {
		f := newFixture(t)
		rr := f.do(postJSON("/api/cards", `{"profileId":"`+repository.NewID()+`","style":{}}`), f.draft(t))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Zero(t, f.cards.saves)
	})

	t.Run("saves numbers and strings alike", func(t *testing.T) {
		f := newFixture(t)
		body := `{"profileId":"` + f.profile.ID + `","style":{"orientation":"vertical","fontSize":20,"logoSize":"100"}}`

		rr := f.do(postJSON("/api/cards", body), f.draft(t))

		require.Equal(t, http.StatusCreated, rr.Code)
		require.Len(t, f.cards.cards, 1)
		for id, card := range f.cards.cards {
			assert.JSONEq(t, `{"id":"`+id+`","shareUrl":"http://example.com/card/`+id+`"}`, rr.Body.String())
			assert.Equal(t, model.OrientationVertical, card.Style.Orientation)
			assert.Equal(t, 20, card.Style.FontSize)
			assert.Equal(t, 100, card.Style.LogoSize)
		}
	})

	t.Run("invalid style", func(t *testing.T) {
		f := newFixture(t)
		for _, style := range []string{`{"orientation":"diagonal"}`, `{"fontSize":true}`, `{"sparkles":"yes"}`} {
			rr := f.do(postJSON("/api/cards", `{"style":`+style+`}`), f.draft(t))
			assert.Equal(t, http.StatusBadRequest, rr.Code, style)
		}
		assert.Zero(t, f.cards.saves)
	})

	t.Run("write failure", func(t *testing.T) {
		f := newFixture(t)
		f.cards.saveErr = apperror.WriteFailed(repository.CollectionCards, errors.New("boom"))
		rr := f.do(postJSON("/api/cards", `{"style":{}}`), f.draft(t))
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.NotContains(t, rr.Body.String(), "boom")
	})
}

func TestAPI_GetCard(t *testing.T) {
	f := newFixture(t)
	card := f.savedCard(t)

	rr := f.do(httptest.NewRequest(http.MethodGet, "/api/cards/"+card.ID, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `"id":"`+card.ID+`"`)
	assert.Contains(t, body, `"businessName":"Ada Bakery"`)
	assert.Contains(t, body, `"instagram":"https://instagram.com/adabakes"`)
	assert.Contains(t, body, `"orientation":"horizontal"`)

	rr = f.do(httptest.NewRequest(http.MethodGet, "/api/cards/"+repository.NewID(), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
