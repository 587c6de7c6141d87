package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sakif/business-cards/internal/model"
)

// 1x1 transparent PNG.
const pngDataURL = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFragment(t *testing.T) {
	style := model.DefaultStyle()
	style.BorderStyle = model.BorderDotted
	style.BorderColor = "#ff0000"
	profile := model.ProfileRecord{BusinessName: "Biz", Description: "Desc", Website: "biz.com"}

	html, err := Fragment(ComputePreview(profile, style))
	require.NoError(t, err)

	out := string(html)
	assert.True(t, strings.HasPrefix(out, `<div id="card"`))
	assert.Contains(t, out, "border: 3px dotted #ff0000;")
	assert.Contains(t, out, `href="https://biz.com"`)
	assert.Contains(t, out, ">Biz</h2>")
	assert.NotContains(t, out, "ZgotmplZ")
}

func TestFragment_EscapesText(t *testing.T) {
	profile := model.ProfileRecord{
		BusinessName: `<script>alert("x")</script>`,
		Description:  "Tom & Jerry",
		Website:      `"><img src=x onerror=alert(1)>`,
	}

	html, err := Fragment(ComputePreview(profile, model.DefaultStyle()))
	require.NoError(t, err)

	out := string(html)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "<img src=x")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Tom &amp; Jerry")
}

func TestFragment_Logo(t *testing.T) {
	style := model.DefaultStyle()
	style.Logo = pngDataURL

	html, err := Fragment(ComputePreview(model.ProfileRecord{}, style))
	require.NoError(t, err)

	assert.Contains(t, string(html), `src="`+pngDataURL+`"`)
	assert.Contains(t, string(html), "height: 60px;")
}

func TestSafeHref(t *testing.T) {
	assert.Equal(t, "mailto:a@b.com", string(safeHref("mailto:a@b.com")))
	assert.Equal(t, "https://biz.com", string(safeHref("https://biz.com")))
	assert.True(t, strings.HasPrefix(string(safeHref("javascript:alert(1)")), "#"))
}

func TestDocument(t *testing.T) {
	doc, err := Document(ComputePreview(model.ProfileRecord{BusinessName: "Biz"}, model.DefaultStyle()))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, `id="card"`)
	assert.Contains(t, doc, "<title>Biz</title>")
	assert.Equal(t, "#card", CardSelector)
}
