package handler

import (
	"net/http"

	"github.com/sakif/business-cards/internal/apperror"
)

// RejectPage is the wizard.RequireDraft rejection for HTML routes: without
// a draft the wizard is back at the collecting step.
func RejectPage(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// RejectAPI is the wizard.RequireDraft rejection for JSON routes.
func RejectAPI(w http.ResponseWriter, r *http.Request) {
	writeError(w, apperror.Unauthorized("a draft is required; create a profile first"))
}
