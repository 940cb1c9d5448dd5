package webhooks

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Authenticated by signature, not session
	r.Post("/identity", IdentityEventWebhook)

	return r
}
