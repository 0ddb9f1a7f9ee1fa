package http

import (
	"mime"
	"net/http"

	"github.com/atinyakov/accvault/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter constructs and returns an HTTP handler that serves
// the account and file storage API.
//
// Routes:
//
//	GET  /health                       → liveness probe
//	GET  /download/{filename}          → fileHandler.Download
//	GET  /listar_arquivos/{username}   → fileHandler.List
//	POST /upload                       → fileHandler.Upload (multipart)
//	POST /enviar                       → accountHandler.Register
//	POST /login                        → accountHandler.Login
//	POST /deletar_conta                → accountHandler.DeleteAccount
//	POST /trocar_senha                 → accountHandler.ChangePassword
//	POST /trocar_nome                  → accountHandler.ChangeName
//	POST /deletar_arquivo              → fileHandler.DeleteFile
//	POST /resetar_arquivos             → fileHandler.ResetFiles
//
// Middleware chain (applied in order):
//  1. RequestID           - tags each request with an identifier
//  2. WithRequestLogging  - logs served requests
//  3. Recoverer           - turns handler panics into 500 responses
//  4. CORS                - allows every origin
func NewRouter(
	accountHandler *AccountHandler,
	fileHandler *FileHandler,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
	}))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Rota não encontrada.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Método não permitido.")
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": statusOK})
	})
	r.Get("/download/{filename}", fileHandler.Download)
	r.Get("/listar_arquivos/{username}", fileHandler.List)

	r.Post("/upload", fileHandler.Upload)

	// Only allow requests with Content-Type: application/json
	r.Group(func(r chi.Router) {
		r.Use(requireJSON)

		r.Post("/enviar", accountHandler.Register)
		r.Post("/login", accountHandler.Login)
		r.Post("/deletar_conta", accountHandler.DeleteAccount)
		r.Post("/trocar_senha", accountHandler.ChangePassword)
		r.Post("/trocar_nome", accountHandler.ChangeName)
		r.Post("/deletar_arquivo", fileHandler.DeleteFile)
		r.Post("/resetar_arquivos", fileHandler.ResetFiles)
	})

	return r
}

// requireJSON rejects requests with a body whose Content-Type is not
// application/json. Bodiless requests pass through and fail decoding instead.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength != 0 {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				writeError(w, http.StatusUnsupportedMediaType, "Content-Type deve ser application/json.")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
