// Package http provides HTTP handlers for account registration, login and
// maintenance, and for per-user file storage.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/accvault/internal/models"
)

// AccountService defines the account operations required by the HTTP handlers.
type AccountService interface {
	// Register creates an account and copies the default files for it.
	Register(ctx context.Context, in models.Registration) error
	// Authenticate returns the account without its password hash.
	Authenticate(ctx context.Context, username, password string) (*models.Account, error)
	// UpdatePassword replaces the password of the accounts with email.
	UpdatePassword(ctx context.Context, email, newPassword string) error
	// UpdateFullName replaces the full name of the accounts with email.
	UpdateFullName(ctx context.Context, email, newName string) error
	// Delete removes the account and, best effort, its files.
	Delete(ctx context.Context, username string) (models.CleanupReport, error)
}

// AccountHandler handles HTTP requests for account management.
type AccountHandler struct {
	// AccountService performs the underlying account operations.
	AccountService AccountService
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Username string `json:"NomeUsuario"`
	Password string `json:"SenhaUsuario"`
}

// UsernameRequest represents a JSON payload naming a single user.
type UsernameRequest struct {
	Username string `json:"NomeUsuario"`
}

// ChangePasswordRequest represents the JSON payload for a password change.
type ChangePasswordRequest struct {
	Email       string `json:"Email"`
	NewPassword string `json:"NovaSenha"`
}

// ChangeNameRequest represents the JSON payload for a full name change.
type ChangeNameRequest struct {
	Email   string `json:"Email"`
	NewName string `json:"NovoNome"`
}

// Register handles POST /enviar.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.AccountService.Register(r.Context(), req); err != nil {
		writeServiceError(w, err, errorMessages{
			validation: "Nome de usuário e senha são obrigatórios.",
			notFound:   msgUserMissing,
			failure:    "Erro ao cadastrar",
		})
		return
	}
	writeOK(w, "Cadastro realizado com sucesso!", nil)
}

// Login handles POST /login. Unknown users and wrong passwords get the same
// 401 response.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	acc, err := h.AccountService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, err, errorMessages{
			validation: msgInvalidCredentials,
			notFound:   msgInvalidCredentials,
			failure:    "Erro ao autenticar",
		})
		return
	}
	writeOK(w, "Login bem-sucedido!", map[string]any{"dados": acc})
}

// DeleteAccount handles POST /deletar_conta.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	var req UsernameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.AccountService.Delete(r.Context(), req.Username)
	if err != nil {
		writeServiceError(w, err, errorMessages{
			validation: msgUserMissing,
			notFound:   msgUserMissing,
			failure:    "Erro ao deletar conta",
		})
		return
	}
	writeOK(w, "Conta e arquivos deletados com sucesso.", cleanupPayload(report))
}

// ChangePassword handles POST /trocar_senha.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.AccountService.UpdatePassword(r.Context(), req.Email, req.NewPassword); err != nil {
		writeServiceError(w, err, errorMessages{
			validation: "Email e nova senha são obrigatórios.",
			notFound:   msgEmailNotFound,
			failure:    "Erro ao atualizar senha",
		})
		return
	}
	writeOK(w, "Senha atualizada com sucesso!", nil)
}

// ChangeName handles POST /trocar_nome.
func (h *AccountHandler) ChangeName(w http.ResponseWriter, r *http.Request) {
	var req ChangeNameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.AccountService.UpdateFullName(r.Context(), req.Email, req.NewName); err != nil {
		writeServiceError(w, err, errorMessages{
			validation: "Email e novo nome são obrigatórios.",
			notFound:   msgEmailNotFound,
			failure:    "Erro ao atualizar nome",
		})
		return
	}
	writeOK(w, "Nome atualizado com sucesso!", nil)
}
