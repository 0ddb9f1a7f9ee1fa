package http

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"

	"github.com/atinyakov/accvault/internal/models"
	"github.com/go-chi/chi/v5"
)

// maxUploadMemory bounds the part of a multipart body kept in memory;
// the rest spills to temporary files.
const maxUploadMemory = 32 << 20

// FileService defines the file operations required by the FileHandler.
type FileService interface {
	Upload(ctx context.Context, username, name string, content io.Reader) (string, error)
	List(ctx context.Context, username string) ([]string, error)
	Open(ctx context.Context, name string) (*os.File, error)
	Delete(ctx context.Context, name string) error
	Reset(ctx context.Context, username string) (models.CleanupReport, error)
}

// FileHandler handles HTTP requests for user file storage.
type FileHandler struct {
	FileService FileService
}

// FilenameRequest represents the JSON payload naming a stored file.
type FilenameRequest struct {
	Filename string `json:"filename"`
}

// Upload handles POST /upload. The file comes in the "arquivo" part and the
// owner in the "NomeUsuario" field.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Nenhum arquivo enviado!")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Nenhum arquivo enviado!")
		return
	}
	defer file.Close()

	username := r.FormValue("NomeUsuario")
	if username == "" {
		writeError(w, http.StatusBadRequest, msgUserMissing)
		return
	}

	stored, err := h.FileService.Upload(r.Context(), username, header.Filename, file)
	if err != nil {
		writeServiceError(w, err, errorMessages{
			validation: "Nome de arquivo inválido.",
			notFound:   msgUserMissing,
			failure:    "Erro ao salvar arquivo",
		})
		return
	}
	writeOK(w, "Upload concluído!", map[string]any{"arquivo": stored})
}

// Download handles GET /download/{filename}, sending the stored file as an
// attachment.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")

	f, err := h.FileService.Open(r.Context(), name)
	if err != nil {
		writeServiceError(w, err, errorMessages{
			validation: msgFileNotFound,
			notFound:   msgFileNotFound,
			failure:    "Erro ao abrir arquivo",
		})
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Erro ao abrir arquivo: "+err.Error())
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// List handles GET /listar_arquivos/{username}.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	names, err := h.FileService.List(r.Context(), username)
	if err != nil {
		writeServiceError(w, err, errorMessages{
			validation: msgUserMissing,
			notFound:   msgUserMissing,
			failure:    "Erro ao listar arquivos",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": statusOK, "arquivos": names})
}

// DeleteFile handles POST /deletar_arquivo.
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	var req FilenameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "Nome do arquivo não fornecido.")
		return
	}

	if err := h.FileService.Delete(r.Context(), req.Filename); err != nil {
		writeServiceError(w, err, errorMessages{
			validation: "Nome do arquivo não fornecido.",
			notFound:   msgFileNotFound,
			failure:    "Erro ao deletar arquivo",
		})
		return
	}
	writeOK(w, "Arquivo deletado com sucesso.", nil)
}

// ResetFiles handles POST /resetar_arquivos.
func (h *FileHandler) ResetFiles(w http.ResponseWriter, r *http.Request) {
	var req UsernameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	report, err := h.FileService.Reset(r.Context(), req.Username)
	if err != nil {
		writeServiceError(w, err, errorMessages{
			validation: msgUserMissing,
			notFound:   "Usuário não encontrado.",
			failure:    "Erro ao resetar arquivos",
		})
		return
	}
	writeOK(w, "Arquivos resetados com sucesso!", cleanupPayload(report))
}
