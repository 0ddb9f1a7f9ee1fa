// Package client implements a Go client for the account and file storage API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atinyakov/accvault/internal/models"
)

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// envelope is the common response body of every JSON endpoint.
type envelope struct {
	Message  string               `json:"mensagem"`
	Status   string               `json:"status"`
	File     string               `json:"arquivo"`
	Files    []string             `json:"arquivos"`
	Data     *models.Account      `json:"dados"`
	Failures []models.FileFailure `json:"falhas"`
}

// Client talks to the server over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client for baseURL. A nil httpClient gets a default one with
// a request timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, in models.Registration) (string, error) {
	env, err := c.postJSON(ctx, "/enviar", in)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Login checks the credentials and returns the account details.
func (c *Client) Login(ctx context.Context, username, password string) (*models.Account, error) {
	env, err := c.postJSON(ctx, "/login", map[string]string{
		"NomeUsuario":  username,
		"SenhaUsuario": password,
	})
	if err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, errors.New("invalid response: missing account data")
	}
	return env.Data, nil
}

// ChangePassword sets a new password for the accounts registered with email.
func (c *Client) ChangePassword(ctx context.Context, email, newPassword string) error {
	_, err := c.postJSON(ctx, "/trocar_senha", map[string]string{"Email": email, "NovaSenha": newPassword})
	return err
}

// ChangeName sets a new full name for the accounts registered with email.
func (c *Client) ChangeName(ctx context.Context, email, newName string) error {
	_, err := c.postJSON(ctx, "/trocar_nome", map[string]string{"Email": email, "NovoNome": newName})
	return err
}

// DeleteAccount removes the account and its files. It returns the files the
// server could not remove.
func (c *Client) DeleteAccount(ctx context.Context, username string) ([]models.FileFailure, error) {
	env, err := c.postJSON(ctx, "/deletar_conta", map[string]string{"NomeUsuario": username})
	if err != nil {
		return nil, err
	}
	return env.Failures, nil
}

// ResetFiles replaces the user's files with the default set. It returns the
// files the server could not remove.
func (c *Client) ResetFiles(ctx context.Context, username string) ([]models.FileFailure, error) {
	env, err := c.postJSON(ctx, "/resetar_arquivos", map[string]string{"NomeUsuario": username})
	if err != nil {
		return nil, err
	}
	return env.Failures, nil
}

// DeleteFile removes a stored file by its stored name.
func (c *Client) DeleteFile(ctx context.Context, storedName string) error {
	_, err := c.postJSON(ctx, "/deletar_arquivo", map[string]string{"filename": storedName})
	return err
}

// ListFiles returns the stored names of the user's files.
func (c *Client) ListFiles(ctx context.Context, username string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/listar_arquivos/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, err
	}
	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return env.Files, nil
}

// Upload sends content as name on behalf of username and returns the stored name.
func (c *Client) Upload(ctx context.Context, username, name string, content io.Reader) (string, error) {
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	if err := mw.WriteField("NomeUsuario", username); err != nil {
		return "", err
	}
	part, err := mw.CreateFormFile("arquivo", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	env, err := c.do(req)
	if err != nil {
		return "", err
	}
	return env.File, nil
}

// Download writes the stored file to w.
func (c *Client) Download(ctx context.Context, storedName string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/download/"+url.PathEscape(storedName), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read download: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return &env, nil
}

// decodeError builds an APIError from the envelope message, falling back to
// the raw body.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var env envelope
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &env); err == nil && env.Message != "" {
		msg = env.Message
	}
	if msg == "" {
		msg = "Erro desconhecido"
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
