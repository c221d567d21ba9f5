package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"time"

	authinbound "github.com/likhith1253/chemicalanalyzer/internal/auth/inbound"
	datasetinbound "github.com/likhith1253/chemicalanalyzer/internal/dataset/inbound"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, msg)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, msg, strings.Join(parts, "; "))
}

// Client talks to the REST API with token authentication.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

type envelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (c *Client) Login(ctx context.Context, username, password string) (authinbound.AuthResponse, error) {
	body, err := json.Marshal(authinbound.LoginRequest{Username: username, Password: password})
	if err != nil {
		return authinbound.AuthResponse{}, err
	}

	var out envelope[authinbound.AuthResponse]
	err = c.doJSON(ctx, http.MethodPost, "/api/auth/login", bytes.NewReader(body), "application/json", &out)
	return out.Data, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, "", nil)
}

func (c *Client) Upload(ctx context.Context, filename string, content io.Reader, name string) (datasetinbound.UploadResponse, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return datasetinbound.UploadResponse{}, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return datasetinbound.UploadResponse{}, fmt.Errorf("read %s: %w", filename, err)
	}
	if name != "" {
		if err := writer.WriteField("name", name); err != nil {
			return datasetinbound.UploadResponse{}, err
		}
	}
	if err := writer.Close(); err != nil {
		return datasetinbound.UploadResponse{}, err
	}

	var out envelope[datasetinbound.UploadResponse]
	err = c.doJSON(ctx, http.MethodPost, "/api/upload", buf, writer.FormDataContentType(), &out)
	return out.Data, err
}

func (c *Client) Datasets(ctx context.Context) ([]datasetinbound.DatasetSummary, error) {
	var out envelope[[]datasetinbound.DatasetSummary]
	err := c.doJSON(ctx, http.MethodGet, "/api/datasets", nil, "", &out)
	return out.Data, err
}

func (c *Client) Dataset(ctx context.Context, id string) (datasetinbound.DatasetDetail, error) {
	var out envelope[datasetinbound.DatasetDetail]
	err := c.doJSON(ctx, http.MethodGet, "/api/datasets/"+id, nil, "", &out)
	return out.Data, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/datasets/"+id, nil, "", nil)
}

func (c *Client) Insights(ctx context.Context, id string) (datasetinbound.InsightResponse, error) {
	var out envelope[datasetinbound.InsightResponse]
	err := c.doJSON(ctx, http.MethodGet, "/api/datasets/"+id+"/insights", nil, "", &out)
	return out.Data, err
}

// Report downloads the PDF and returns the server-suggested filename.
func (c *Client) Report(ctx context.Context, id string) (string, []byte, error) {
	return c.download(ctx, "/api/datasets/"+id+"/report/pdf", fmt.Sprintf("dataset_%s_report.pdf", id))
}

// Original downloads the CSV as it was uploaded.
func (c *Client) Original(ctx context.Context, id string) (string, []byte, error) {
	return c.download(ctx, "/api/datasets/"+id+"/file", fmt.Sprintf("dataset_%s.csv", id))
}

func (c *Client) download(ctx context.Context, path, filename string) (string, []byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", path, err)
	}

	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = filepath.Base(params["filename"])
	}

	return filename, content, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do returns the response for 2xx status codes and an *APIError otherwise.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Message string            `json:"message"`
		Error   map[string]string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Message
		apiErr.Fields = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	return nil, apiErr
}
