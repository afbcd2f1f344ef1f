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
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/dmitrijs2005/certportal/internal/logging"
)

// UploadFieldName is the multipart field the upload endpoint reads.
const UploadFieldName = "certificate"

// HTTPClient implements Client over JSON/HTTP.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	log     logging.Logger
}

// NewHTTPClient builds a client for the API rooted at baseURL
// (e.g. "http://127.0.0.1:5000/api"). Every request goes through a
// transport that attaches the token from tokens.
func NewHTTPClient(baseURL string, tokens TokenSource, timeout time.Duration, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	log = log.With("component", "api")

	return &HTTPClient{
		baseURL: u,
		http: &http.Client{
			Timeout:   timeout,
			Transport: &accessTokenTransport{base: http.DefaultTransport, tokens: tokens, log: log},
		},
		log: log,
	}, nil
}

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// maxResponseBody caps how much of a 2xx body is read.
const maxResponseBody = 4 << 20

// send performs req and returns the body of a 2xx response. Other
// statuses become *APIError, transport failures ErrUnavailable.
func (c *HTTPClient) send(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := mapResponseError(resp)
		c.log.Debug(req.Context(), "api error", "path", req.URL.Path, "status", resp.StatusCode, "error", apiErr)
		return nil, apiErr
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return b, nil
}

// do sends req and decodes a 2xx JSON body into out (which may be nil).
func (c *HTTPClient) do(req *http.Request, out any) error {
	b, err := c.send(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *HTTPClient) Me(ctx context.Context) (*models.User, error) {
	var resp struct {
		User *models.User `json:"user"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("%w: no user in /auth/me response", ErrMalformedResponse)
	}
	return resp.User, nil
}

func (c *HTTPClient) authenticate(ctx context.Context, path string, in any) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, path, nil, in, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.User == nil {
		return nil, fmt.Errorf("%w: token or user missing in %s response", ErrMalformedResponse, path)
	}
	return &resp, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *HTTPClient) Register(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	})
}

func (c *HTTPClient) MyCertificates(ctx context.Context) ([]models.Certificate, error) {
	var resp struct {
		Certificates []models.Certificate `json:"certificates"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/certificates/my-certificates", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Certificates, nil
}

func (c *HTTPClient) UploadCertificate(ctx context.Context, u Upload) (*UploadResponse, error) {
	if u.Body == nil {
		return nil, errors.New("upload: nil body")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadFieldName, u.FileName))
	contentType := u.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, u.Body); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/certificates/upload", nil), &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	// Any 2xx means the file was stored. The body is only an optional
	// acknowledgement, so an empty or unreadable one is not an error.
	b, err := c.send(req)
	if err != nil {
		return nil, err
	}

	var resp UploadResponse
	if len(bytes.TrimSpace(b)) > 0 {
		if err := json.Unmarshal(b, &resp); err != nil {
			c.log.Debug(ctx, "upload acknowledged without a JSON body", "error", err)
			resp = UploadResponse{}
		}
	}
	return &resp, nil
}

func (c *HTTPClient) AdminCertificates(ctx context.Context, page, limit int) (*models.CertificatePage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var resp models.CertificatePage
	if err := c.doJSON(ctx, http.MethodGet, "/admin/certificates", q, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Pagination.Page == 0 {
		resp.Pagination.Page = page
	}
	if resp.Pagination.Limit == 0 {
		resp.Pagination.Limit = limit
	}
	return &resp, nil
}

func (c *HTTPClient) AdminStats(ctx context.Context) (*models.Stats, error) {
	var resp struct {
		Stats *models.Stats `json:"stats"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/admin/stats", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Stats == nil {
		return nil, fmt.Errorf("%w: no stats in /admin/stats response", ErrMalformedResponse)
	}
	return resp.Stats, nil
}

// certificatePath builds /admin/certificates/{id}/{action}. The id must be
// a single non-dot path segment; anything else would address a different
// resource once the server cleans the path.
func certificatePath(id, action string) (string, error) {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, "/\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return "/admin/certificates/" + id + "/" + action, nil
}

func (c *HTTPClient) VerifyCertificate(ctx context.Context, id string) error {
	path, err := certificatePath(id, "verify")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPatch, path, nil, nil, nil)
}

func (c *HTTPClient) RejectCertificate(ctx context.Context, id, reason string) error {
	path, err := certificatePath(id, "reject")
	if err != nil {
		return err
	}
	body := map[string]string{"reason": reason}
	return c.doJSON(ctx, http.MethodPatch, path, nil, body, nil)
}
