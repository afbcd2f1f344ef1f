package client

import (
	"context"
	"io"

	"github.com/dmitrijs2005/certportal/internal/client/models"
)

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// UploadResponse acknowledges an upload. Certificate is set when the
// backend echoes the created record.
type UploadResponse struct {
	Message     string              `json:"message"`
	Certificate *models.Certificate `json:"certificate,omitempty"`
}

// Upload is a file ready to be sent to the upload endpoint.
type Upload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// Client is the portal REST API as the client uses it.
type Client interface {
	Me(ctx context.Context) (*models.User, error)
	Login(ctx context.Context, email, password string) (*AuthResponse, error)
	Register(ctx context.Context, email, password, name string) (*AuthResponse, error)

	MyCertificates(ctx context.Context) ([]models.Certificate, error)
	UploadCertificate(ctx context.Context, u Upload) (*UploadResponse, error)

	AdminCertificates(ctx context.Context, page, limit int) (*models.CertificatePage, error)
	AdminStats(ctx context.Context) (*models.Stats, error)
	VerifyCertificate(ctx context.Context, id string) error
	RejectCertificate(ctx context.Context, id, reason string) error
}
