package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/certportal/internal/client/client"
	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/dmitrijs2005/certportal/internal/client/upload"
	"github.com/dmitrijs2005/certportal/internal/logging"
)

// CertificateAPI is the part of the backend used by CertificateService.
type CertificateAPI interface {
	MyCertificates(ctx context.Context) ([]models.Certificate, error)
	UploadCertificate(ctx context.Context, u client.Upload) (*client.UploadResponse, error)
}

// CertificateService lists and uploads the signed-in user's certificates.
type CertificateService struct {
	api  CertificateAPI
	sess EpochSource
	log  logging.Logger
}

func NewCertificateService(api CertificateAPI, sess EpochSource, log logging.Logger) *CertificateService {
	return &CertificateService{api: api, sess: sess, log: log.With("component", "certificates")}
}

// MyCertificates returns the caller's certificates, newest first as the
// backend orders them.
func (s *CertificateService) MyCertificates(ctx context.Context) ([]models.Certificate, error) {
	certs, err := bind(ctx, s.sess, s.api.MyCertificates)
	if err != nil {
		return nil, err
	}
	return certs, nil
}

// Upload validates the file at path and sends it. Nothing reaches the
// network unless validation passes.
func (s *CertificateService) Upload(ctx context.Context, path string) (*client.UploadResponse, error) {
	f, err := upload.Inspect(path)
	if err != nil {
		return nil, err
	}

	fh, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	s.log.Info(ctx, "uploading certificate", "file", f.Name, "type", f.ContentType, "size", f.Size)

	resp, err := bind(ctx, s.sess, func(ctx context.Context) (*client.UploadResponse, error) {
		return s.api.UploadCertificate(ctx, client.Upload{
			FileName:    f.Name,
			ContentType: f.ContentType,
			Body:        fh,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", f.Name, err)
	}
	if resp == nil {
		resp = &client.UploadResponse{}
	}
	if resp.Message == "" {
		resp.Message = MsgUploaded
	}
	return resp, nil
}
