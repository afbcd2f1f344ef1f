package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/certportal/internal/client/models"
	"github.com/dmitrijs2005/certportal/internal/logging"
)

// AdminPageSize is the number of certificates per admin page.
const AdminPageSize = 10

// AdminAPI is the part of the backend used by AdminService.
type AdminAPI interface {
	AdminCertificates(ctx context.Context, page, limit int) (*models.CertificatePage, error)
	AdminStats(ctx context.Context) (*models.Stats, error)
	VerifyCertificate(ctx context.Context, id string) error
	RejectCertificate(ctx context.Context, id, reason string) error
}

// AdminService reviews certificates across all users. The backend enforces
// the admin role; the client only hides the commands from other roles.
type AdminService struct {
	api  AdminAPI
	sess EpochSource
	log  logging.Logger
}

func NewAdminService(api AdminAPI, sess EpochSource, log logging.Logger) *AdminService {
	return &AdminService{api: api, sess: sess, log: log.With("component", "admin")}
}

// List returns one page of certificates. Pages are numbered from 1.
func (s *AdminService) List(ctx context.Context, page int) (*models.CertificatePage, error) {
	if page < 1 {
		page = 1
	}
	return bind(ctx, s.sess, func(ctx context.Context) (*models.CertificatePage, error) {
		return s.api.AdminCertificates(ctx, page, AdminPageSize)
	})
}

func (s *AdminService) Stats(ctx context.Context) (*models.Stats, error) {
	return bind(ctx, s.sess, s.api.AdminStats)
}

// Verify marks a certificate verified.
func (s *AdminService) Verify(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := bind(ctx, s.sess, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.VerifyCertificate(ctx, id)
	})
	if err == nil {
		s.log.Info(ctx, "certificate verified", "id", id)
	}
	return err
}

// Reject marks a certificate rejected. A blank reason is replaced with
// DefaultRejectText.
func (s *AdminService) Reject(ctx context.Context, id, reason string) error {
	if err := checkID(id); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultRejectText
	}
	_, err := bind(ctx, s.sess, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.api.RejectCertificate(ctx, id, reason)
	})
	if err == nil {
		s.log.Info(ctx, "certificate rejected", "id", id, "reason", reason)
	}
	return err
}
