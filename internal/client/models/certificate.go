package models

import (
	"encoding/json"
	"time"
)

// FileType is the kind of uploaded certificate file.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeImage FileType = "image"
)

// Status is the review state of a certificate.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Label is the human-readable status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusVerified:
		return "Verified"
	case StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// Certificate is an uploaded vaccination certificate.
//
// Owner is the uploader's user id, or their email when the backend
// populates the user reference (admin listings do).
type Certificate struct {
	ID              string    `json:"id"`
	FileName        string    `json:"fileName"`
	FileType        FileType  `json:"fileType"`
	Status          Status    `json:"status"`
	RejectionReason string    `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	Owner           string    `json:"-"`
}

type certificateOwner struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (c *Certificate) UnmarshalJSON(b []byte) error {
	type alias Certificate
	aux := struct {
		*alias
		MongoID string          `json:"_id"`
		UserID  json.RawMessage `json:"userId"`
		Email   string          `json:"email"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.MongoID
	}

	c.Owner = aux.Email
	if len(aux.UserID) > 0 && string(aux.UserID) != "null" {
		var id string
		if err := json.Unmarshal(aux.UserID, &id); err == nil {
			c.Owner = id
		} else {
			var o certificateOwner
			if err := json.Unmarshal(aux.UserID, &o); err != nil {
				return err
			}
			switch {
			case o.Email != "":
				c.Owner = o.Email
			case o.ID != "":
				c.Owner = o.ID
			}
		}
	}
	return nil
}

// HasVerified reports whether any certificate in certs is verified.
func HasVerified(certs []Certificate) bool {
	for _, c := range certs {
		if c.Status == StatusVerified {
			return true
		}
	}
	return false
}

// Stats are aggregate counts over all certificates.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Verified int `json:"verified"`
	Rejected int `json:"rejected"`
}

// Pagination describes a page of an admin listing.
type Pagination struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// CertificatePage is one page of the admin certificate listing.
type CertificatePage struct {
	Certificates []Certificate `json:"certificates"`
	Pagination   Pagination    `json:"pagination"`
}
