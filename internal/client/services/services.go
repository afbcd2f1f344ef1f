// Package services contains the certificate and admin operations of the
// client. Every call is bound to the session epoch current when it
// started: if the user logs in, out, or switches identity while the
// request is in flight, the response is dropped and session.ErrStale is
// returned instead.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/certportal/internal/client/session"
	"github.com/go-playground/validator/v10"
)

// User-facing texts. Failure texts are fallbacks used when the backend
// gives no message of its own.
const (
	MsgUploaded       = "Certificate uploaded successfully! It will be reviewed by an admin."
	MsgUploadFailed   = "Error uploading certificate"
	MsgVerified       = "Certificate verified successfully!"
	MsgVerifyFailed   = "Error verifying certificate"
	MsgRejected       = "Certificate rejected successfully!"
	MsgRejectFailed   = "Error rejecting certificate"
	MsgHasVerified    = "Your certificate has been verified successfully!"
	DefaultRejectText = "Certificate rejected by admin"
)

// ErrInvalidID is returned for certificate ids that are not a plain
// alphanumeric token, such as a database object id.
var ErrInvalidID = errors.New("invalid certificate id")

// EpochSource reports the current session epoch. *session.Store is one.
type EpochSource interface {
	Epoch() uint64
}

// bind runs call and discards its outcome when the epoch moved meanwhile.
func bind[T any](ctx context.Context, sess EpochSource, call func(ctx context.Context) (T, error)) (T, error) {
	started := sess.Epoch()
	res, err := call(ctx)
	if sess.Epoch() != started {
		var zero T
		return zero, session.ErrStale
	}
	return res, err
}

var validate = validator.New()

func checkID(id string) error {
	if err := validate.Var(id, "required,alphanum"); err != nil {
		return ErrInvalidID
	}
	return nil
}
