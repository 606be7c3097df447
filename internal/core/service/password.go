package service

import (
	"context"
	"net/http"
	"net/url"

	"github.com/yndnr/x2conn/internal/connection"
	"github.com/yndnr/x2conn/internal/core/domain"
)

type passwordResetRequest struct {
	Application string `json:"application"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// SendPasswordReset asks the API to mail a reset link for email.
func (m *Manager) SendPasswordReset(ctx context.Context, email, application string) error {
	_, err := m.do(ctx, http.MethodPost, PathSendPasswordReset+url.PathEscape(email),
		[]connection.RequestOption{connection.WithJSON(passwordResetRequest{Application: application})})
	return err
}

// ResetPassword sets a new password using the token from a reset link.
func (m *Manager) ResetPassword(ctx context.Context, newPassword, resetToken string) error {
	_, err := m.do(ctx, http.MethodPost, PathResetPassword+url.PathEscape(resetToken),
		[]connection.RequestOption{connection.WithJSON(resetPasswordRequest{NewPassword: newPassword})})
	return err
}

// UpdatePassword changes the password of a logged-in user.
func (m *Manager) UpdatePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	if !m.IsAuthenticated() {
		return domain.ErrUnauthenticated
	}
	_, err := m.do(ctx, http.MethodPost, PathUpdatePassword+url.PathEscape(email),
		[]connection.RequestOption{connection.WithJSON(updatePasswordRequest{
			CurrentPassword: currentPassword,
			NewPassword:     newPassword,
		})})
	return err
}
