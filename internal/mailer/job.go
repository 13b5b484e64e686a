// Package mailer queues transactional emails and delivers them from a worker.
package mailer

import (
	"errors"
	"net/http"
	"strings"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

// Job is one email waiting to be rendered and sent.
type Job struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data"`
}

// ErrInvalidJob marks jobs that can never be delivered.
var ErrInvalidJob = errors.New("invalid email job")

// ErrRejected marks sends the provider refused for good, such as a
// malformed recipient address.
var ErrRejected = errors.New("rejected by mail provider")

// rejectedStatus reports whether a provider status will not change on retry.
// Credential and throttling statuses are left to retry so mail survives an
// operator fixing the account.
func rejectedStatus(code int) bool {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return code >= http.StatusBadRequest && code < http.StatusInternalServerError
}

// Validate checks that the job can be rendered.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.To) == "" {
		return errors.Join(ErrInvalidJob, errors.New("missing recipient"))
	}
	if _, ok := subjects[j.Template]; !ok {
		return errors.Join(ErrInvalidJob, errors.New("unknown template "+j.Template))
	}
	return nil
}

// firstName returns the first word of a full name.
func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}

// WelcomeJob greets a new user and links to their account page.
func WelcomeJob(email, name, accountURL string) *Job {
	return &Job{
		To:       email,
		Template: constants.MailTemplateWelcome,
		Data: map[string]string{
			"FirstName": firstName(name),
			"URL":       accountURL,
		},
	}
}

// PasswordResetJob carries the one-time reset link.
func PasswordResetJob(email, name, resetURL string) *Job {
	return &Job{
		To:       email,
		Template: constants.MailTemplatePasswordReset,
		Data: map[string]string{
			"FirstName": firstName(name),
			"URL":       resetURL,
		},
	}
}
