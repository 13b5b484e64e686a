package mailer

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/yasinhessnawi1/Natours_Backend/internal/constants"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var subjects = map[string]string{
	constants.MailTemplateWelcome:       "Welcome to the Natours Family!",
	constants.MailTemplatePasswordReset: "Your password reset token (valid for only 10 minutes)",
}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
)

// Rendered is a ready-to-send email body.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// Render produces the subject, text and HTML bodies of a job.
func Render(job *Job) (*Rendered, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, job.Template+".txt.tmpl", job.Data); err != nil {
		return nil, fmt.Errorf("failed to render %s text: %w", job.Template, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, job.Template+".html.tmpl", job.Data); err != nil {
		return nil, fmt.Errorf("failed to render %s html: %w", job.Template, err)
	}

	return &Rendered{
		Subject: subjects[job.Template],
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
