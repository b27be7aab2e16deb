package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/vovakirdan/portfolio-server/internal/store"
)

const submissionHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 10px;">
  <h2 style="color: #00FFFF; text-align: center;">New Contact Form Submission</h2>
  <hr style="border: 1px solid #00FFFF; margin: 20px 0;">
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 10px 0;"><strong>Name:</strong> {{.Name}}</div>
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 10px 0;"><strong>Email:</strong> {{.Email}}</div>
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 10px 0;"><strong>Message:</strong><br>
    {{range $i, $line := lines .Message}}{{if $i}}<br>{{end}}{{$line}}{{end}}
  </div>
  <div style="background-color: #e9ecef; padding: 15px; border-radius: 5px; margin: 10px 0;"><strong>Received:</strong> {{.Timestamp}}</div>
  {{if .IPAddress}}<div style="background-color: #e9ecef; padding: 15px; border-radius: 5px; margin: 10px 0;"><strong>IP:</strong> {{.IPAddress}}</div>{{end}}
  <hr style="border: 1px solid #00FFFF; margin: 20px 0;">
  <p style="text-align: center; color: #666;">This notification was sent from your portfolio website.</p>
</div>
`

const testHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #ddd; border-radius: 10px;">
  <h2 style="color: #00FFFF; text-align: center;">Email Configuration Test</h2>
  <hr style="border: 1px solid #00FFFF; margin: 20px 0;">
  <div style="background-color: #d4edda; padding: 15px; border-radius: 5px; margin: 10px 0; border: 1px solid #c3e6cb;"><strong>SUCCESS!</strong> Your email configuration is working correctly.</div>
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 10px 0;"><strong>From:</strong> {{.From}}</div>
  <div style="background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin: 10px 0;"><strong>Test Time:</strong> {{.At}}</div>
  <hr style="border: 1px solid #00FFFF; margin: 20px 0;">
  <p style="text-align: center; color: #666;">Your portfolio contact form will now send email notifications successfully!</p>
</div>
`

const testSubject = "Portfolio Email Test - SUCCESS!"

var (
	funcs = template.FuncMap{
		"lines": func(s string) []string {
			return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
		},
	}
	submissionTmpl = template.Must(template.New("submission").Funcs(funcs).Parse(submissionHTML))
	testTmpl       = template.Must(template.New("test").Parse(testHTML))
)

// SubmissionSubject is the subject line for a submission notice.
func SubmissionSubject(sub store.Submission) string {
	return "New Portfolio Contact: " + sub.Name
}

// RenderSubmission renders the HTML body for a submission notice.
// User-supplied fields are HTML-escaped.
func RenderSubmission(sub store.Submission) (string, error) {
	var buf bytes.Buffer
	if err := submissionTmpl.Execute(&buf, sub); err != nil {
		return "", fmt.Errorf("render submission email: %w", err)
	}
	return buf.String(), nil
}

// RenderTest renders the HTML body for a configuration test email.
func RenderTest(from string, at time.Time) (string, error) {
	var buf bytes.Buffer
	data := struct {
		From string
		At   string
	}{From: from, At: at.UTC().Format(time.RFC1123)}
	if err := testTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render test email: %w", err)
	}
	return buf.String(), nil
}
