package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/trendscope/skilltrends/internal/config"
	"github.com/trendscope/skilltrends/internal/models"
)

// Service delivers collection summaries via webhook and/or email, whichever
// channels are configured. Delivery is best-effort: a failed channel is
// logged and reported, it never affects stored data.
type Service struct {
	config *config.Config
	client *resty.Client
}

var _ Notifier = (*Service)(nil)

// WebhookMessage is the MessageCard payload posted to the report webhook.
type WebhookMessage struct {
	Type     string           `json:"@type"`
	Context  string           `json:"@context"`
	Title    string           `json:"title"`
	Text     string           `json:"text"`
	Sections []WebhookSection `json:"sections,omitempty"`
}

type WebhookSection struct {
	ActivityTitle string        `json:"activityTitle,omitempty"`
	Facts         []WebhookFact `json:"facts,omitempty"`
	Markdown      bool          `json:"markdown,omitempty"`
}

type WebhookFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a notification service.
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendReport sends the summary through every configured channel.
func (s *Service) SendReport(report *models.CollectionReport) error {
	var errs []string

	if s.config.ReportWebhookURL != "" {
		if err := s.sendToWebhook(report); err != nil {
			logrus.Errorf("Failed to send webhook notification: %v", err)
			errs = append(errs, fmt.Sprintf("webhook: %v", err))
		} else {
			logrus.Info("Successfully sent report to webhook")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(report); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errs = append(errs, fmt.Sprintf("email: %v", err))
		} else {
			logrus.Info("Successfully sent report via email")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (s *Service) sendToWebhook(report *models.CollectionReport) error {
	message := s.buildWebhookMessage(report)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.ReportWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to post webhook message: %w", err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildWebhookMessage(report *models.CollectionReport) *WebhookMessage {
	message := &WebhookMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Skill Trend Collection - %s", strings.Title(report.Period)),
		Text: fmt.Sprintf("Collected %d jobs and %d discussions",
			report.JobsFetched, report.DiscussionsFetched),
	}

	message.Sections = append(message.Sections, WebhookSection{
		ActivityTitle: "Storage Summary",
		Markdown:      true,
		Facts: []WebhookFact{
			{Name: "Generated", Value: report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
			{Name: "Jobs Inserted", Value: fmt.Sprintf("%d (skipped %d, errors %d)",
				report.Jobs.Inserted, report.Jobs.Skipped, report.Jobs.Errors)},
			{Name: "Discussions Inserted", Value: fmt.Sprintf("%d (skipped %d, errors %d)",
				report.Discussions.Inserted, report.Discussions.Skipped, report.Discussions.Errors)},
		},
	})

	return message
}

func (s *Service) sendEmail(report *models.CollectionReport) error {
	subject := fmt.Sprintf("Skill Trend Collection - %s (%d jobs, %d discussions)",
		strings.Title(report.Period), report.JobsFetched, report.DiscussionsFetched)

	htmlBody, err := s.buildEmailHTML(report)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", s.buildEmailText(report))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildEmailHTML(report *models.CollectionReport) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Skill Trend Collection Report</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #2d6cdf; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        table { border-collapse: collapse; }
        td, th { padding: 6px 12px; border: 1px solid #ddd; text-align: left; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Skill Trend Collection Report</h1>
        <p>{{.Period | title}} cycle completed on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Storage Summary</h2>
        <table>
            <tr><th></th><th>Fetched</th><th>Inserted</th><th>Skipped</th><th>Errors</th></tr>
            <tr><td>Jobs</td><td>{{.JobsFetched}}</td><td>{{.Jobs.Inserted}}</td><td>{{.Jobs.Skipped}}</td><td>{{.Jobs.Errors}}</td></tr>
            <tr><td>Discussions</td><td>{{.DiscussionsFetched}}</td><td>{{.Discussions.Inserted}}</td><td>{{.Discussions.Skipped}}</td><td>{{.Discussions.Errors}}</td></tr>
        </table>
    </div>

    {{if .Jobs.ErrorSamples}}
    <h3>Job Storage Errors (sample)</h3>
    <ul>{{range .Jobs.ErrorSamples}}<li>{{.}}</li>{{end}}</ul>
    {{end}}

    {{if .Discussions.ErrorSamples}}
    <h3>Discussion Storage Errors (sample)</h3>
    <ul>{{range .Discussions.ErrorSamples}}<li>{{.}}</li>{{end}}</ul>
    {{end}}

    <hr>
    <p><small>This report was generated automatically by the skill trend collection service.</small></p>
</body>
</html>
`

	t := template.New("email").Funcs(template.FuncMap{
		"title": strings.Title,
	})

	t, err := t.Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, report); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(report *models.CollectionReport) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Skill Trend Collection Report - %s\n", strings.Title(report.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Jobs: %d fetched, %d inserted, %d skipped, %d errors\n",
		report.JobsFetched, report.Jobs.Inserted, report.Jobs.Skipped, report.Jobs.Errors))
	text.WriteString(fmt.Sprintf("Discussions: %d fetched, %d inserted, %d skipped, %d errors\n",
		report.DiscussionsFetched, report.Discussions.Inserted, report.Discussions.Skipped, report.Discussions.Errors))

	for _, sample := range report.Jobs.ErrorSamples {
		text.WriteString(fmt.Sprintf("  job error: %s\n", sample))
	}
	for _, sample := range report.Discussions.ErrorSamples {
		text.WriteString(fmt.Sprintf("  discussion error: %s\n", sample))
	}

	text.WriteString("\n---\nThis report was generated automatically by the skill trend collection service.\n")

	return text.String()
}
