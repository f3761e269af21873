package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/aegis-sec/aegis-analyzer/internal/config"
	"github.com/aegis-sec/aegis-analyzer/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

const maxListedFindings = 5

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor,omitempty"`
	Title      string         `json:"title"`
	Text       string         `json:"text"`
	Sections   []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendAlert delivers an alert via every configured channel
func (s *Service) SendAlert(alert *models.Alert) error {
	var errors []string

	// Send to Teams if configured
	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(alert); err != nil {
			logrus.Errorf("Failed to send Teams alert: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Sent %s alert to Teams", alert.Type)
		}
	}

	// Send via email if configured
	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(alert); err != nil {
			logrus.Errorf("Failed to send email alert: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Sent %s alert via email", alert.Type)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(alert *models.Alert) error {
	message := buildTeamsMessage(alert)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func buildTeamsMessage(alert *models.Alert) *TeamsMessage {
	message := &TeamsMessage{
		Type:       "MessageCard",
		Context:    "https://schema.org/extensions",
		ThemeColor: themeColor(alert.Type),
		Title:      alert.Title,
		Text:       alert.Message,
	}

	report := alert.Report
	if report == nil {
		return message
	}

	stats := report.Statistics
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle:    "Statistics",
		ActivitySubtitle: report.VideoURL,
		Facts: []TeamsFact{
			{Name: "Threat Level", Value: string(stats.ThreatLevel)},
			{Name: "Total Comments", Value: fmt.Sprintf("%d", stats.TotalComments)},
			{Name: "Bot Comments", Value: fmt.Sprintf("%d", stats.BotComments)},
			{Name: "Harassment Comments", Value: fmt.Sprintf("%d", stats.HarassmentComments)},
			{Name: "Copyright Violations", Value: fmt.Sprintf("%d", stats.CopyrightViolations)},
			{Name: "Analyzed", Value: report.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")},
		},
		Markdown: true,
	})

	if findings := topFindings(report); len(findings) > 0 {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Top Findings",
			ActivityText:  strings.Join(findings, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

// topFindings lists the first flagged comments, harassment before copyright
func topFindings(report *models.AnalysisReport) []string {
	var findings []string
	for _, c := range report.HarassmentComments {
		if len(findings) >= maxListedFindings {
			return findings
		}
		findings = append(findings, fmt.Sprintf("**%s** (%s, %s): %s", c.Author, c.Type, c.Severity, truncate(c.Text, 140)))
	}
	for _, v := range report.CopyrightViolations {
		if len(findings) >= maxListedFindings {
			return findings
		}
		findings = append(findings, fmt.Sprintf("**%s** (piracy, %s): %s", v.Author, v.Severity, truncate(v.Text, 140)))
	}
	return findings
}

func themeColor(alertType string) string {
	if alertType == "critical" {
		return "D13438"
	}
	return "FF8C00"
}

func (s *Service) sendEmail(alert *models.Alert) error {
	htmlBody, err := buildEmailHTML(alert)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	// Create message
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", alert.Title)
	m.SetBody("text/plain", buildEmailText(alert))
	m.AddAlternative("text/html", htmlBody)

	// Send email
	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"truncate": truncate,
}).Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #d13438; color: white; padding: 20px; border-radius: 5px; }
        .high { background-color: #ff8c00; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .finding { border-left: 4px solid #d13438; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .finding-meta { color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="header {{.Type}}">
        <h1>{{.Title}}</h1>
        <p>{{.Message}}</p>
        <p>Raised on {{.CreatedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    {{with .Report}}
    <div class="summary">
        <h2>Statistics</h2>
        <p><strong>Video:</strong> <a href="{{.VideoURL}}" target="_blank">{{.VideoID}}</a></p>
        <p><strong>Threat Level:</strong> {{.Statistics.ThreatLevel}}</p>
        <p><strong>Total Comments:</strong> {{.Statistics.TotalComments}}</p>
        <p><strong>Bot Comments:</strong> {{.Statistics.BotComments}}</p>
        <p><strong>Harassment Comments:</strong> {{.Statistics.HarassmentComments}}</p>
        <p><strong>Copyright Violations:</strong> {{.Statistics.CopyrightViolations}}</p>
    </div>

    {{if .HarassmentComments}}
    <h2>Harassment</h2>
    {{range $index, $c := .HarassmentComments}}
        {{if lt $index 10}}
        <div class="finding">
            <div class="finding-meta">{{$c.Author}} | {{$c.Type}} | {{$c.Severity}}</div>
            <p>{{truncate $c.Text 200}}</p>
        </div>
        {{end}}
    {{end}}
    {{end}}

    {{if .CopyrightViolations}}
    <h2>Copyright</h2>
    {{range $index, $v := .CopyrightViolations}}
        {{if lt $index 10}}
        <div class="finding">
            <div class="finding-meta">{{$v.Author}} | {{$v.Severity}}</div>
            <p>{{truncate $v.Text 200}}</p>
        </div>
        {{end}}
    {{end}}
    {{end}}

    <pre>{{.Conclusion}}</pre>
    {{end}}

    <hr>
    <p><small>This alert was generated automatically by the Aegis watch list.</small></p>
</body>
</html>
`))

func buildEmailHTML(alert *models.Alert) (string, error) {
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, alert); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildEmailText(alert *models.Alert) string {
	var text strings.Builder

	text.WriteString(alert.Title + "\n")
	text.WriteString(fmt.Sprintf("Raised: %s\n\n", alert.CreatedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	text.WriteString(alert.Message + "\n")

	if report := alert.Report; report != nil {
		stats := report.Statistics
		text.WriteString("\nSTATISTICS\n")
		text.WriteString("==========\n")
		text.WriteString(fmt.Sprintf("Video: %s\n", report.VideoURL))
		text.WriteString(fmt.Sprintf("Threat Level: %s\n", stats.ThreatLevel))
		text.WriteString(fmt.Sprintf("Total Comments: %d\n", stats.TotalComments))
		text.WriteString(fmt.Sprintf("Bot Comments: %d\n", stats.BotComments))
		text.WriteString(fmt.Sprintf("Harassment Comments: %d\n", stats.HarassmentComments))
		text.WriteString(fmt.Sprintf("Copyright Violations: %d\n", stats.CopyrightViolations))

		if report.Conclusion != "" {
			text.WriteString("\nCONCLUSION\n")
			text.WriteString("==========\n")
			text.WriteString(report.Conclusion + "\n")
		}
	}

	text.WriteString("\n---\nThis alert was generated automatically by the Aegis watch list.\n")

	return text.String()
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
