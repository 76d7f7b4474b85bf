package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/johndauphine/db-utility/internal/config"
)

const (
	colorSuccess = "#36a64f"
	colorWarning = "#ffc107"
	colorFailure = "#dc3545"

	defaultUsername = "db-utility"
	maxErrorLength  = 500
)

// Notifier posts run outcomes to a Slack incoming webhook.
type Notifier struct {
	config     *config.SlackConfig
	appName    string
	httpClient *http.Client
}

// SlackMessage represents a Slack webhook message
type SlackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text,omitempty"`
	Attachments []SlackAttachment `json:"attachments,omitempty"`
}

// SlackAttachment represents a Slack message attachment
type SlackAttachment struct {
	Color      string       `json:"color,omitempty"`
	Title      string       `json:"title,omitempty"`
	Text       string       `json:"text,omitempty"`
	Fields     []SlackField `json:"fields,omitempty"`
	Footer     string       `json:"footer,omitempty"`
	FooterIcon string       `json:"footer_icon,omitempty"`
	Timestamp  int64        `json:"ts,omitempty"`
}

// SlackField represents a field in a Slack attachment
type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// New creates a notifier. appName names the application in message text.
// A nil cfg yields a disabled notifier.
func New(cfg *config.SlackConfig, appName string) *Notifier {
	if cfg == nil {
		cfg = &config.SlackConfig{}
	}
	return &Notifier{
		config:     cfg,
		appName:    appName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled returns true if notifications are enabled
func (n *Notifier) IsEnabled() bool {
	return n.config.Enabled && n.config.WebhookURL != ""
}

// OperationCompleted posts a success summary. Runs that skipped statements
// are reported in the warning color.
func (n *Notifier) OperationCompleted(runID string, summary Summary, duration time.Duration) error {
	if !n.IsEnabled() {
		return nil
	}

	text := fmt.Sprintf("%s completed on %s. %d tables, %s rows.",
		actionTitle(summary.Action), n.appName, summary.Tables, humanize.Comma(summary.Rows))
	att := n.attachment(colorSuccess, runID, duration)
	emoji := ":white_check_mark:"
	if summary.Warnings > 0 {
		text += fmt.Sprintf(" %d statements were skipped.", summary.Warnings)
		att.Color, emoji = colorWarning, ":warning:"
	}

	att.Fields = append(att.Fields,
		SlackField{Title: "Tables", Value: strconv.Itoa(summary.Tables), Short: true},
		SlackField{Title: "Rows", Value: humanize.Comma(summary.Rows), Short: true},
	)
	if summary.File != "" {
		att.Fields = append(att.Fields, SlackField{Title: "File", Value: summary.File})
	}

	return n.send(n.message(emoji, text, att))
}

// OperationFailed posts the failure of action with its (truncated) error.
func (n *Notifier) OperationFailed(runID, action string, err error, duration time.Duration) error {
	if !n.IsEnabled() {
		return nil
	}

	att := n.attachment(colorFailure, runID, duration)
	att.Title = fmt.Sprintf("%s Failed on %s", actionTitle(action), n.appName)
	att.Fields = append(att.Fields, SlackField{Title: "Error", Value: truncate(err)})

	return n.send(n.message(":x:", "", att))
}

// attachment starts an attachment carrying the run id and duration fields.
func (n *Notifier) attachment(color, runID string, duration time.Duration) SlackAttachment {
	return SlackAttachment{
		Color: color,
		Fields: []SlackField{
			{Title: "Run ID", Value: runID, Short: true},
			{Title: "Duration", Value: formatDuration(duration), Short: true},
		},
		Footer:    defaultUsername,
		Timestamp: time.Now().Unix(),
	}
}

func (n *Notifier) message(emoji, text string, att SlackAttachment) SlackMessage {
	username := n.config.Username
	if username == "" {
		username = defaultUsername
	}
	return SlackMessage{
		Channel:     n.config.Channel,
		Username:    username,
		IconEmoji:   emoji,
		Text:        text,
		Attachments: []SlackAttachment{att},
	}
}

func (n *Notifier) send(msg SlackMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	resp, err := n.httpClient.Post(n.config.WebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sending to Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack returned status %d", resp.StatusCode)
	}
	return nil
}

func actionTitle(action string) string {
	switch action {
	case "backup":
		return "Backup"
	case "restore":
		return "Restore"
	case "migrate-sqlite":
		return "SQLite migration"
	}
	return action
}

func truncate(err error) string {
	if err == nil {
		return "Unknown error"
	}
	msg := err.Error()
	if len(msg) > maxErrorLength {
		return msg[:maxErrorLength] + "..."
	}
	return msg
}

// formatDuration renders d as "1h 2m 3s", dropping leading zero units.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
