// Package notify sends best-effort run notifications to organization owners.
package notify

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/creator-tracker/video-sync-go/internal/config"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

// OrgReport is the per-organization slice of a run handed to the mailer.
type OrgReport struct {
	RunID           string
	OrganizationID  string
	Accounts        int
	VideosAdded     int
	VideosRefreshed int
	FailedAccounts  []string
}

// Mailer delivers organization run reports over SMTP. Delivery failures are
// logged, never propagated: notification must not affect run outcome.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	enabled bool
}

// NewMailer creates a Mailer from the mail configuration. A disabled
// configuration yields a mailer whose Send is a no-op.
func NewMailer(cfg config.MailConfig) *Mailer {
	m := &Mailer{from: cfg.From, enabled: cfg.Enabled}
	if cfg.Enabled {
		m.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return m
}

// Send mails the run report to the organization's notify address.
func (m *Mailer) Send(to string, report OrgReport) {
	if m == nil || !m.enabled || to == "" {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Video sync run %s", report.RunID))
	msg.SetBody("text/plain", renderReport(report))

	if err := m.dialer.DialAndSend(msg); err != nil {
		logger.Log.Warn("failed to send run notification",
			zap.String("org", report.OrganizationID),
			zap.String("to", to),
			zap.Error(err),
		)
	}
}

func renderReport(report OrgReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sync run %s for organization %s\n\n", report.RunID, report.OrganizationID)
	fmt.Fprintf(&b, "Accounts processed: %d\n", report.Accounts)
	fmt.Fprintf(&b, "Videos added:       %d\n", report.VideosAdded)
	fmt.Fprintf(&b, "Videos refreshed:   %d\n", report.VideosRefreshed)
	if len(report.FailedAccounts) > 0 {
		fmt.Fprintf(&b, "\nFailed accounts (%d):\n", len(report.FailedAccounts))
		for _, name := range report.FailedAccounts {
			fmt.Fprintf(&b, "  - %s\n", name)
		}
	}
	return b.String()
}
