// Package notify emails audit outcomes to operators. The audit run never
// fails because of a notification problem; callers log notifier errors and
// carry on.
package notify

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	apperrors "github.com/telaudit/pbxaudit/internal/errors"
	"github.com/telaudit/pbxaudit/internal/logger"
	"github.com/telaudit/pbxaudit/pkg/config"
	"github.com/telaudit/pbxaudit/pkg/types"
)

// Notifier delivers audit outcomes. Implementations must be safe to call
// with a fully-populated change set or a first-run one.
type Notifier interface {
	// ChangeReport sends the daily report. attachmentPath may be empty when
	// no rendered report exists.
	ChangeReport(cs *types.ChangeSet, attachmentPath string) error
	// Failure reports an aborted audit run to the error recipients.
	Failure(date string, runErr error) error
}

// sender abstracts gomail's dialer so tests can capture messages without an
// SMTP server.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier sends reports over SMTP.
type EmailNotifier struct {
	cfg  config.EmailConfig
	log  logger.Logger
	send sender
}

// NewEmailNotifier builds a notifier from the email configuration.
func NewEmailNotifier(cfg config.EmailConfig, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:  cfg,
		log:  log,
		send: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
	}
}

// ChangeReport implements Notifier.
func (n *EmailNotifier) ChangeReport(cs *types.ChangeSet, attachmentPath string) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.cfg.FromAddress, n.cfg.FromName)
	m.SetHeader("To", n.cfg.Recipients...)
	m.SetHeader("Subject", ChangeSubject(cs))
	m.SetBody("text/plain", changeBody(cs))
	if attachmentPath != "" {
		m.Attach(attachmentPath)
	}

	if err := n.send.DialAndSend(m); err != nil {
		return apperrors.Wrap(apperrors.KindNotification, "sending change report", err)
	}
	n.log.WithField("recipients", len(n.cfg.Recipients)).Info("change report sent")
	return nil
}

// Failure implements Notifier. Error mail goes to the dedicated error list,
// falling back to the regular recipients when none is configured.
func (n *EmailNotifier) Failure(date string, runErr error) error {
	recipients := n.cfg.ErrorRecipients
	if len(recipients) == 0 {
		recipients = n.cfg.Recipients
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", n.cfg.FromAddress, n.cfg.FromName)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", fmt.Sprintf("[PBX Audit] FAILED %s", date))
	m.SetBody("text/plain", failureBody(date, runErr))

	if err := n.send.DialAndSend(m); err != nil {
		return apperrors.Wrap(apperrors.KindNotification, "sending failure notification", err)
	}
	n.log.Info("failure notification sent")
	return nil
}

// ChangeSubject builds the subject line. The change count goes first so
// operators can triage from the inbox list. First runs never reach the
// notifier, so there is no baseline variant.
func ChangeSubject(cs *types.ChangeSet) string {
	total := cs.Summary().Total()
	if total == 0 {
		return fmt.Sprintf("[PBX Audit] %s no changes", cs.CurrentDate)
	}
	noun := "changes"
	if total == 1 {
		noun = "change"
	}
	return fmt.Sprintf("[PBX Audit] %s %d %s detected", cs.CurrentDate, total, noun)
}

func changeBody(cs *types.ChangeSet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "PBX configuration audit for %s.\n\n", cs.CurrentDate)
	fmt.Fprintf(&b, "Compared against the snapshot of %s.\n\n", cs.PreviousDate)
	if !cs.HasChanges() {
		fmt.Fprintf(&b, "No configuration changes were detected.\n")
		return b.String()
	}

	sum := cs.Summary()
	fmt.Fprintf(&b, "Extensions: %d added, %d removed, %d modified\n",
		sum.Extensions.Added, sum.Extensions.Removed, sum.Extensions.Modified)
	fmt.Fprintf(&b, "Inbound numbers: %d added, %d removed, %d modified\n",
		sum.DIDs.Added, sum.DIDs.Removed, sum.DIDs.Modified)
	fmt.Fprintf(&b, "Queues: %d added, %d removed, %d modified\n",
		sum.Queues.Added, sum.Queues.Removed, sum.Queues.Modified)
	fmt.Fprintf(&b, "\nThe attached report lists every change.\n")
	return b.String()
}

func failureBody(date string, runErr error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The PBX configuration audit for %s did not complete.\n\n", date)
	fmt.Fprintf(&b, "Error: %v\n\n", runErr)
	fmt.Fprintf(&b, "No snapshot was written for this date. The next successful run will\n")
	fmt.Fprintf(&b, "compare against the last good snapshot.\n")
	return b.String()
}

// NopNotifier is used when email is disabled.
type NopNotifier struct{}

func (NopNotifier) ChangeReport(*types.ChangeSet, string) error { return nil }
func (NopNotifier) Failure(string, error) error                 { return nil }
