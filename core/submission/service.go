package submission

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/kaushal/core"
	"github.com/trezcool/kaushal/core/wizard"
)

// Recorder is a wizard.Submitter storing payloads in a Repository.
type Recorder struct {
	repo Repository
}

var _ wizard.Submitter = (*Recorder)(nil)

func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Submit(ctx context.Context, p wizard.Payload) error {
	if _, err := r.repo.CreateSubmission(ctx, NewRecord(p)); err != nil {
		return errors.Wrap(err, "recording submission")
	}
	return nil
}

// ReceiptData feeds the "submission_received" email template.
type ReceiptData struct {
	Name        string
	Flow        string
	ID          string
	SubmittedAt string
}

// Notifier decorates a Submitter: once a payload is accepted, a receipt is emailed to the contact it holds.
// Payloads without an email address are submitted silently.
type Notifier struct {
	next   wizard.Submitter
	emails core.EmailService
	logger core.Logger
}

var _ wizard.Submitter = (*Notifier)(nil)

func NewNotifier(next wizard.Submitter, emails core.EmailService, logger core.Logger) *Notifier {
	return &Notifier{next: next, emails: emails, logger: logger}
}

func (n *Notifier) Submit(ctx context.Context, p wizard.Payload) error {
	if err := n.next.Submit(ctx, p); err != nil {
		return err
	}
	addr, ok := Contact(p)
	if !ok {
		return nil
	}
	n.emails.SendMessages(&core.EmailMessage{
		To:           []mail.Address{addr},
		Subject:      "Submission received",
		TemplateName: "submission_received",
		TemplateData: ReceiptData{
			Name:        addr.Name,
			Flow:        strings.ReplaceAll(p.Flow, "_", " "),
			ID:          p.ID.String(),
			SubmittedAt: p.SubmittedAt.Format("02 Jan 2006 15:04 MST"),
		},
	})
	n.logger.Info(fmt.Sprintf("submission %s: receipt sent", p.ID))
	return nil
}

// Contact finds the first valid "email" field of the payload, along with a "name" or "person" of the same step.
func Contact(p wizard.Payload) (mail.Address, bool) {
	for _, st := range p.Steps {
		raw, ok := st.State["email"].(string)
		if !ok || raw == "" {
			continue
		}
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			continue
		}
		for _, key := range []string{"name", "person"} {
			if name, ok := st.State[key].(string); ok && name != "" {
				addr.Name = name
				break
			}
		}
		return *addr, true
	}
	return mail.Address{}, false
}
