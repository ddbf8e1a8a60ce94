package resend

import (
	"bytes"
	"html/template"

	"github.com/resend/resend-go/v2"

	"github.com/teymia/habitkit/internal/reminder"
)

type ResendNotifier struct {
	ApiKey string
	From   string
	Email  string
}

const htmlTemplate = `
<p>These habits are still open today:</p>
<ul>
{{range .}}
  <li>{{.Title}} (reminder set for {{.At}})</li>
{{end}}
</ul>
`

func (r *ResendNotifier) SendReminders(entries []reminder.Entry) error {
	tmpl, err := template.New("email").Parse(htmlTemplate)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, entries); err != nil {
		return err
	}

	client := resend.NewClient(r.ApiKey)
	params := &resend.SendEmailRequest{
		From:    r.From,
		To:      []string{r.Email},
		Subject: "Habit reminders for today",
		Html:    buf.String(),
	}

	_, err = client.Emails.Send(params)
	return err
}

var _ reminder.Notifier = (*ResendNotifier)(nil)
