package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/xavierca1/lead-sync/internal/infra/queue"
)

// Template inline: o binário roda em container pelado, sem diretório de
// templates do lado.
const leadAlertTemplate = `
<h2>Novo lead capturado 🎯</h2>
<p><b>Nome:</b> {{.Name}}</p>
<p><b>Email:</b> {{.Email}}</p>
{{if .Phone}}<p><b>Telefone:</b> {{.Phone}}</p>{{end}}
{{if .Source}}<p><b>Origem:</b> {{.Source}}</p>{{end}}
{{if .Page}}<p><b>Página:</b> {{.Page}}</p>{{end}}
{{if .Campaign}}<p><b>Campanha:</b> {{.Campaign}}</p>{{end}}
<p><b>Contato no CRM:</b> {{.ContactID}}</p>
{{if .OpportunityID}}<p><b>Oportunidade:</b> {{.OpportunityID}}</p>{{end}}
`

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

func NewEmailSender(host string, port int, user, password, from, to string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
	}
}

// SendLeadAlert avisa o time de vendas que caiu lead novo no CRM.
func (s *EmailSender) SendLeadAlert(payload queue.LeadSyncedPayload) error {
	t, err := template.New("lead_alert").Parse(leadAlertTemplate)
	if err != nil {
		return fmt.Errorf("erro ao processar template de alerta: %w", err)
	}

	var body bytes.Buffer
	if err := t.Execute(&body, payload); err != nil {
		return fmt.Errorf("erro ao processar template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", fmt.Sprintf("🎯 Novo lead: %s", payload.Name))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar email SMTP: %w", err)
	}

	return nil
}
