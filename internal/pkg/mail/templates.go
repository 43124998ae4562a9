package mail

import (
	"bytes"
	"html/template"
)

const welcomeTpl = `<!DOCTYPE html>
<html>
<body style="font-family:sans-serif;background:#f5f5f5;padding:20px">
<div style="max-width:600px;margin:0 auto;background:#fff;border-radius:8px;padding:24px">
  <h2 style="color:#333">Welcome to ProCivil Manager</h2>
  <p>Hi {{.Name}},</p>
  <p>Your account <strong>{{.Email}}</strong> has been created. You can now sign in and start managing your projects.</p>
  <p style="color:#999;font-size:12px">If you did not create this account, please contact support.</p>
</div>
</body>
</html>`

var welcomeTemplate = template.Must(template.New("welcome").Parse(welcomeTpl))

// SendWelcome emails the post-registration welcome message.
func (s *Sender) SendWelcome(email, name string) error {
	if name == "" {
		name = email
	}
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, map[string]string{"Name": name, "Email": email}); err != nil {
		return err
	}
	return s.Send(Message{
		To:      []string{email},
		Subject: "Welcome to ProCivil Manager",
		HTML:    buf.String(),
	})
}
