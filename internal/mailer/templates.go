package mailer

import (
	"bytes"
	"text/template"
)

var recoveryTmpl = template.Must(template.New("recovery").Parse(`Hello {{.Name}},

We received a request to reset the password of your account.
Follow the link below to choose a new password:

{{.Link}}

The link expires in {{.ExpiresIn}}. If you did not ask for a new password you can ignore this message.
`))

// RecoveryData fills the password recovery body.
type RecoveryData struct {
	Name      string
	Link      string
	ExpiresIn string
}

// RecoveryBody renders the password recovery mail body.
func RecoveryBody(d RecoveryData) (string, error) {
	var buf bytes.Buffer
	if err := recoveryTmpl.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
