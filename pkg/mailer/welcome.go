package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var welcomeHTML = template.Must(template.New(TemplateWelcome).Parse(`<!doctype html>
<html>
  <body style="font-family: sans-serif; color: #222;">
    <h2>Welcome, {{.Name}}!</h2>
    <p>Your account was created successfully. You can sign in with this email address.</p>
    <p style="color: #888; font-size: 12px;">If you did not create this account, you can ignore this message.</p>
  </body>
</html>`))

// RenderWelcome renders the welcome template for a job's data map.
func RenderWelcome(data map[string]any) (subject, text, html string, err error) {
	name, _ := data["Name"].(string)
	if name == "" {
		name = "there"
	}
	var buf bytes.Buffer
	if err = welcomeHTML.Execute(&buf, map[string]string{"Name": name}); err != nil {
		return "", "", "", err
	}
	subject = "Welcome to your new account"
	text = fmt.Sprintf("Welcome, %s! Your account was created successfully.", name)
	return subject, text, buf.String(), nil
}
