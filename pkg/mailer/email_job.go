package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue by the API and
// consumed by cmd/email_worker. Template currently only knows "welcome";
// Subject/Text/HTML may be set directly for ad-hoc sends.
type EmailJob struct {
	To       string         `json:"to"`
	Subject  string         `json:"subject,omitempty"`
	Text     string         `json:"text,omitempty"`
	HTML     string         `json:"html,omitempty"`
	Template string         `json:"template,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// TemplateWelcome is published after a successful account creation.
const TemplateWelcome = "welcome"
