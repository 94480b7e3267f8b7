package email

// Provider is the outbound email contract.
type Provider interface {
	// Send delivers a prepared message.
	Send(email *Email) error

	// SendTemplate renders the named template and sends it.
	SendTemplate(to []string, subject string, templateName string, data TemplateData) error

	// SendVerificationCode delivers a short-lived numeric code. The stated
	// expiry must match the TTL the code was stored with.
	SendVerificationCode(to string, code string, ttlMinutes int) error

	// Validate checks the provider configuration.
	Validate() error

	// Close releases provider resources.
	Close() error
}

// TemplateRenderer renders named templates with data.
type TemplateRenderer interface {
	Render(templateName string, data TemplateData) (string, error)
	AddTemplate(name string, template string) error
}
