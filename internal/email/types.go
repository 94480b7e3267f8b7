package email

// Email represents a message to be sent.
type Email struct {
	From     string
	To       []string
	Cc       []string
	Subject  string
	Body     string
	HTMLBody string
}

// TemplateData carries values into email templates.
type TemplateData map[string]interface{}
