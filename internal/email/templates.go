package email

import (
	"fmt"
	"html/template"
	"strings"
	"sync"
)

// TemplateManager implements TemplateRenderer over an in-memory template set.
type TemplateManager struct {
	templates map[string]*template.Template
	mutex     sync.RWMutex
}

// Built-in templates for the verification workflow. Outbox templates are
// addressed by these names; the field names match the keys the outbox
// payloads are written with.
var defaultTemplates = map[string]string{
	"verification_code": `
		<p>Hola,</p>
		<p>Tu código de verificación es: <strong>{{.codigo}}</strong></p>
		<p>El código expira en {{.ttl_minutos}} minutos.</p>`,
	"account_approved": `
		<p>Hola {{.nombre}},</p>
		<p>Tu cuenta ha sido verificada y activada. Ya puedes usar la aplicación.</p>`,
	"document_rejected": `
		<p>Hola {{.nombre}},</p>
		<p>Tu documento ({{.tipo}}) fue rechazado: {{.rechazo_motivo}}</p>
		<p>Por favor sube una nueva imagen para continuar la verificación.</p>`,
}

// NewTemplateManager creates a manager preloaded with the default templates.
func NewTemplateManager() (*TemplateManager, error) {
	tm := &TemplateManager{
		templates: make(map[string]*template.Template),
	}

	for name, body := range defaultTemplates {
		if err := tm.AddTemplate(name, body); err != nil {
			return nil, err
		}
	}
	return tm, nil
}

// Render executes the named template with data.
func (tm *TemplateManager) Render(templateName string, data TemplateData) (string, error) {
	tm.mutex.RLock()
	tpl, exists := tm.templates[templateName]
	tm.mutex.RUnlock()

	if !exists {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var buf strings.Builder
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// AddTemplate registers or replaces a template.
func (tm *TemplateManager) AddTemplate(name string, templateStr string) error {
	tpl, err := template.New(name).Parse(templateStr)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	tm.mutex.Lock()
	tm.templates[name] = tpl
	tm.mutex.Unlock()

	return nil
}
