package model

// TemplateSet maps a template key to its message text. Placeholders use the
// {{name}} form and are substituted by the template renderer.
type TemplateSet map[string]string

// templateKeys maps a notification type to the template key used to render
// it. Types without an entry fall back to "default".
var templateKeys = map[string]string{
	"appointment_reminder":  "appointment_reminder",
	"appointment_confirmed": "appointment_confirmation",
	"appointment_cancelled": "appointment_cancellation",
	"payment_due":           "payment_due",
	"welcome":               "welcome",
}

// TemplateKeyFor resolves the template key for a notification type.
func TemplateKeyFor(notificationType string) string {
	if key, ok := templateKeys[notificationType]; ok {
		return key
	}
	return "default"
}

// DefaultTemplates is the hard-coded fallback used when the settings store
// has no message_templates entry.
func DefaultTemplates() TemplateSet {
	return TemplateSet{
		"appointment_reminder":     "Hola {{patient_name}}, te recordamos tu cita con {{psychologist_name}} el {{date}} a las {{time}}.",
		"appointment_confirmation": "Hola {{patient_name}}, tu cita del {{date}} a las {{time}} fue confirmada.",
		"appointment_cancellation": "Hola {{patient_name}}, tu cita del {{date}} fue cancelada. Comunicate con el consultorio para reprogramar.",
		"payment_due":              "Hola {{patient_name}}, tenés un pago pendiente de {{amount}}. Vencimiento: {{due_date}}.",
		"welcome":                  "Hola {{patient_name}}, bienvenido/a a {{practice_name}}.",
	}
}
