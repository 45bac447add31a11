package mailer

import (
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// renderTemplate renders the named template with the given data plus the
// current year for the footer.
func renderTemplate(name string, data map[string]any) (string, error) {
	merged := make(map[string]any, len(data)+1)
	for k, v := range data {
		merged[k] = v
	}
	merged["Year"] = time.Now().Year()

	var buf strings.Builder
	if err := templates.ExecuteTemplate(&buf, name+".html", merged); err != nil {
		return "", fmt.Errorf("template %q: %w", name, err)
	}
	return buf.String(), nil
}
