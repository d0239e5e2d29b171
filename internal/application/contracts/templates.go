package contracts

import (
	"embed"
	"fmt"

	"rightsdesk-backend/internal/constants"
)

//go:embed templates/*.md
var templateFS embed.FS

// TemplateFor returns the markdown template for a contract type.
func TemplateFor(ct constants.ContractType) (string, error) {
	b, err := templateFS.ReadFile("templates/" + string(ct) + ".md")
	if err != nil {
		return "", fmt.Errorf("no contract template for %q", ct)
	}
	return string(b), nil
}
