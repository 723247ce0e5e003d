package email

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/Masterminds/sprig/v3"
)

// ClientConfirmationParams fill the confirmation sent back to the visitor
type ClientConfirmationParams struct {
	FirstName string
	FullName  string
	Message   string
	BrandName string
}

// TeamAlertParams fill the internal notification. Empty optional fields
// render as a dash.
type TeamAlertParams struct {
	FirstName string
	LastName  string
	FullName  string
	Email     string
	Company   string
	Position  string
	Source    string
	Message   string
}

var (
	clientConfirmationTemplate = template.New("client_confirmation").Funcs(sprig.FuncMap())
	teamAlertTemplate          = template.New("team_alert").Funcs(sprig.FuncMap())

	//go:embed templates/client_confirmation.html
	clientConfirmationTemplateRaw string
	//go:embed templates/team_alert.html
	teamAlertTemplateRaw string
)

func init() {
	if _, err := clientConfirmationTemplate.Parse(clientConfirmationTemplateRaw); err != nil {
		panic(err)
	}
	if _, err := teamAlertTemplate.Parse(teamAlertTemplateRaw); err != nil {
		panic(err)
	}
}

func render(t *template.Template, p any) (string, error) {
	b := bytes.Buffer{}
	err := t.Execute(&b, p)
	return b.String(), err
}

func RenderClientConfirmation(p ClientConfirmationParams) (string, error) {
	return render(clientConfirmationTemplate, p)
}

func RenderTeamAlert(p TeamAlertParams) (string, error) {
	return render(teamAlertTemplate, p)
}
