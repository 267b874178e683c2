package notify

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/fwdgo/fwd-nagaoka/internal/models"
)

const timeFormat = "2006/01/02 15:04"

const messageTemplate = `【{{.Category}}】{{.CategoryDetail}}
発生時刻: {{.OpenedAt}}
状態: {{.Status}}{{if .ClosedAt}}
終了時刻: {{.ClosedAt}}{{end}}
住所: {{if .Locality}}{{.Locality}} {{end}}{{.AddressPrimary}}{{if .AddressSecondary}} {{.AddressSecondary}}{{end}}`

var categoryNames = map[models.Category]string{
	models.CategoryFire:           "火災",
	models.CategoryRescue:         "救助",
	models.CategoryAlert:          "警戒",
	models.CategoryMedicalSupport: "救急支援",
	models.CategoryOther:          "その他",
}

var statusNames = map[models.Status]string{
	models.StatusOpened:           "発生",
	models.StatusRescueComplete:   "救助終了",
	models.StatusNoExtinguishNeed: "消火不要",
	models.StatusContained:        "鎮圧",
	models.StatusExtinguished:     "鎮火",
	models.StatusClosed:           "終了",
}

// Renderer produces the outbound notification text for one disaster.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("notify").Parse(messageTemplate)),
	}
}

func (r *Renderer) Render(detail models.DisasterDetail) (string, error) {
	closedAt := ""
	if detail.ClosedAt != nil {
		closedAt = detail.ClosedAt.Format(timeFormat)
	}
	locality := ""
	if detail.Locality != nil {
		locality = *detail.Locality
	}
	addressSecondary := ""
	if detail.AddressSecondary != nil {
		addressSecondary = *detail.AddressSecondary
	}

	data := map[string]string{
		"Category":         categoryNames[detail.Category],
		"CategoryDetail":   detail.CategoryDetail,
		"OpenedAt":         detail.OpenedAt.Format(timeFormat),
		"ClosedAt":         closedAt,
		"Status":           statusNames[detail.Status],
		"Locality":         locality,
		"AddressPrimary":   detail.AddressPrimary,
		"AddressSecondary": addressSecondary,
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("error rendering notification: %w", err)
	}
	return sb.String(), nil
}
