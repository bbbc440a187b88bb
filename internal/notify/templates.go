package notify

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplateConfirmation = "ticket-confirmation"
	TemplateRejection    = "payment-rejected"
)

var (
	confirmationTmpl = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/confirmation.html"))
	rejectionTmpl    = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/rejection.html"))
)

type AttendeeLine struct {
	FullName string
}

type ConfirmationData struct {
	Name        string
	TicketID    string
	PackageType string
	Attendees   []AttendeeLine
	TicketURL   string
}

type RejectionData struct {
	Name     string
	TicketID string
	Reason   string
}

func RenderConfirmation(d ConfirmationData) (string, error) {
	label := "Single"
	if d.PackageType == "couple" {
		label = "Couple"
	}
	return render(confirmationTmpl, "Your QR ticket is ready", map[string]any{
		"FirstName":    firstName(d.Name),
		"TicketID":     d.TicketID,
		"PackageLabel": label,
		"Attendees":    d.Attendees,
		"TicketURL":    d.TicketURL,
	})
}

func RenderRejection(d RejectionData) (string, error) {
	return render(rejectionTmpl, "Ticket update", map[string]any{
		"FirstName": firstName(d.Name),
		"TicketID":  d.TicketID,
		"Reason":    d.Reason,
	})
}

func render(t *template.Template, title string, data map[string]any) (string, error) {
	data["Title"] = title
	data["Year"] = time.Now().Year()
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}
