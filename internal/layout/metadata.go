package layout

import (
	"strings"
	"time"

	"govdoc/internal/asset"
)

// Metadata is the plain data printed around the body. Absent fields render
// as empty strings; absent images render as placeholders.
type Metadata struct {
	Title         string
	Number        string
	ReferenceCode string
	SectionCode   string

	SignerName  string
	SignerTitle string
	// City overrides the letterhead city on the date line.
	City string
	Date time.Time

	PrimaryRecipient    string
	SecondaryRecipients []string

	// VerificationURL is encoded as a QR code when QR is nil.
	VerificationURL string

	Emblem    *asset.Image
	Seal      *asset.Image
	Signature *asset.Image
	QR        *asset.Image
}

// Footer placeholder used when a document has no recipients.
const noRecipients = "Sin destinatarios"

// RecipientLines returns the footer text lines; never empty.
func (m Metadata) RecipientLines() []string {
	var lines []string
	if r := strings.TrimSpace(m.PrimaryRecipient); r != "" {
		lines = append(lines, "Para: "+r)
	}
	for _, r := range m.SecondaryRecipients {
		if r = strings.TrimSpace(r); r != "" {
			lines = append(lines, "c.c.: "+r)
		}
	}
	if len(lines) == 0 {
		lines = append(lines, noRecipients)
	}
	return lines
}

// DateLine returns "City, 14 de marzo de 2028".
func (m Metadata) DateLine(head Letterhead) string {
	city := m.City
	if city == "" {
		city = head.City
	}
	date := LongDate(m.Date)
	switch {
	case city == "":
		return date
	case date == "":
		return city
	default:
		return city + ", " + date
	}
}
