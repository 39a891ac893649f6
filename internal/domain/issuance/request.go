package issuance

import (
	"strings"
	"time"

	"govdoc/internal/asset"
	"govdoc/internal/content"
	"govdoc/internal/core/apperror"
	"govdoc/internal/core/docnumber"
	"govdoc/internal/layout"
)

// Asset slots understood by the layout engine.
const (
	SlotEmblem    = "emblem"
	SlotSeal      = "seal"
	SlotSignature = "signature"
	SlotQR        = "qr"
)

// Assets holds blob-store keys of the document images. Empty keys render as
// placeholders.
type Assets struct {
	Emblem    string `json:"emblem,omitempty"`
	Seal      string `json:"seal,omitempty"`
	Signature string `json:"signature,omitempty"`
	QR        string `json:"qr,omitempty"`
}

func (a Assets) keys() map[string]string {
	return map[string]string{
		SlotEmblem:    a.Emblem,
		SlotSeal:      a.Seal,
		SlotSignature: a.Signature,
		SlotQR:        a.QR,
	}
}

// NumberRequest asks for a number to be allocated at issuance.
type NumberRequest struct {
	// Family is "ministry" or "correlative".
	Family string `json:"family"`
	// Direction is ENT or SAL, correlative numbers only.
	Direction string `json:"direction,omitempty"`
	// SubSequence is the office series, ministry numbers only.
	SubSequence int `json:"subSequence,omitempty"`
}

// Request is everything needed to issue one document.
type Request struct {
	// DocumentID identifies the document for number idempotency and annotations.
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`

	// Number is printed as is. When empty and Numbering is set, a number is
	// allocated.
	Number    string         `json:"number,omitempty"`
	Numbering *NumberRequest `json:"numbering,omitempty"`

	// Body is HTML or plain text. Ignored when Decree has any content.
	Body   string          `json:"body,omitempty"`
	Decree *content.Decree `json:"decree,omitempty"`

	ReferenceCode string    `json:"referenceCode,omitempty"`
	SectionCode   string    `json:"sectionCode,omitempty"`
	SignerName    string    `json:"signerName"`
	SignerTitle   string    `json:"signerTitle"`
	City          string    `json:"city,omitempty"`
	Date          time.Time `json:"date"`

	PrimaryRecipient    string   `json:"primaryRecipient,omitempty"`
	SecondaryRecipients []string `json:"secondaryRecipients,omitempty"`

	VerificationURL string `json:"verificationUrl,omitempty"`
	Assets          Assets `json:"assets"`

	// AnnotationPage, when positive, overlays the notes of that page.
	AnnotationPage int `json:"annotationPage,omitempty"`
}

// Validate checks the fields the pipeline cannot default.
func (r *Request) Validate() error {
	if r.AnnotationPage < 0 {
		return apperror.NewValidation("annotation page must not be negative").
			WithDetail("field", "annotationPage")
	}
	if r.AnnotationPage > 0 && strings.TrimSpace(r.DocumentID) == "" {
		return apperror.NewValidation("document id is required to overlay annotations").
			WithDetail("field", "documentId")
	}
	if r.Number == "" && r.Numbering != nil {
		if strings.TrimSpace(r.DocumentID) == "" {
			return apperror.NewValidation("document id is required to allocate a number").
				WithDetail("field", "documentId")
		}
		switch docnumber.ParseFamily(r.Numbering.Family) {
		case docnumber.FamilyMinistry:
		case docnumber.FamilyCorrelative:
			if !docnumber.Direction(strings.ToUpper(r.Numbering.Direction)).Valid() {
				return apperror.NewValidation("direction must be ENT or SAL").
					WithDetail("field", "numbering.direction")
			}
		default:
			return apperror.NewValidation("numbering family must be ministry or correlative").
				WithDetail("field", "numbering.family")
		}
	}
	return nil
}

// Blocks returns the body blocks: the decree sections when present,
// otherwise the parsed body.
func (r *Request) Blocks() []content.Block {
	if r.Decree != nil && !r.Decree.IsEmpty() {
		return content.FromDecree(*r.Decree)
	}
	return content.Parse(r.Body)
}

func (r *Request) metadata(number string, images map[string]*asset.Image) layout.Metadata {
	return layout.Metadata{
		Title:               r.Title,
		Number:              number,
		ReferenceCode:       r.ReferenceCode,
		SectionCode:         r.SectionCode,
		SignerName:          r.SignerName,
		SignerTitle:         r.SignerTitle,
		City:                r.City,
		Date:                r.Date,
		PrimaryRecipient:    r.PrimaryRecipient,
		SecondaryRecipients: r.SecondaryRecipients,
		VerificationURL:     r.VerificationURL,
		Emblem:              images[SlotEmblem],
		Seal:                images[SlotSeal],
		Signature:           images[SlotSignature],
		QR:                  images[SlotQR],
	}
}
