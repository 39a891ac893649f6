// Package layout places the fixed regions of an official document (header,
// labels, QR, signature, footer) and flows parsed body blocks across
// Letter-size pages. All coordinates are PDF points measured from the top-left
// corner of the page.
package layout

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Geometry holds every coordinate and size the engine and the annotation
// overlay use. It is read-only once loaded.
type Geometry struct {
	PageWidth  float64 `toml:"page_width"`
	PageHeight float64 `toml:"page_height"`

	MarginLeft   float64 `toml:"margin_left"`
	MarginRight  float64 `toml:"margin_right"`
	MarginTop    float64 `toml:"margin_top"`
	MarginBottom float64 `toml:"margin_bottom"`

	FontFamily string `toml:"font_family"`

	// Header block. Its left edge is derived from the measured width of the
	// first title line, see HeaderOrigin.
	EmblemX            float64 `toml:"emblem_x"`
	EmblemY            float64 `toml:"emblem_y"`
	EmblemHeight       float64 `toml:"emblem_height"`
	HeaderBlockWidth   float64 `toml:"header_block_width"`
	HeaderTitleY       float64 `toml:"header_title_y"`
	TitleFontSize      float64 `toml:"title_font_size"`
	TitleLineHeight    float64 `toml:"title_line_height"`
	RuleGap            float64 `toml:"rule_gap"`
	SignerLineFontSize float64 `toml:"signer_line_font_size"`

	// Label/value rows under the header.
	LabelTop       float64 `toml:"label_top"`
	LabelRowHeight float64 `toml:"label_row_height"`
	LabelWidth     float64 `toml:"label_width"`
	LabelFontSize  float64 `toml:"label_font_size"`

	// QR image, anchored to the top-right corner.
	QRSize  float64 `toml:"qr_size"`
	QRRight float64 `toml:"qr_right"`
	QRTop   float64 `toml:"qr_top"`

	// Body flow.
	BodyTop          float64    `toml:"body_top"`
	BodyFontSize     float64    `toml:"body_font_size"`
	BodyLineHeight   float64    `toml:"body_line_height"`
	BlockSpacing     float64    `toml:"block_spacing"`
	HeadingFontSizes [3]float64 `toml:"heading_font_sizes"`
	ListIndent       float64    `toml:"list_indent"`

	// Signature region.
	SignatureHeight   float64 `toml:"signature_height"`
	SignatureGap      float64 `toml:"signature_gap"`
	SignatureImageTop float64 `toml:"signature_image_top"`
	SlotWidth         float64 `toml:"slot_width"`
	SlotHeight        float64 `toml:"slot_height"`
	SlotCenterGap     float64 `toml:"slot_center_gap"`
	SignerNameTop     float64 `toml:"signer_name_top"`

	// Footer region and page numbers.
	FooterFontSize   float64 `toml:"footer_font_size"`
	FooterLineHeight float64 `toml:"footer_line_height"`
	FooterRuleGap    float64 `toml:"footer_rule_gap"`
	PageNumberY      float64 `toml:"page_number_y"`

	// Annotation box used by the overlay.
	AnnotationX        float64 `toml:"annotation_x"`
	AnnotationWidth    float64 `toml:"annotation_width"`
	AnnotationHeight   float64 `toml:"annotation_height"`
	AnnotationFontSize float64 `toml:"annotation_font_size"`
}

// DefaultGeometry returns the reference Letter layout.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:  612,
		PageHeight: 792,

		MarginLeft:   72,
		MarginRight:  72,
		MarginTop:    54,
		MarginBottom: 72,

		FontFamily: "Times",

		EmblemX:            72,
		EmblemY:            30,
		EmblemHeight:       42,
		HeaderBlockWidth:   300,
		HeaderTitleY:       80,
		TitleFontSize:      12,
		TitleLineHeight:    14,
		RuleGap:            4,
		SignerLineFontSize: 9,

		LabelTop:       150,
		LabelRowHeight: 14,
		LabelWidth:     80,
		LabelFontSize:  10,

		QRSize:  64,
		QRRight: 40,
		QRTop:   30,

		BodyTop:          210,
		BodyFontSize:     11,
		BodyLineHeight:   15,
		BlockSpacing:     8,
		HeadingFontSizes: [3]float64{14, 12.5, 11.5},
		ListIndent:       18,

		SignatureHeight:   150,
		SignatureGap:      24,
		SignatureImageTop: 36,
		SlotWidth:         90,
		SlotHeight:        60,
		SlotCenterGap:     20,
		SignerNameTop:     104,

		FooterFontSize:   8,
		FooterLineHeight: 10,
		FooterRuleGap:    4,
		PageNumberY:      770,

		AnnotationX:        8,
		AnnotationWidth:    56,
		AnnotationHeight:   48,
		AnnotationFontSize: 6,
	}
}

// ContentWidth is the usable width between the side margins.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - g.MarginLeft - g.MarginRight
}

// BodyBottom is the lowest y a body line may reach.
func (g Geometry) BodyBottom() float64 {
	return g.PageHeight - g.MarginBottom
}

// HeaderOrigin returns the left edge of the centered header block such that
// a first title line of the given width starts exactly at the left margin.
func (g Geometry) HeaderOrigin(title1Width float64) float64 {
	return g.MarginLeft - (g.HeaderBlockWidth-title1Width)/2
}

// HeadingFontSize returns the font size for heading level 1..3.
func (g Geometry) HeadingFontSize(level int) float64 {
	level = max(1, min(level, len(g.HeadingFontSizes)))
	return g.HeadingFontSizes[level-1]
}

// Validate rejects geometries that cannot hold a single body line.
func (g Geometry) Validate() error {
	switch {
	case g.PageWidth <= 0 || g.PageHeight <= 0:
		return errors.New("page size must be positive")
	case g.ContentWidth() <= g.ListIndent:
		return errors.New("margins leave no content width")
	case g.BodyLineHeight <= 0 || g.BodyFontSize <= 0:
		return errors.New("body font size and line height must be positive")
	case g.BodyBottom()-g.MarginTop < g.BodyLineHeight:
		return errors.New("margins leave no body height")
	case g.SignatureHeight > g.BodyBottom()-g.MarginTop:
		return errors.New("signature region taller than a page")
	case g.FontFamily == "":
		return errors.New("font family is required")
	}
	return nil
}

// Letterhead is the fixed text printed on every document of an issuer.
type Letterhead struct {
	Title1 string `toml:"title1"`
	Title2 string `toml:"title2"`
	Motto  string `toml:"motto"`
	City   string `toml:"city"`
}

// DefaultLetterhead returns neutral placeholder text.
func DefaultLetterhead() Letterhead {
	return Letterhead{
		Title1: "REPÚBLICA",
		Title2: "MINISTERIO",
		City:   "Quito",
	}
}

// Config is the on-disk layout configuration.
type Config struct {
	Geometry   Geometry   `toml:"geometry"`
	Letterhead Letterhead `toml:"letterhead"`
}

// DefaultConfig returns compiled-in defaults.
func DefaultConfig() Config {
	return Config{Geometry: DefaultGeometry(), Letterhead: DefaultLetterhead()}
}

// LoadConfig reads TOML overrides from path on top of DefaultConfig.
// An empty path or a missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read layout config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML overrides on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse layout config: %w", err)
	}
	if err := cfg.Geometry.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid geometry: %w", err)
	}
	return cfg, nil
}
