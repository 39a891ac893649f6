// Package issuance runs the document pipeline: number allocation, body
// parsing, asset fetching, layout and the optional annotation overlay.
package issuance

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"govdoc/internal/asset"
	"govdoc/internal/content"
	"govdoc/internal/convert"
	"govdoc/internal/core/apperror"
	"govdoc/internal/core/docnumber"
	"govdoc/internal/domain/annotation"
	"govdoc/internal/domain/numbering"
	"govdoc/internal/layout"
	"govdoc/internal/overlay"
	"govdoc/pkg/logger"
)

var tracer = otel.Tracer("govdoc/issuance")

// NumberAssigner allocates document numbers.
type NumberAssigner interface {
	AssignMinistry(ctx context.Context, req numbering.MinistryRequest) (string, error)
	AssignCorrelative(ctx context.Context, req numbering.CorrelativeRequest) (string, error)
}

// AssetFetcher loads images by slot. Missing slots render as placeholders.
type AssetFetcher interface {
	FetchAll(ctx context.Context, keys map[string]string) map[string]*asset.Image
}

// AnnotationSource lists the notes of one page of a document.
type AnnotationSource interface {
	ForPage(ctx context.Context, documentID string, page int) ([]annotation.Annotation, error)
}

var (
	_ NumberAssigner   = (*numbering.Service)(nil)
	_ AssetFetcher     = (*asset.Fetcher)(nil)
	_ AnnotationSource = (*annotation.Service)(nil)
)

// Deps wires the service. Numbers, Assets, Annotations and Converter are
// optional; the features that need them are rejected or skipped without.
type Deps struct {
	Engine      *layout.Engine
	Numbers     NumberAssigner
	Assets      AssetFetcher
	Annotations AnnotationSource
	Converter   convert.Converter
	// Now overrides the clock used for undated requests. Optional.
	Now func() time.Time
}

// Service issues documents.
type Service struct {
	engine    *layout.Engine
	numbers   NumberAssigner
	assets    AssetFetcher
	notes     AnnotationSource
	overlay   *overlay.Overlay
	markup    *convert.MarkupRenderer
	converter convert.Converter
	now       func() time.Time
}

// NewService creates an issuance service. cfg must be the configuration the
// engine was built with.
func NewService(cfg layout.Config, deps Deps) *Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		engine:    deps.Engine,
		numbers:   deps.Numbers,
		assets:    deps.Assets,
		notes:     deps.Annotations,
		overlay:   overlay.New(cfg.Geometry),
		markup:    convert.NewMarkupRenderer(cfg),
		converter: deps.Converter,
		now:       now,
	}
}

// Issue renders req to PDF.
func (s *Service) Issue(ctx context.Context, req Request) (*layout.Rendered, error) {
	ctx, span := tracer.Start(ctx, "issuance.Issue")
	defer span.End()

	meta, blocks, err := s.prepare(ctx, &req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("document.number", meta.Number),
		attribute.Int("document.blocks", len(blocks)),
	)

	out, err := s.engine.Render(ctx, meta, blocks)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if req.AnnotationPage > 0 && s.notes != nil {
		notes, err := s.notes.ForPage(ctx, req.DocumentID, req.AnnotationPage)
		if err != nil {
			return nil, err
		}
		if out, err = s.overlay.Apply(ctx, out, req.AnnotationPage, notes); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	logger.Info(ctx, "document issued",
		"document_id", req.DocumentID,
		"number", out.Number,
		"pages", out.PageCount,
	)
	return out, nil
}

// Markup renders req to the self-contained HTML used for conversion.
func (s *Service) Markup(ctx context.Context, req Request) ([]byte, error) {
	meta, blocks, err := s.prepare(ctx, &req)
	if err != nil {
		return nil, err
	}
	out, err := s.markup.Render(meta, blocks)
	if err != nil {
		return nil, apperror.NewRenderFailure(err)
	}
	return out, nil
}

// Convert renders req to markup and hands it to the converter.
func (s *Service) Convert(ctx context.Context, req Request, target string) ([]byte, error) {
	if s.converter == nil {
		return nil, apperror.NewInternal(errors.New("no converter configured"))
	}
	ctx, span := tracer.Start(ctx, "issuance.Convert")
	defer span.End()
	span.SetAttributes(attribute.String("convert.target", target))

	markup, err := s.Markup(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.converter.Convert(ctx, markup, target)
}

// prepare validates req, allocates its number and resolves body and images.
func (s *Service) prepare(ctx context.Context, req *Request) (layout.Metadata, []content.Block, error) {
	if err := req.Validate(); err != nil {
		return layout.Metadata{}, nil, err
	}
	if req.Date.IsZero() {
		req.Date = s.now()
	}

	number, err := s.number(ctx, req)
	if err != nil {
		return layout.Metadata{}, nil, err
	}

	var images map[string]*asset.Image
	if s.assets != nil {
		images = s.assets.FetchAll(ctx, req.Assets.keys())
	}
	return req.metadata(number, images), req.Blocks(), nil
}

// number returns the printed number: the supplied one, a freshly assigned
// one, or "" when the document is unnumbered.
func (s *Service) number(ctx context.Context, req *Request) (string, error) {
	if req.Number != "" || req.Numbering == nil {
		return req.Number, nil
	}
	if s.numbers == nil {
		return "", apperror.NewInternal(errors.New("no number allocator configured"))
	}

	switch docnumber.ParseFamily(req.Numbering.Family) {
	case docnumber.FamilyMinistry:
		return s.numbers.AssignMinistry(ctx, numbering.MinistryRequest{
			OwnerID:     req.DocumentID,
			Date:        req.Date,
			SubSequence: req.Numbering.SubSequence,
		})
	default:
		return s.numbers.AssignCorrelative(ctx, numbering.CorrelativeRequest{
			OwnerID:   req.DocumentID,
			Direction: docnumber.Direction(strings.ToUpper(req.Numbering.Direction)),
			Date:      req.Date,
		})
	}
}
