package issuance_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govdoc/internal/asset"
	"govdoc/internal/content"
	"govdoc/internal/core/apperror"
	appctx "govdoc/internal/core/context"
	"govdoc/internal/core/numerator"
	"govdoc/internal/domain/annotation"
	"govdoc/internal/domain/issuance"
	"govdoc/internal/domain/numbering"
	"govdoc/internal/infrastructure/storage/memory"
	"govdoc/internal/layout"
)

var issueDate = time.Date(2028, time.March, 14, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *issuance.Service
	notes *annotation.Service
	conv  *recordingConverter
}

type recordingConverter struct {
	markup []byte
	target string
}

func (c *recordingConverter) Convert(_ context.Context, markup []byte, target string) ([]byte, error) {
	c.markup, c.target = markup, target
	return []byte("converted"), nil
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := layout.DefaultConfig()
	engine, err := layout.NewEngine(cfg, layout.WithCompression(false))
	require.NoError(t, err)

	numbers := numbering.NewService(numbering.ServiceConfig{
		Store:  memory.NewSequenceStore(),
		Config: numerator.DefaultConfig("MT"),
		Now:    func() time.Time { return issueDate },
	})
	notes := annotation.NewService(memory.NewAnnotationRepo())
	conv := &recordingConverter{}

	svc := issuance.NewService(cfg, issuance.Deps{
		Engine:      engine,
		Numbers:     numbers,
		Assets:      asset.NewFetcher(memory.NewBlobStore(), time.Second),
		Annotations: notes,
		Converter:   conv,
		Now:         func() time.Time { return issueDate },
	})
	return &fixture{svc: svc, notes: notes, conv: conv}
}

func request() issuance.Request {
	return issuance.Request{
		DocumentID:  "doc-1",
		Title:       "Informe de gestión",
		Body:        "<p>Se informa lo siguiente.</p><ul><li>uno</li><li>dos</li></ul>",
		SignerName:  "Ana Pérez",
		SignerTitle: "Directora",
		Date:        issueDate,
	}
}

func code(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

func TestIssue_AllocatesMinistryNumberOnce(t *testing.T) {
	f := newFixture(t)
	req := request()
	req.Numbering = &issuance.NumberRequest{Family: "ministry", SubSequence: 51}

	first, err := f.svc.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "001-MT-038-051", first.Number)
	assert.Equal(t, 1, first.PageCount)
	assert.True(t, bytes.HasPrefix(first.Bytes, []byte("%PDF")))

	again, err := f.svc.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Number, again.Number)

	req.DocumentID = "doc-2"
	next, err := f.svc.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "002-MT-038-051", next.Number)
}

func TestIssue_Correlative(t *testing.T) {
	f := newFixture(t)
	req := request()
	req.Numbering = &issuance.NumberRequest{Family: "correlative", Direction: "sal"}

	out, err := f.svc.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "SAL-2028-000001", out.Number)
}

func TestIssue_KeepsSuppliedNumber(t *testing.T) {
	f := newFixture(t)
	req := request()
	req.Number = "SAL-2027-000999"
	req.Numbering = &issuance.NumberRequest{Family: "ministry", SubSequence: 1}

	out, err := f.svc.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "SAL-2027-000999", out.Number)
}

func TestIssue_Unnumbered(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Issue(context.Background(), request())
	require.NoError(t, err)
	assert.Empty(t, out.Number)
}

func TestIssue_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		modify func(r *issuance.Request)
	}{
		{"unknown family", func(r *issuance.Request) { r.Numbering = &issuance.NumberRequest{Family: "other"} }},
		{"bad direction", func(r *issuance.Request) { r.Numbering = &issuance.NumberRequest{Family: "correlative", Direction: "X"} }},
		{"negative page", func(r *issuance.Request) { r.AnnotationPage = -1 }},
		{"overlay without document", func(r *issuance.Request) { r.AnnotationPage, r.DocumentID = 1, "" }},
		{"numbering without document", func(r *issuance.Request) {
			r.DocumentID = ""
			r.Numbering = &issuance.NumberRequest{Family: "ministry"}
		}},
		{"blank document id", func(r *issuance.Request) {
			r.DocumentID = "  "
			r.Numbering = &issuance.NumberRequest{Family: "correlative", Direction: "ENT"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request()
			tt.modify(&req)
			_, err := f.svc.Issue(context.Background(), req)
			assert.Equal(t, apperror.CodeValidation, code(t, err))
		})
	}
}

func TestIssue_MissingAssetsDegrade(t *testing.T) {
	f := newFixture(t)
	req := request()
	req.Assets = issuance.Assets{Seal: "missing-seal", Signature: "missing-signature"}

	out, err := f.svc.Issue(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, string(out.Bytes), layout.SealPlaceholder)
	assert.Contains(t, string(out.Bytes), layout.SignaturePlaceholder)
}

func TestIssue_OverlaysAnnotations(t *testing.T) {
	f := newFixture(t)
	ctx := appctx.WithCaller(context.Background(), &appctx.Caller{UserID: "u1", Name: "Juan Pérez"})
	_, err := f.notes.Create(ctx, annotation.CreateInput{DocumentID: "doc-1", Text: "Revisar cifras"})
	require.NoError(t, err)

	plain, err := f.svc.Issue(context.Background(), request())
	require.NoError(t, err)

	req := request()
	req.AnnotationPage = 1
	annotated, err := f.svc.Issue(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, plain.PageCount, annotated.PageCount)
	assert.NotEqual(t, plain.Bytes, annotated.Bytes)
}

func TestIssue_DecreeBody(t *testing.T) {
	req := request()
	req.Body = "ignored"
	req.Decree = &content.Decree{Articulado: []string{"Se dispone."}}

	blocks := req.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, content.HeadingDecreta, blocks[0].Text)

	req.Decree = &content.Decree{}
	assert.Equal(t, []content.Block{content.Paragraph("ignored")}, req.Blocks())
}

func TestConvert_PassesMarkup(t *testing.T) {
	f := newFixture(t)
	out, err := f.svc.Convert(context.Background(), request(), "docx")
	require.NoError(t, err)

	assert.Equal(t, "converted", string(out))
	assert.Equal(t, "docx", f.conv.target)
	assert.Contains(t, string(f.conv.markup), "Se informa lo siguiente.")
	assert.Contains(t, string(f.conv.markup), "<li>dos</li>")
}

func TestConvert_WithoutConverter(t *testing.T) {
	engine, err := layout.NewEngine(layout.DefaultConfig())
	require.NoError(t, err)
	svc := issuance.NewService(layout.DefaultConfig(), issuance.Deps{Engine: engine})

	_, err = svc.Convert(context.Background(), request(), "docx")
	assert.Equal(t, apperror.CodeInternal, code(t, err))
}
