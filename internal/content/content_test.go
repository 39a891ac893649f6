package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ParagraphThenList(t *testing.T) {
	got := Parse("<p>A</p><ul><li>x</li><li>y</li></ul>")
	assert.Equal(t, []Block{
		Paragraph("A"),
		List(false, "x", "y"),
	}, got)
}

func TestParse_OrderedList(t *testing.T) {
	got := Parse("<ol><li>uno</li><li> dos </li></ol>")
	require.Len(t, got, 1)
	assert.True(t, got[0].Ordered)
	assert.Equal(t, []string{"uno", "dos"}, got[0].Items)
}

func TestParse_Headings(t *testing.T) {
	got := Parse("<h1>Title</h1><h2>Sub</h2><h4>Deep</h4><h6>Deeper</h6>")
	require.Len(t, got, 4)
	assert.Equal(t, Heading(1, "Title"), got[0])
	assert.Equal(t, Heading(2, "Sub"), got[1])
	assert.Equal(t, 3, got[2].Level)
	assert.Equal(t, 3, got[3].Level)
}

func TestParse_LineBreakKeptInsideParagraph(t *testing.T) {
	got := Parse("<p>line one<br>line   two<br/></p>")
	require.Len(t, got, 1)
	assert.Equal(t, "line one\nline two", got[0].Text)
}

func TestParse_EntitiesDecoded(t *testing.T) {
	got := Parse("<p>Tom &amp; Jerry &lt;3&gt; &quot;ok&quot; &#39;x&#39;&nbsp;&#233;</p>")
	require.Len(t, got, 1)
	assert.Equal(t, "Tom & Jerry <3> \"ok\" 'x'\u00a0é", got[0].Text)
}

func TestParse_NoBreakSpaceKeptInsideText(t *testing.T) {
	got := Parse("<p>Art.&nbsp;5  del&nbsp;&nbsp;decreto</p><p>&nbsp;</p><ul><li>&nbsp;item&nbsp;</li></ul>")
	require.Len(t, got, 2)
	assert.Equal(t, "Art.\u00a05 del\u00a0\u00a0decreto", got[0].Text)
	assert.Equal(t, []string{"item"}, got[1].Items)
}

func TestParse_UnknownTagsFlattened(t *testing.T) {
	got := Parse("<p>Se <strong>resuelve</strong> <em>aprobar</em> el <span>informe</span>.</p>")
	require.Len(t, got, 1)
	assert.Equal(t, "Se resuelve aprobar el informe.", got[0].Text)
}

func TestParse_ScriptAndStyleDropped(t *testing.T) {
	got := Parse("<style>p{color:red}</style><p>visible</p><script>alert(1)</script>")
	assert.Equal(t, []Block{Paragraph("visible")}, got)
}

func TestParse_EmptyBlocksDropped(t *testing.T) {
	got := Parse("<p>   </p><h2></h2><ul><li> </li></ul><p>x</p>")
	assert.Equal(t, []Block{Paragraph("x")}, got)
}

func TestParse_NestedListsFlatten(t *testing.T) {
	got := Parse("<ul><li>a<ul><li>b</li></ul></li><li>c</li></ul>")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"a", "b", "c"}, got[0].Items)
}

func TestParse_StrayListItemOpensList(t *testing.T) {
	got := Parse("<p>intro</p><li>solo</li>")
	assert.Equal(t, []Block{Paragraph("intro"), List(false, "solo")}, got)
}

func TestParse_DivActsAsParagraphBoundary(t *testing.T) {
	got := Parse("<div>one</div><div>two</div>")
	assert.Equal(t, []Block{Paragraph("one"), Paragraph("two")}, got)
}

func TestParse_TextOutsideTags(t *testing.T) {
	got := Parse("loose text <b>bold</b>")
	assert.Equal(t, []Block{Paragraph("loose text bold")}, got)
}

func TestParse_NFC(t *testing.T) {
	got := Parse("<p>Pe\u0301rez</p>")
	require.Len(t, got, 1)
	assert.Equal(t, "P\u00e9rez", got[0].Text)
}

func TestParse_Deterministic(t *testing.T) {
	in := "<h2>Asunto</h2><p>Texto <i>largo</i></p><ol><li>1</li></ol>"
	assert.Equal(t, Parse(in), Parse(in))
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
	assert.Empty(t, Parse("   \n\t "))
}

func TestParsePlain_ParagraphsAndHeading(t *testing.T) {
	in := "ANTECEDENTES\n\nPrimera linea\ncontinua aqui.\n\nSegundo parrafo."
	got := Parse(in)
	assert.Equal(t, []Block{
		Heading(2, "ANTECEDENTES"),
		Paragraph("Primera linea continua aqui."),
		Paragraph("Segundo parrafo."),
	}, got)
}

func TestParsePlain_Lists(t *testing.T) {
	in := "Puntos:\n\n- alfa\n- beta\n  sigue beta\n\n1. uno\n2) dos\na) tres"
	got := Parse(in)
	require.Len(t, got, 3)
	assert.Equal(t, Paragraph("Puntos:"), got[0])
	assert.Equal(t, List(false, "alfa", "beta sigue beta"), got[1])
	assert.Equal(t, List(true, "uno", "dos", "tres"), got[2])
}

func TestParsePlain_MarkerChangeSplitsList(t *testing.T) {
	got := Parse("• a\n1. b")
	assert.Equal(t, []Block{List(false, "a"), List(true, "b")}, got)
}

func TestParsePlain_EntitiesAndCRLF(t *testing.T) {
	got := Parse("Juan &amp; Ana\r\n\r\nfin")
	assert.Equal(t, []Block{Paragraph("Juan & Ana"), Paragraph("fin")}, got)
}

func TestParsePlain_LessThanWithoutTags(t *testing.T) {
	got := Parse("monto < 100")
	assert.Equal(t, []Block{Paragraph("monto < 100")}, got)
}

func TestIsAllCapsLine(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"RESUELVE", true},
		{"ARTÍCULO ÚNICO", true},
		{"OK", false},
		{"Resuelve", false},
		{"123-456", false},
		{"SE RESUELVE que", true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, isAllCapsLine(tt.line))
		})
	}
}

func TestFromDecree(t *testing.T) {
	got := FromDecree(Decree{
		Considerandos: []string{"Que es necesario.", "  "},
		Articulado:    []string{"Aprobar.", "Publicar."},
	})
	assert.Equal(t, []Block{
		Heading(2, HeadingConsiderando),
		Paragraph("Que es necesario."),
		Heading(2, HeadingDecreta),
		Paragraph("Artículo 1.- Aprobar."),
		Paragraph("Artículo 2.- Publicar."),
	}, got)
}

func TestDecree_IsEmpty(t *testing.T) {
	assert.True(t, Decree{}.IsEmpty())
	assert.True(t, Decree{Articulado: []string{" "}}.IsEmpty())
	assert.False(t, Decree{Disposiciones: []string{"x"}}.IsEmpty())
}

func TestPlainText(t *testing.T) {
	blocks := []Block{
		Heading(1, "Title"),
		Paragraph("Body"),
		List(true, "a", "b"),
		List(false, "c"),
	}
	assert.Equal(t, "Title\n\nBody\n\n1. a\n2. b\n\n• c", PlainText(blocks))
}
