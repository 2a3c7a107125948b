package extract

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeRunner struct {
	stdout []byte
	err    error
	calls  [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.stdout, []byte("stderr detail"), f.err
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestPlainTextAndCode(t *testing.T) {
	r := NewRegistry(Config{Runner: &fakeRunner{}}, nil)
	ctx := context.Background()

	p := writeFile(t, "main.py", []byte("def f():\n    return 1\n"))
	text, ok := r.Extract(ctx, p, "")
	require.True(t, ok)
	assert.Equal(t, "def f():\n    return 1\n", text)

	p = writeFile(t, "notes.txt", []byte("caf\xe9 au lait"))
	text, ok = r.Extract(ctx, p, "text/plain; charset=unknown")
	require.True(t, ok)
	assert.Equal(t, "café au lait", text)
}

func TestDecodeText(t *testing.T) {
	text, enc := DecodeText([]byte("\xEF\xBB\xBFhello"))
	assert.Equal(t, "hello", text)
	assert.Equal(t, "utf-8", enc)

	text, enc = DecodeText([]byte{'n', 0xe4, 'h'})
	assert.Equal(t, "näh", text)
	assert.Equal(t, "latin-1", enc)
}

func TestHTMLExtraction(t *testing.T) {
	r := NewRegistry(Config{Runner: &fakeRunner{}}, nil)
	p := writeFile(t, "page.html", []byte(`<html><head><style>p{}</style></head><body>
<header>Top</header><nav>Links</nav>
<h1>Heading</h1>
<p>Body text</p>
<footer>Bottom</footer><script>alert(1)</script>
</body></html>`))

	text, ok := r.Extract(context.Background(), p, "text/html")
	require.True(t, ok)
	assert.Equal(t, "Heading\nBody text", text)
}

func writeDOCX(t *testing.T, documentXML string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "doc.docx")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestDOCXParagraphsInOrder(t *testing.T) {
	r := NewRegistry(Config{Runner: &fakeRunner{}}, nil)
	p := writeDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>
<w:p><w:r><w:t>Col A</w:t><w:tab/><w:t>Col B</w:t></w:r></w:p>
<w:p><w:r><w:t>Last</w:t></w:r></w:p>
</w:body></w:document>`)

	text, ok := r.Extract(context.Background(), p, "")
	require.True(t, ok)
	assert.Equal(t, "Hello world\n\nCol A\tCol B\n\nLast", text)
}

func TestCorruptDOCXDegrades(t *testing.T) {
	r := NewRegistry(Config{Runner: &fakeRunner{}}, nil)
	p := writeFile(t, "broken.docx", []byte("not a zip"))
	text, ok := r.Extract(context.Background(), p, "")
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestPDFPagesJoined(t *testing.T) {
	runner := &fakeRunner{stdout: []byte("Page one  \r\n\fPage two\n\n\n\nmore\f")}
	r := NewRegistry(Config{Pdftotext: "pdftotext", Runner: runner}, nil)
	p := writeFile(t, "paper.pdf", []byte("%PDF-1.4"))

	text, ok := r.Extract(context.Background(), p, "application/pdf")
	require.True(t, ok)
	assert.Equal(t, "Page one\n\nPage two\n\nmore", text)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"pdftotext", "-layout", "-enc", "UTF-8", "-eol", "unix", p, "-"}, runner.calls[0])
}

func TestPDFFailureDegrades(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	r := NewRegistry(Config{Runner: runner}, nil)
	_, ok := r.Extract(context.Background(), writeFile(t, "bad.pdf", []byte("junk")), "")
	assert.False(t, ok)
}

func TestPDFUnavailableWithoutBinary(t *testing.T) {
	r := NewRegistry(Config{Pdftotext: "kvault-no-such-pdftotext"}, nil)
	assert.NotContains(t, r.Formats(), "pdf")
	_, ok := r.Extract(context.Background(), writeFile(t, "x.pdf", []byte("%PDF")), "application/pdf")
	assert.False(t, ok)
}

func TestUnsupportedFormats(t *testing.T) {
	r := NewRegistry(Config{Runner: &fakeRunner{}}, nil)
	ctx := context.Background()
	for _, name := range []string{"blob.bin", "legacy.doc", "clip.mp4"} {
		t.Run(name, func(t *testing.T) {
			text, ok := r.Extract(ctx, writeFile(t, name, []byte{0, 1, 2}), "application/octet-stream")
			assert.False(t, ok)
			assert.Empty(t, text)
		})
	}
}

func TestXLSXExtraction(t *testing.T) {
	p := filepath.Join(t.TempDir(), "inventory.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "qty"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "apple"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", 3))
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	r := NewRegistry(Config{Runner: &fakeRunner{}}, nil)
	text, ok := r.Extract(context.Background(), p, "")
	require.True(t, ok)
	assert.Equal(t, "Sheet1\nname\tqty\napple\t3", text)
}
