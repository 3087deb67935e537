package pdfcheck

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePDF(t *testing.T, pages int) string {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		pdf.AddPage()
		pdf.Cell(40, 10, "sheet")
	}
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, pdf.OutputFileAndClose(path))
	return path
}

func TestVerify(t *testing.T) {
	path := writePDF(t, 3)

	rep, err := Verify(path, 3)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", rep.MIMEType)
	assert.Equal(t, 3, rep.Pages)

	rep, err = Verify(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Pages)
}

func TestVerify_PageMismatch(t *testing.T) {
	path := writePDF(t, 2)

	_, err := Verify(path, 5)
	require.ErrorIs(t, err, ErrPageMismatch)
}

func TestVerify_NotPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")
	require.NoError(t, os.WriteFile(path, []byte("just some text\n"), 0o644))

	_, err := Verify(path, 1)
	require.ErrorIs(t, err, ErrNotPDF)
}

func TestVerify_Missing(t *testing.T) {
	_, err := Verify(filepath.Join(t.TempDir(), "missing.pdf"), 1)
	require.Error(t, err)
}
