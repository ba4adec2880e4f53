package infra

// pdf.go — close-of-register report generation using go-pdf/fpdf.
// One A5 page per session: opening/closing amounts, reconciliation
// difference, and the full movement listing.

import (
	"fmt"
	"os"
	"path/filepath"

	"cajapos/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateReporteCierrePDF renders the session report for a closed caja.
// storagePath is created if needed; returns the absolute path of the file.
func GenerateReporteCierrePDF(caja *model.Caja, movimientos []model.MovimientoCaja, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("cierre_%s.pdf", caja.ID)
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 20

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, "Reporte de Cierre de Caja", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Sesión "+caja.ID.String(), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	// ── Session summary ──────────────────────────────────────────────────────
	linea := func(label, value string) {
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW*0.55, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(contentW*0.45, 6, value, "", 1, "R", false, 0, "")
	}
	linea("Abierta por:", caja.AbiertaPor)
	linea("Apertura:", caja.AbiertaEn.Format("02/01/2006 15:04"))
	if caja.CerradaPor != nil {
		linea("Cerrada por:", *caja.CerradaPor)
	}
	if caja.CerradaEn != nil {
		linea("Cierre:", caja.CerradaEn.Format("02/01/2006 15:04"))
	}
	linea("Monto de apertura:", "$"+caja.MontoApertura.StringFixed(2))
	if caja.MontoCierre != nil {
		linea("Monto contado:", "$"+caja.MontoCierre.StringFixed(2))
	}
	if caja.Diferencia != nil && !caja.Diferencia.IsZero() {
		linea("Diferencia de arqueo:", "$"+caja.Diferencia.StringFixed(2))
	}

	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Movement table ───────────────────────────────────────────────────────
	col1 := contentW * 0.42 // concepto
	col2 := contentW * 0.18 // tipo
	col3 := contentW * 0.20 // actor
	col4 := contentW * 0.20 // monto

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(col1, 5, "Concepto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Tipo", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Actor", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 5, "Monto", "B", 1, "R", false, 0, "")

	ingresos := decimal.Zero
	egresos := decimal.Zero

	pdf.SetFont("Helvetica", "", 8)
	for i := range movimientos {
		m := &movimientos[i]
		concepto := m.Concepto
		if len(concepto) > 32 {
			concepto = concepto[:31] + "…"
		}
		monto := "$" + m.Monto.StringFixed(2)
		if m.Tipo == model.MovimientoEgreso {
			monto = "-" + monto
			egresos = egresos.Add(m.Monto)
		} else {
			ingresos = ingresos.Add(m.Monto)
		}
		pdf.CellFormat(col1, 5, concepto, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, m.Tipo, "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, m.ActorNombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col4, 5, monto, "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(10, pdf.GetY(), pageW-10, pdf.GetY())
	pdf.Ln(2)

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2+col3, 6, "Total ingresos:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+ingresos.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2+col3, 6, "Total egresos:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+egresos.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(col1+col2+col3, 6, "Saldo final:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "$"+caja.MontoActual.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}
