package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"LIBRA-backend/internal/platform/config"
)

// Document は CSV / PDF 共通の中間表現
type Document struct {
	Title string
	Lines []string   // 見出しの下に出す1行テキスト
	Table [][]string // 先頭行をヘッダとして扱う
}

func (s LibraryStats) Document() Document {
	d := Document{
		Title: "Статистика библиотеки",
		Lines: []string{"Максимальный штраф: " + s.MaxFine + " руб."},
		Table: [][]string{{"Книга", "Выдач"}},
	}
	for _, p := range s.Popular {
		d.Table = append(d.Table, []string{p.Name, strconv.Itoa(p.Count)})
	}
	return d
}

func (r ClientReport) Document() Document {
	return Document{
		Title: "Отчет по клиенту",
		Lines: []string{
			"ФИО: " + r.FullName,
			"Книг на руках: " + strconv.Itoa(r.BooksOnHand),
			"Общий штраф: " + r.TotalFine + " руб.",
		},
	}
}

func (r OverdueReport) Document() Document {
	d := Document{
		Title: "Отчет по просроченным книгам",
		Lines: []string{"Дата: " + r.Date},
		Table: [][]string{{"Клиент", "Книга", "Срок возврата", "Дней", "Штраф"}},
	}
	for _, it := range r.Items {
		d.Table = append(d.Table, []string{
			it.ClientName, it.BookName, it.DateEnd, strconv.FormatInt(it.DaysOverdue, 10), it.Fine,
		})
	}
	return d
}

// WriteCSV: タイトル、テキスト行、空行、表 の順に書く
func WriteCSV(w io.Writer, d Document, enc string) (err error) {
	if enc == config.EncodingWindows1251 {
		// 1251 に無い文字は置換する
		tw := transform.NewWriter(w, encoding.ReplaceUnsupported(charmap.Windows1251.NewEncoder()))
		defer func() {
			if cerr := tw.Close(); err == nil {
				err = cerr
			}
		}()
		w = tw
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{d.Title}); err != nil {
		return err
	}
	for _, l := range d.Lines {
		if err := cw.Write([]string{l}); err != nil {
			return err
		}
	}
	if len(d.Table) > 0 {
		if err := cw.Write([]string{""}); err != nil {
			return err
		}
		if err := cw.WriteAll(d.Table); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

const pdfFontFamily = "report"

// WritePDF: fontPath が空なら組み込みフォント（キリル文字は表示できない）
func WritePDF(w io.Writer, d Document, fontPath string) error {
	var pdf *fpdf.Fpdf
	family := "Helvetica"
	tr := func(s string) string { return s }
	if fontPath != "" {
		// フォントはフォントディレクトリからの相対名で指定する
		pdf = fpdf.New("P", "mm", "A4", filepath.Dir(fontPath))
		pdf.AddUTF8Font(pdfFontFamily, "", filepath.Base(fontPath))
		family = pdfFontFamily
	} else {
		pdf = fpdf.New("P", "mm", "A4", "")
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	pdf.SetTitle(d.Title, true)
	pdf.AddPage()

	pdf.SetFont(family, "", 14)
	pdf.CellFormat(0, 10, tr(d.Title), "", 1, "L", false, 0, "")
	pdf.SetFont(family, "", 11)
	for _, l := range d.Lines {
		pdf.CellFormat(0, 7, tr(l), "", 1, "L", false, 0, "")
	}

	if len(d.Table) > 0 {
		pdf.Ln(4)
		width := 190.0 / float64(len(d.Table[0]))
		for i, row := range d.Table {
			fill := i == 0
			if fill {
				pdf.SetFillColor(230, 230, 230)
			}
			for _, cell := range row {
				pdf.CellFormat(width, 7, tr(cell), "1", 0, "L", fill, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}
