package models

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const financialSheet = "Sheet1"

// WriteFinancialWorkbook writes one row per record, with the status derived at now.
func WriteFinancialWorkbook(w io.Writer, kind FinancialKind, records []FinancialRecord, now time.Time) error {
	cfg, err := KindConfig(kind)
	if err != nil {
		return err
	}
	f := excelize.NewFile()
	defer f.Close()

	headers := []string{"Numero", "Descricao", "Categoria", "Valor", "Vencimento", "Pagamento", "Status"}
	switch cfg.Kind {
	case FinancialKindTransaction:
		headers = append(headers, "Tipo", "Origem/Destino")
	case FinancialKindInvoice:
		headers = append(headers, "Cliente", "Servico")
	case FinancialKindExpense:
		headers = append(headers, "Fornecedor", "Recorrente")
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(financialSheet, cell, h); err != nil {
			return err
		}
	}

	for i, r := range records {
		values := []interface{}{
			r.Number,
			r.Description,
			r.Category,
			r.Amount.InexactFloat64(),
			r.DueDate.Format("2006-01-02"),
			"",
			string(DeriveFinancialStatus(r, now)),
		}
		if r.PaidAt != nil {
			values[5] = r.PaidAt.Format("2006-01-02")
		}
		switch cfg.Kind {
		case FinancialKindTransaction:
			counterpart := r.Origin
			if r.Direction == DirectionOut {
				counterpart = r.Destination
			}
			values = append(values, string(r.Direction), counterpart)
		case FinancialKindInvoice:
			values = append(values, r.CustomerName, r.Service)
		case FinancialKindExpense:
			recurring := "Nao"
			if r.Recurring {
				recurring = fmt.Sprintf("Sim (%s)", r.Periodicity)
			}
			values = append(values, r.Supplier, recurring)
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(financialSheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.Write(w)
}

func FinancialExportFilename(kind FinancialKind, now time.Time) string {
	cfg, err := KindConfig(kind)
	if err != nil {
		return "export.xlsx"
	}
	return fmt.Sprintf("%s-%s.xlsx", cfg.Path, now.Format("20060102"))
}
