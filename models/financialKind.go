package models

import (
	"fmt"
	"strings"

	"github.com/despasys/despasys_backend/utils"
)

type FinancialKind string

const (
	FinancialKindTransaction FinancialKind = "TRANSACTION"
	FinancialKindInvoice     FinancialKind = "INVOICE"
	FinancialKindExpense     FinancialKind = "EXPENSE"
)

type FinancialDirection string

const (
	DirectionIn  FinancialDirection = "ENTRADA"
	DirectionOut FinancialDirection = "SAIDA"
)

// FinancialKindConfig is everything that differs between transactions,
// invoices and expenses. The aggregate logic is shared.
type FinancialKindConfig struct {
	Kind            FinancialKind
	Path            string
	Label           string
	NumberFormat    string
	Categories      []string
	RequireCategory bool
	// transactions carry a direction with origin (ENTRADA) or destination (SAIDA)
	RequireDirection bool
	RequireCustomer  bool
	RequireSupplier  bool
}

var financialKinds = map[FinancialKind]FinancialKindConfig{
	FinancialKindTransaction: {
		Kind:             FinancialKindTransaction,
		Path:             "transacoes",
		Label:            "Transações",
		NumberFormat:     "T%06d",
		RequireDirection: true,
	},
	FinancialKindInvoice: {
		Kind:            FinancialKindInvoice,
		Path:            "receitas",
		Label:           "Receitas",
		NumberFormat:    "FAT-%03d",
		RequireCustomer: true,
	},
	FinancialKindExpense: {
		Kind:            FinancialKindExpense,
		Path:            "despesas",
		Label:           "Despesas",
		NumberFormat:    "DESP-%03d",
		Categories:      []string{"FIXA", "VARIAVEL", "OPERACIONAL", "IMPOSTO"},
		RequireCategory: true,
		RequireSupplier: true,
	},
}

var periodicities = []string{"SEMANAL", "MENSAL", "BIMESTRAL", "TRIMESTRAL", "SEMESTRAL", "ANUAL"}

func KindConfig(kind FinancialKind) (FinancialKindConfig, error) {
	cfg, ok := financialKinds[kind]
	if !ok {
		return FinancialKindConfig{}, utils.NewValidationError("kind", fmt.Sprintf("invalid financial kind %q", kind))
	}
	return cfg, nil
}

// FinancialKindFromPath maps the URL segment (transacoes, receitas, despesas) or the kind itself.
func FinancialKindFromPath(raw string) (FinancialKind, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	for kind, cfg := range financialKinds {
		if v == cfg.Path || strings.EqualFold(v, string(kind)) {
			return kind, nil
		}
	}
	return "", utils.NewValidationError("kind", fmt.Sprintf("invalid financial kind %q", raw))
}

func (cfg FinancialKindConfig) FormatNumber(seq int64) string {
	return fmt.Sprintf(cfg.NumberFormat, seq)
}

// CategoryKey is the stored form of a category. Writes and filters both go
// through it so a case-sensitive collation still matches.
func CategoryKey(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormalizeCategory upper-cases a category and checks it against the kind's vocabulary, if any.
func (cfg FinancialKindConfig) NormalizeCategory(raw string) (string, error) {
	category := CategoryKey(raw)
	if category == "" {
		if cfg.RequireCategory {
			return "", utils.RequiredField("category")
		}
		return "", nil
	}
	if len(cfg.Categories) == 0 {
		return category, nil
	}
	for _, c := range cfg.Categories {
		if c == category {
			return c, nil
		}
	}
	return "", utils.NewValidationError("category", fmt.Sprintf("invalid category %q", raw))
}

func normalizePeriodicity(raw string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(raw))
	for _, known := range periodicities {
		if p == known {
			return p, nil
		}
	}
	return "", utils.NewValidationError("periodicity", fmt.Sprintf("invalid periodicity %q", raw))
}

func parseDirection(raw string) (FinancialDirection, error) {
	d := FinancialDirection(strings.ToUpper(strings.TrimSpace(raw)))
	switch d {
	case DirectionIn, DirectionOut:
		return d, nil
	case "":
		return "", utils.RequiredField("direction")
	}
	return "", utils.NewValidationError("direction", fmt.Sprintf("invalid direction %q", raw))
}
