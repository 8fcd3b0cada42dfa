package template

import "github.com/solde-app/solde/internal/domain/statement/candidate"

// Builtin returns the registry of bank formats the importer knows out of the
// box. Ordering is deliberate: it doubles as the suggestion tie-break when a
// chosen template does not match the uploaded headers.
func Builtin() *Registry {
	r, err := NewRegistry(
		Template{
			ID:          "cgd-checking",
			DisplayName: "Caixa Geral de Depósitos (conta à ordem)",
			Kind:        candidate.KindChecking,
			Columns: Columns{
				Date:        []string{"data mov.", "data mov", "data valor"},
				Debit:       []string{"débito", "debito"},
				Credit:      []string{"crédito", "credito"},
				Description: []string{"descrição", "descricao"},
			},
			Locale:     Locale{FieldSeparator: ';', DecimalSeparator: ',', HeaderRowsToSkip: 6},
			MinColumns: 5,
		},
		Template{
			ID:          "millennium-checking",
			DisplayName: "Millennium BCP (conta à ordem)",
			Kind:        candidate.KindChecking,
			Columns: Columns{
				Date:        []string{"data lançamento", "data lancamento", "data valor"},
				Amount:      []string{"montante", "valor"},
				Description: []string{"descritivo", "descrição", "descricao"},
				Identifier:  []string{"nº documento", "n. documento"},
			},
			Locale:     Locale{FieldSeparator: ';', DecimalSeparator: ',', HeaderRowsToSkip: 1},
			MinColumns: 4,
		},
		Template{
			ID:          "revolut",
			DisplayName: "Revolut",
			Kind:        candidate.KindChecking,
			Columns: Columns{
				Date:        []string{"started date", "completed date"},
				Amount:      []string{"amount"},
				Description: []string{"description"},
			},
			Locale:     Locale{FieldSeparator: ',', DecimalSeparator: '.'},
			MinColumns: 6,
		},
		Template{
			ID:          "unicre-card",
			DisplayName: "Unicre (cartão de crédito)",
			Kind:        candidate.KindCreditCard,
			Columns: Columns{
				Date:        []string{"data movimento", "data"},
				Amount:      []string{"montante", "valor"},
				Description: []string{"descrição", "descricao"},
				Identifier:  []string{"referência", "referencia"},
			},
			Locale:     Locale{FieldSeparator: ';', DecimalSeparator: ',', HeaderRowsToSkip: 1},
			MinColumns: 3,
		},
		Template{
			ID:          "generic-csv",
			DisplayName: "Generic CSV",
			Kind:        candidate.KindChecking,
			Columns: Columns{
				Date:        []string{"date", "data"},
				Amount:      []string{"amount", "value"},
				Description: []string{"description", "memo"},
			},
			Locale:     DefaultLocale,
			MinColumns: 3,
		},
	)
	if err != nil {
		// The catalog is static; a bad entry is a programming error.
		panic(err)
	}
	return r
}
