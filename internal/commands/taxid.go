package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cnab-dev/cnab/internal/taxid"
)

func newTaxIDCommand() *cobra.Command {
	var kindFlag string

	cmd := &cobra.Command{
		Use:   "taxid <number>",
		Short: "Validate a CPF or CNPJ",
		Long: "Validate a CPF or CNPJ. Up to 11 digits is taken as a CPF and longer\n" +
			"numbers as a CNPJ unless --type is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digits := taxid.Digits(args[0])

			var kind taxid.Kind
			switch strings.ToLower(kindFlag) {
			case "":
				kind = taxid.KindCNPJ
				if len(digits) <= taxid.CPFLength {
					kind = taxid.KindCPF
				}
			case "cpf":
				kind = taxid.KindCPF
			case "cnpj":
				kind = taxid.KindCNPJ
			default:
				return fmt.Errorf("unknown type %q (want cpf or cnpj)", kindFlag)
			}

			if err := taxid.Validate(kind, digits); err != nil {
				return fmt.Errorf("%s %s: %w", kind, digits, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s: valid\n", kind, digits)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "type", "", "cpf or cnpj")

	return cmd
}
