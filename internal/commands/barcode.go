package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cnab-dev/cnab/internal/checkdigit"
)

func newBarcodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "barcode <code>",
		Short: "Validate a barcode or digitable line",
		Long: "Validate a 44-digit barcode, or a 47/48-digit digitable line and print\n" +
			"the barcode it encodes. Dots, dashes and spaces are ignored.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBarcode(cmd.OutOrStdout(), args[0], time.Now())
		},
	}
	return cmd
}

func runBarcode(w io.Writer, code string, now time.Time) error {
	code = checkdigit.Normalize(code)

	barcode := code
	if len(code) != checkdigit.BarcodeLength {
		if err := checkdigit.ValidateDigitableLine(code); err != nil {
			return fmt.Errorf("digitable line: %w", err)
		}
		b, err := checkdigit.BarcodeFromDigitableLine(code)
		if err != nil {
			return fmt.Errorf("digitable line: %w", err)
		}
		barcode = b
	} else if err := checkdigit.ValidateBarcode(code); err != nil {
		return fmt.Errorf("barcode: %w", err)
	}

	kind := checkdigit.KindOf(barcode)
	fmt.Fprintf(w, "barcode: %s\n", barcode)
	fmt.Fprintf(w, "kind:    %s\n", kind)
	if kind != checkdigit.KindBankSlip {
		return nil
	}

	slip, err := checkdigit.ParseBankSlip(barcode)
	if err != nil {
		return fmt.Errorf("barcode: %w", err)
	}
	fmt.Fprintf(w, "bank:    %s\n", slip.Bank)
	fmt.Fprintf(w, "amount:  %s\n", slip.Amount.StringFixed(2))
	if due, ok := checkdigit.DueDate(slip.DueFactor, now); ok {
		fmt.Fprintf(w, "due:     %s\n", due.Format("2006-01-02"))
	}
	return nil
}
