package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"govdoc/internal/core/apperror"
	"govdoc/internal/core/docnumber"
	"govdoc/internal/domain/numbering"
	"govdoc/internal/infrastructure/http/v1/dto"
)

var numberCmd = &cobra.Command{
	Use:   "number",
	Short: "Allocate and check document numbers",
}

var numberValidateCmd = &cobra.Command{
	Use:   "validate [number]",
	Short: "Check that a number is well formed",
	Args:  cobra.ExactArgs(1),
	RunE:  runNumberValidate,
}

var numberParseCmd = &cobra.Command{
	Use:   "parse [number]",
	Short: "Print the fields of a number as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runNumberParse,
}

var numberNextCmd = &cobra.Command{
	Use:   "next [ministry|correlative]",
	Short: "Allocate the next number of a family",
	Long: `Allocates the next number from the local database. With --owner the
allocation is idempotent: the same owner always gets the same number.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"ministry", "correlative"},
	RunE:      runNumberNext,
}

// next flags
var (
	nextOwner     string
	nextDirection string
	nextSub       int
	nextDate      string
)

func init() {
	numberNextCmd.Flags().StringVar(&nextOwner, "owner", "", "Document id the number is assigned to")
	numberNextCmd.Flags().StringVar(&nextDirection, "direction", "SAL", "Correlative direction: ENT or SAL")
	numberNextCmd.Flags().IntVar(&nextSub, "sub", 1, "Ministry office series")
	numberNextCmd.Flags().StringVar(&nextDate, "date", "", "Issue date (YYYY-MM-DD), default today")

	numberCmd.AddCommand(numberValidateCmd)
	numberCmd.AddCommand(numberParseCmd)
	numberCmd.AddCommand(numberNextCmd)
	rootCmd.AddCommand(numberCmd)
}

func runNumberValidate(cmd *cobra.Command, args []string) error {
	family := docnumber.Detect(args[0])
	if family == docnumber.FamilyUnknown {
		return apperror.NewInvalidNumberFormat(args[0])
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: valid %s number\n", args[0], family)
	return nil
}

func runNumberParse(cmd *cobra.Command, args []string) error {
	value := args[0]
	out := dto.ParseResponse{Value: value}

	if n, ok := docnumber.ParseMinistry(value); ok {
		out.Family = docnumber.FamilyMinistry.String()
		out.Ministry = dto.FromMinistry(n)
	} else if n, ok := docnumber.ParseCorrelative(value); ok {
		out.Family = docnumber.FamilyCorrelative.String()
		out.Correlative = dto.FromCorrelative(n)
	} else {
		return apperror.NewInvalidNumberFormat(value)
	}
	return printJSON(cmd, out)
}

func runNumberNext(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	date := time.Time{}
	if nextDate != "" {
		d, err := time.Parse(time.DateOnly, nextDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		date = d
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := numberingService(store)
	if err != nil {
		return err
	}

	var number string
	switch docnumber.ParseFamily(args[0]) {
	case docnumber.FamilyMinistry:
		number, err = svc.AssignMinistry(ctx, numbering.MinistryRequest{
			OwnerID:     nextOwner,
			Date:        date,
			SubSequence: nextSub,
		})
	case docnumber.FamilyCorrelative:
		number, err = svc.AssignCorrelative(ctx, numbering.CorrelativeRequest{
			OwnerID:   nextOwner,
			Direction: docnumber.Direction(strings.ToUpper(nextDirection)),
			Date:      date,
		})
	default:
		return errors.New("family must be ministry or correlative")
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), number)
	return nil
}
