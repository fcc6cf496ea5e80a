package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/sri-declaraciones/internal/clientview"
	"github.com/garyjia/sri-declaraciones/internal/models"
	"github.com/garyjia/sri-declaraciones/internal/period"
	"github.com/garyjia/sri-declaraciones/internal/summaryview"
)

func newClientsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List clients with processed documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := clientview.NewClientList(a.client).Clients(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "RAZÓN SOCIAL\tDOCUMENTS\tFIRST YEAR\tLAST YEAR")
			for _, c := range clients {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.RazonSocial, c.DocumentCount, c.FirstYear, c.LastYear)
			}
			return tw.Flush()
		},
	}
}

func newClientCommand(a *app) *cobra.Command {
	var months bool
	cmd := &cobra.Command{
		Use:   "client <razon-social>",
		Short: "Show a client's years with month completeness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail := clientview.NewClientDetail(a.client, args[0], a.logger)
			err := detail.LoadClientData(cmd.Context(), false)
			if err != nil && !errors.Is(err, clientview.ErrNoValidPeriods) {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, detail.RazonSocial())
			if err != nil {
				fmt.Fprintln(out, err)
			}

			tw := newTable(out)
			fmt.Fprintln(tw, "YEAR\tCOMPLETE\tRATE\tSUMMARY")
			for _, row := range detail.YearRows() {
				year := row.Year
				if row.Badge != "" {
					year += " " + row.Badge
				}
				summary := "no"
				if row.SummaryEnabled {
					summary = "yes"
				}
				fmt.Fprintf(tw, "%s\t%d/12\t%d%%\t%s\n", year, row.CompleteMonths, row.CompletionRate, summary)
				if !months {
					continue
				}
				for _, m := range row.Months {
					fmt.Fprintf(tw, "  %s\t103: %s\t104: %s\t\n", m.MonthName, formRef(m.Form103ID), formRef(m.Form104ID))
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&months, "months", false, "list the documents of every month")
	return cmd
}

func formRef(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("#%d", *id)
}

type summaryFlags struct {
	exclude string
	out     string
}

func (f *summaryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "comma separated months to leave out of the totals, e.g. 2,5")
	cmd.Flags().StringVarP(&f.out, "out", "o", ".", "directory for exported files")
}

// open builds the summary state with the --exclude months. Nothing is loaded;
// the summary command loads once and exports go straight to the backend.
func (f *summaryFlags) open(a *app, razonSocial, year string) (*summaryview.YearlySummary, error) {
	excluded, err := period.ParseExcludeMonths(f.exclude)
	if err != nil {
		return nil, err
	}
	s, err := summaryview.New(a.client, razonSocial, year, f.out, a.logger)
	if err != nil {
		return nil, err
	}
	if err := s.SetExcludedMonths(excluded); err != nil {
		return nil, err
	}
	return s, nil
}

func newSummaryCommand(a *app) *cobra.Command {
	var flags summaryFlags
	cmd := &cobra.Command{
		Use:   "summary <razon-social> <year>",
		Short: "Show the yearly Form 103/104 summary of a client",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(a, args[0], args[1])
			if err != nil {
				return err
			}
			if err := s.LoadSummary(cmd.Context()); err != nil {
				return err
			}
			printSummary(cmd, s)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func printSummary(cmd *cobra.Command, s *summaryview.YearlySummary) {
	sum := s.Summary()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", sum.RazonSocial, sum.Year)
	if len(sum.ExcludedMonths) > 0 {
		fmt.Fprintf(out, "Excluded months: %s\n", period.FormatExcludeMonths(sum.ExcludedMonths))
	}

	tw := newTable(out)
	fmt.Fprintln(tw, "\nFORM 103\tSUBTOTAL\tRETENCIÓN\tIMPUESTO\tPAGADO")
	for _, r := range s.Form103Details() {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\n", monthLabel(r.Month, r.Excluded),
			r.SubtotalOperacionesPais, r.TotalRetencion, r.TotalImpuestoPagar, r.TotalPagado)
	}
	f103 := sum.Form103Summary
	fmt.Fprintf(tw, "TOTAL\t%.2f\t%.2f\t%.2f\t%.2f\n", f103.SubtotalOperacionesPais, f103.TotalRetencion, f103.TotalImpuestoPagar, f103.TotalPagado)

	fmt.Fprintln(tw, "\nFORM 104\tVENTAS\tIVA\tADQUISICIONES\tPAGADO")
	for _, r := range s.Form104Details() {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\n", monthLabel(r.Month, r.Excluded),
			r.TotalVentasNeto, r.TotalImpuestoGenerado, r.TotalAdquisiciones, r.TotalPagado)
	}
	f104 := sum.Form104Summary
	fmt.Fprintf(tw, "TOTAL\t%.2f\t%.2f\t%.2f\t%.2f\n", f104.TotalVentasNeto, f104.TotalImpuestoGenerado, f104.TotalAdquisiciones, f104.TotalPagado)
	_ = tw.Flush()

	if missing := sum.MissingMonths; len(missing.Form103)+len(missing.Form104) > 0 {
		fmt.Fprintf(out, "Missing months: 103 [%s] 104 [%s]\n",
			period.FormatExcludeMonths(missing.Form103), period.FormatExcludeMonths(missing.Form104))
	}
}

func monthLabel(month int, excluded bool) string {
	name := period.MonthName(month)
	if excluded {
		return name + " (excluido)"
	}
	return name
}

func newExportCommand(a *app) *cobra.Command {
	var (
		flags    summaryFlags
		branding = models.DefaultBranding()
	)
	cmd := &cobra.Command{
		Use:       "export <excel|pdf> <razon-social> <year>",
		Short:     "Download the yearly summary as Excel or branded PDF",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"excel", "pdf"},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := flags.open(a, args[1], args[2])
			if err != nil {
				return err
			}

			var path string
			switch args[0] {
			case "excel":
				path, err = s.ExportExcel(cmd.Context())
			case "pdf":
				s.SetBranding(branding)
				path, err = s.ExportPDF(cmd.Context())
				if errors.Is(err, models.ErrBrandingIncomplete) {
					return fmt.Errorf("%w: set --company-name and --footer", err)
				}
			default:
				return fmt.Errorf("unknown export format %q", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&branding.CompanyName, "company-name", "", "company shown in the PDF header")
	cmd.Flags().StringVar(&branding.FooterText, "footer", "", "PDF footer text")
	cmd.Flags().StringVar(&branding.LogoURL, "logo-url", "", "logo image URL")
	cmd.Flags().StringVar(&branding.PrimaryColor, "primary-color", models.DefaultPrimaryColor, "primary colour (#rrggbb)")
	cmd.Flags().StringVar(&branding.SecondaryColor, "secondary-color", models.DefaultSecondaryColor, "secondary colour (#rrggbb)")
	return cmd
}
