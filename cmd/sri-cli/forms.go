package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garyjia/sri-declaraciones/internal/formview"
	"github.com/garyjia/sri-declaraciones/internal/models"
)

func newFormCommand(a *app) *cobra.Command {
	var (
		filters formview.Filters
		csvDir  string
	)
	cmd := &cobra.Command{
		Use:       "form <103|104> <id>",
		Short:     "Show the parsed data of a Form 103 or 104",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"103", "104"},
		RunE: func(cmd *cobra.Command, args []string) error {
			formType, ok := models.ParseFormType("form_" + args[0])
			if !ok {
				return fmt.Errorf("unknown form %q, expected 103 or 104", args[0])
			}
			id, err := parseDocumentID(args[1])
			if err != nil {
				return err
			}

			data, err := a.client.FormData(cmd.Context(), formType, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var filename string
			switch form := data.(type) {
			case *models.Form103Data:
				filename = form.Filename
				if err := printForm103(out, form, filters); err != nil {
					return err
				}
			case *models.Form104Data:
				filename = form.Filename
				if err := printForm104(out, form, filters); err != nil {
					return err
				}
			}

			if csvDir == "" {
				return nil
			}
			path := filepath.Join(csvDir, formview.CSVFilename(formType, filename))
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()
			switch form := data.(type) {
			case *models.Form103Data:
				err = formview.WriteForm103CSV(f, form, filters)
			case *models.Form104Data:
				err = formview.WriteForm104CSV(f, form, filters)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&filters.HideZero, "hide-zero", false, "hide rows whose amounts are all zero")
	cmd.Flags().BoolVar(&filters.HideGross, "hide-gross", false, "hide gross (bruto) amounts of Form 104")
	cmd.Flags().StringVar(&csvDir, "csv", "", "also write the visible rows as CSV into this directory")
	return cmd
}

func printForm103(w io.Writer, form *models.Form103Data, f formview.Filters) error {
	fmt.Fprintf(w, "%s  %s  %s\n", form.RazonSocial, form.Periodo, form.FechaRecaudacion)
	tw := newTable(w)
	fmt.Fprintln(tw, "CONCEPTO\tCÓD. BASE\tBASE IMPONIBLE\tCÓD. RET.\tVALOR RETENIDO")
	for _, li := range formview.Form103LineItems(form, f) {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%.2f\n", li.Concepto, li.CodigoBase, li.BaseImponible, li.CodigoRetencion, li.ValorRetenido)
	}
	return tw.Flush()
}

func printForm104(w io.Writer, form *models.Form104Data, f formview.Filters) error {
	fmt.Fprintf(w, "%s  %s  %s\n", form.RazonSocial, form.Periodo, form.FechaRecaudacion)
	view := formview.Form104(form, f)
	tw := newTable(w)
	section := func(title string, fields []models.Field) {
		fmt.Fprintf(tw, "\n%s\t\n", title)
		for _, field := range fields {
			fmt.Fprintf(tw, "%s\t%.2f\n", field.Label(), field.Value)
		}
	}
	section("VENTAS", view.Ventas)
	section("COMPRAS", view.Compras)
	fmt.Fprintf(tw, "\nRETENCIONES IVA\t\n")
	for _, r := range view.RetencionesIVA {
		fmt.Fprintf(tw, "%d%%\t%.2f\n", r.Porcentaje, r.Valor)
	}
	section("TOTALES", view.Totals)
	return tw.Flush()
}
