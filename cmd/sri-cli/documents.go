package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/sri-declaraciones/internal/apiclient"
	"github.com/garyjia/sri-declaraciones/internal/models"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func parseDocumentID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid document ID %q", arg)
	}
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func newUploadCommand(a *app) *cobra.Command {
	var (
		wait     bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "upload <file.pdf>...",
		Short: "Upload one or more SRI form PDFs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			parts := make([]apiclient.UploadPart, 0, len(args))
			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				parts = append(parts, apiclient.UploadPart{Filename: filepath.Base(path), Content: f})
			}

			out := cmd.OutOrStdout()
			var ids []int64
			if len(parts) == 1 {
				res, err := a.client.UploadSingle(ctx, parts[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: document %d (%s, %s)\n", res.Filename, res.DocumentID, res.FormType, res.ProcessingStatus)
				ids = append(ids, res.DocumentID)
			} else {
				res, err := a.client.UploadBulk(ctx, parts)
				if err != nil {
					return err
				}
				for _, up := range res.Uploaded {
					fmt.Fprintf(out, "%s: document %d (%s, %s)\n", up.Filename, up.DocumentID, up.FormType, up.ProcessingStatus)
					ids = append(ids, up.DocumentID)
				}
				for _, failed := range res.Failed {
					fmt.Fprintf(out, "%s: rejected (%s)\n", failed.Filename, failed.Error)
				}
			}

			if !wait {
				return nil
			}
			for _, id := range ids {
				st, err := waitForDocument(ctx, a, id, interval)
				if err != nil {
					return err
				}
				line := fmt.Sprintf("document %d: %s", id, st.ProcessingStatus)
				if st.ProcessingError != nil {
					line += " (" + *st.ProcessingError + ")"
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until processing finishes")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "polling interval for --wait")
	return cmd
}

// waitForDocument polls the upload status until the document leaves the
// pending and processing states
func waitForDocument(ctx context.Context, a *app, id int64, interval time.Duration) (*models.UploadStatus, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		st, err := a.client.UploadStatus(ctx, id)
		if err != nil {
			return nil, err
		}
		if st.ProcessingStatus == models.StatusCompleted || st.ProcessingStatus == models.StatusFailed {
			return st, nil
		}
		a.logger.Debug("Document still processing", zap.Int64("document_id", id), zap.String("status", string(st.ProcessingStatus)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newDocumentsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List and manage uploaded documents",
	}

	var params apiclient.ListDocumentsParams
	list := &cobra.Command{
		Use:   "list",
		Short: "List documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.ListDocuments(cmd.Context(), params)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tFILENAME\tFORM\tSTATUS\tPAGES\tUPLOADED")
			for _, d := range res.Documents {
				pages := "-"
				if d.TotalPages != nil {
					pages = strconv.Itoa(*d.TotalPages)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Filename, d.FormType, d.ProcessingStatus, pages, d.UploadedAt)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "page %d, %d of %d documents\n", res.Page, len(res.Documents), res.Total)
			return nil
		},
	}
	list.Flags().IntVar(&params.Page, "page", 1, "page number")
	list.Flags().IntVar(&params.PageSize, "page-size", 0, "documents per page (server default when 0)")
	list.Flags().StringVar(&params.Status, "status", "", "filter by status: pending, processing, completed or failed")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a document and its extracted metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentID(args[0])
			if err != nil {
				return err
			}
			d, err := a.client.GetDocument(cmd.Context(), id)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "ID\t%d\n", d.ID)
			fmt.Fprintf(tw, "File\t%s (%d bytes)\n", d.OriginalFilename, d.FileSize)
			fmt.Fprintf(tw, "Form\t%s\n", d.FormType)
			fmt.Fprintf(tw, "Status\t%s\n", d.ProcessingStatus)
			fmt.Fprintf(tw, "Uploaded\t%s\n", d.UploadedAt)
			fmt.Fprintf(tw, "Processed\t%s\n", deref(d.ProcessedAt))
			if d.ProcessingError != nil {
				fmt.Fprintf(tw, "Error\t%s\n", *d.ProcessingError)
			}
			return tw.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document and its stored file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentID(args[0])
			if err != nil {
				return err
			}
			if err := a.client.DeleteDocument(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "document %d deleted\n", id)
			return nil
		},
	}

	reprocess := &cobra.Command{
		Use:   "reprocess <id>",
		Short: "Queue a document for extraction again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseDocumentID(args[0])
			if err != nil {
				return err
			}
			if err := a.client.ReprocessDocument(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "document %d queued for reprocessing\n", id)
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show document counts by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.client.DocumentStats(cmd.Context())
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Total\t%d\n", s.TotalDocuments)
			fmt.Fprintf(tw, "Completed\t%d\n", s.ByStatus.Completed)
			fmt.Fprintf(tw, "Processing\t%d\n", s.ByStatus.Processing)
			fmt.Fprintf(tw, "Pending\t%d\n", s.ByStatus.Pending)
			fmt.Fprintf(tw, "Failed\t%d\n", s.ByStatus.Failed)
			fmt.Fprintf(tw, "Pages extracted\t%d\n", s.TotalPagesExtracted)
			return tw.Flush()
		},
	}

	cmd.AddCommand(list, get, del, reprocess, stats)
	return cmd
}
