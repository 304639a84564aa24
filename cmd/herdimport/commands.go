package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/herdimport/internal/core"
	"github.com/JonMunkholm/herdimport/internal/session"
	"github.com/JonMunkholm/herdimport/internal/workbook"
)

var (
	errCheckFailed  = errors.New("workbook has errors")
	errImportFailed = errors.New("import failed")
)

// maxListedIssues caps the issues printed per category.
const maxListedIssues = 20

func newPurposesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "purposes",
		Short: "List the sheet purposes the server accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := opts.client().Purposes(cmd.Context())
			if err != nil {
				return userError(err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME")
			for _, p := range list {
				fmt.Fprintf(tw, "%s\t%s\n", p.ID, p.Text)
			}
			return tw.Flush()
		},
	}
}

func newTemplateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template [purpose...]",
		Short: "Write an empty import workbook",
		Long: `Write a workbook with one sheet per purpose. Each sheet carries the field
keys as headers and one example row. Without arguments every purpose is
included.`,
		Example: `  herdimport template                       # every purpose
  herdimport template weight_record -o w.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			purposes := make([]core.PurposeID, 0, len(args))
			for _, a := range args {
				purposes = append(purposes, core.PurposeID(a))
			}

			var buf bytes.Buffer
			if err := workbook.WriteTemplate(&buf, purposes...); err != nil {
				return userError(err)
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "herd_import_template.xlsx", "output file")
	return cmd
}

func newExportCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download every stored animal, event and measurement",
		Long: `Download the herd records held by the server as a workbook. The animal
sheet can be imported again in default mode.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var buf bytes.Buffer
			if err := opts.client().Export(cmd.Context(), &buf); err != nil {
				return userError(err)
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "herd_export.xlsx", "output file")
	return cmd
}

func newCheckCommand() *cobra.Command {
	var mappingFile string

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Validate a workbook offline",
		Long: `Validate a workbook without contacting the server. Ear numbers are not
checked against stored animals.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := analyzeOptions(mappingFile)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			wb, err := workbook.Open(f, filepath.Base(args[0]))
			if err != nil {
				return userError(err)
			}

			svc := core.NewService(nil, nil, core.ServiceConfig{MaxConcurrent: 1})
			resp, err := svc.Analyze(cmd.Context(), wb, opts)
			if err != nil {
				return userError(err)
			}

			printPreview(cmd.OutOrStdout(), resp)
			if resp.HasErrors() {
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mappingFile, "mapping", "m", "", "YAML mapping file (explicit mode)")
	return cmd
}

func newImportCommand(opts *options) *cobra.Command {
	var (
		mappingFile string
		yes         bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Analyse a workbook on the server and commit it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			aopts, err := analyzeOptions(mappingFile)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			c := opts.client()
			stderr := cmd.ErrOrStderr()
			sess := session.New(c, c, core.ReporterFunc(func(msg string) {
				fmt.Fprintln(stderr, msg)
			}))

			up := session.Upload{
				Name:   filepath.Base(args[0]),
				Data:   data,
				Mode:   aopts.Mode,
				Config: aopts.Config,
			}
			if err := sess.SelectFile(ctx, up); err != nil {
				return err
			}
			if err := sess.Wait(ctx); err != nil {
				return err
			}

			st := sess.Snapshot()
			if st.Stage == session.StageFailed {
				printFields(stderr, st.Failure)
				return errImportFailed
			}
			printPreview(cmd.OutOrStdout(), st.Preview)

			if st.Preview.HasErrors() {
				// Confirm reports the blocked message.
				return sess.Confirm(ctx)
			}
			if !yes && !confirmPrompt(cmd.InOrStdin(), cmd.OutOrStdout(), len(st.Preview.Data)) {
				_ = sess.Cancel()
				fmt.Fprintln(cmd.OutOrStdout(), "已取消")
				return nil
			}

			if err := sess.Confirm(ctx); err != nil {
				return err
			}
			if err := sess.Wait(ctx); err != nil {
				return err
			}

			st = sess.Snapshot()
			if st.Stage == session.StageFailed {
				printFields(stderr, st.Failure)
				return errImportFailed
			}
			printResult(cmd.OutOrStdout(), st.Result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mappingFile, "mapping", "m", "", "YAML mapping file (explicit mode)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "commit without asking")
	return cmd
}

func confirmPrompt(in io.Reader, out io.Writer, rows int) bool {
	fmt.Fprintf(out, "匯入 %d 筆資料？[y/N] ", rows)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// userError replaces err by its localized message, keeping err in the chain.
func userError(err error) error {
	t := core.Translate(err)
	if t.General == "" {
		return err
	}
	return fmt.Errorf("%s: %w", t.General, err)
}

func printPreview(w io.Writer, resp *core.AnalyzeResponse) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SHEET\tPURPOSE\tROWS")
	for _, sh := range resp.Sheets {
		purpose := string(sh.Purpose)
		if purpose == "" {
			purpose = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", sh.Name, purpose, sh.Rows)
	}
	tw.Flush()

	s := resp.Summary
	fmt.Fprintf(w, "\n資料 %d 筆，錯誤列 %d，略過 %d，新羊隻 %d，既有羊隻 %d\n",
		s.TotalRows, s.ErrorRows, s.SkippedRows, s.NewAnimals, s.ExistingAnimals)

	printIssues(w, "錯誤", resp.Errors)
	printIssues(w, "警告", resp.Warnings)
}

func printIssues(w io.Writer, title string, issues []core.RowIssue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d)\n", title, len(issues))
	for i, is := range issues {
		if i == maxListedIssues {
			fmt.Fprintf(w, "  ... 另有 %d 筆\n", len(issues)-i)
			break
		}
		loc := is.Sheet
		if is.Row > 0 {
			loc = fmt.Sprintf("%s 第 %d 列", is.Sheet, is.Row)
		}
		fmt.Fprintf(w, "  %s [%s] %s\n", loc, is.Field, is.Message)
	}
}

func printResult(w io.Writer, res *core.ImportResult) {
	fmt.Fprintf(w, "已匯入 %d 筆，略過 %d 筆，失敗 %d 筆 (批次 %s)\n",
		res.Imported, res.Skipped, len(res.Errors), res.BatchID)
	for _, f := range res.Errors {
		fmt.Fprintf(w, "  %s 第 %d 列: %s\n", f.Sheet, f.Row, f.Message)
	}
}

func printFields(w io.Writer, t *core.Translation) {
	if t == nil {
		return
	}
	for _, key := range sortedFieldKeys(t.Fields) {
		fmt.Fprintf(w, "  %s: %s\n", key, t.Fields[key])
	}
}
