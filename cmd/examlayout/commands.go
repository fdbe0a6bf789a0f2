package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	appI18n "github.com/pavelanni/examlayout/internal/i18n"
	"github.com/pavelanni/examlayout/internal/layout"
	"github.com/pavelanni/examlayout/internal/model"
	"github.com/pavelanni/examlayout/internal/store"
	"github.com/pavelanni/examlayout/internal/structure"
)

// editCmd builds a command that runs one editor operation and prints the new structure.
func editCmd(use, short string, flags func(cmd *cobra.Command), run func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			v, err := run(cmd, a, a.v.GetInt64("exam"))
			if err != nil {
				return err
			}
			return printView(cmd, cmd.OutOrStdout(), v)
		},
	}
	cmd.Flags().Int64("exam", 0, "Exam ID (required)")
	_ = cmd.MarkFlagRequired("exam")
	if flags != nil {
		flags(cmd)
	}
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Create exams from YAML layout files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	cmd.Flags().Bool("force", false, "Import files that changed since their last import as new exams")
	return cmd
}

func runImport(cmd *cobra.Command, paths []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	for _, path := range paths {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		f, hash, err := layout.Load(path)
		if err != nil {
			return err
		}

		prev, err := a.store.GetImportedFile(ctx, path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}
		if prev != nil && prev.Hash == hash {
			slog.Info("layout file unchanged, skipping", "path", path, "exam_id", prev.ExamID)
			continue
		}
		if prev != nil && !a.v.GetBool("force") {
			slog.Warn("layout file changed since last import, skipping; use --force to import it as a new exam",
				"path", path, "exam_id", prev.ExamID)
			continue
		}

		v, err := a.editor.Import(ctx, f)
		if err != nil {
			return fmt.Errorf("import %s: %w", path, err)
		}
		if err := a.store.SetImportedFile(ctx, store.ImportedFile{Path: path, Hash: hash, ExamID: v.Exam.ID}); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: exam %d, %s\n", filepath.Base(path), v.Exam.ID,
			appI18n.Tp(ctx, "QuestionsCount", v.QuestionCount))
	}
	return nil
}

func showCmd() *cobra.Command {
	return editCmd("show", "Print an exam's numbered structure", nil,
		func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
			return a.editor.View(cmd.Context(), examID)
		})
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an exam as a YAML layout or as its JSON structure",
		Args:  cobra.NoArgs,
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.Int64("exam", 0, "Exam ID (required)")
	f.String("format", "yaml", "Output format (yaml, json)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	_ = cmd.MarkFlagRequired("exam")
	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.editor.View(cmd.Context(), a.v.GetInt64("exam"))
	if err != nil {
		return err
	}

	var data []byte
	switch format := a.v.GetString("format"); format {
	case "yaml":
		data, err = layout.FromView(v).Marshal()
	case "json":
		data, err = json.MarshalIndent(v, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode exam: %w", err)
	}

	outPath := a.v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func addCmd() *cobra.Command {
	return editCmd("add", "Add a question slot", func(cmd *cobra.Command) {
		f := cmd.Flags()
		f.Int("page", 0, "Page to add to (0 = append, respecting questions per page)")
		f.Int64("question", 0, "Bank question ID")
		f.Int("version", 0, "Pin a question version (0 = always latest)")
		f.Int64("category", 0, "Draw a random question from this category instead")
		f.Bool("recurse", false, "Include subcategories in the random draw")
		f.StringSlice("tag", nil, "Tag filter for the random draw (repeatable)")
		f.Float64("mark", layout.DefaultMaxMark, "Maximum mark")
		cmd.MarkFlagsMutuallyExclusive("question", "category")
		cmd.MarkFlagsOneRequired("question", "category")
	}, func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
		var ref model.QuestionRef
		if cat := a.v.GetInt64("category"); cat != 0 {
			ref = model.RandomRef(cat, a.v.GetBool("recurse"), a.v.GetStringSlice("tag"))
		} else {
			var version *int
			if n := a.v.GetInt("version"); n > 0 {
				version = &n
			}
			ref = model.FixedRef(a.v.GetInt64("question"), version)
		}
		return a.editor.AddSlot(cmd.Context(), examID, a.v.GetInt("page"), ref, a.v.GetFloat64("mark"))
	})
}

func moveCmd() *cobra.Command {
	return editCmd("move", "Move a slot", func(cmd *cobra.Command) {
		f := cmd.Flags()
		f.Int64("slot", 0, "Slot ID to move (required)")
		f.Int64("after", 0, "Slot ID to place it after (0 = first)")
		f.Int("page", 1, "Target page")
		_ = cmd.MarkFlagRequired("slot")
	}, func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
		return a.editor.MoveSlot(cmd.Context(), examID, a.v.GetInt64("slot"), a.v.GetInt64("after"), a.v.GetInt("page"))
	})
}

func removeCmd() *cobra.Command {
	return editCmd("remove", "Remove the slot at a position", func(cmd *cobra.Command) {
		cmd.Flags().Int("position", 0, "Slot position (required)")
		_ = cmd.MarkFlagRequired("position")
	}, func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
		return a.editor.RemoveSlot(cmd.Context(), examID, a.v.GetInt("position"))
	})
}

func pageBreakCmd() *cobra.Command {
	return editCmd("pagebreak", "Add (unlink) or remove (link) the page break before a slot", func(cmd *cobra.Command) {
		cmd.Flags().Int64("slot", 0, "Slot ID (required)")
		cmd.Flags().String("action", "unlink", "link joins the slot to the previous page, unlink starts a new page")
		_ = cmd.MarkFlagRequired("slot")
	}, func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
		action, err := structure.ParsePageBreakAction(a.v.GetString("action"))
		if err != nil {
			return model.StructureView{}, err
		}
		return a.editor.UpdatePageBreak(cmd.Context(), examID, a.v.GetInt64("slot"), action)
	})
}

func repaginateCmd() *cobra.Command {
	return editCmd("repaginate", "Reassign every page", func(cmd *cobra.Command) {
		cmd.Flags().Int("per-page", 0, "Questions per page (0 = one page per section)")
	}, func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
		return a.editor.Repaginate(cmd.Context(), examID, a.v.GetInt("per-page"))
	})
}

func sectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Manage exam sections",
	}
	cmd.AddCommand(
		editCmd("add", "Start a section at the first slot of a page", func(cmd *cobra.Command) {
			cmd.Flags().Int("page", 0, "Page the section starts on (required)")
			cmd.Flags().String("heading", "", "Section heading (default: localized placeholder)")
			_ = cmd.MarkFlagRequired("page")
		}, func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
			var heading *string
			if cmd.Flags().Changed("heading") {
				h := a.v.GetString("heading")
				heading = &h
			}
			return a.editor.AddSection(cmd.Context(), examID, a.v.GetInt("page"), heading)
		}),
		editCmd("rename", "Change a section heading", func(cmd *cobra.Command) {
			cmd.Flags().Int64("section", 0, "Section ID (required)")
			cmd.Flags().String("heading", "", "New heading")
			_ = cmd.MarkFlagRequired("section")
		}, func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
			return a.editor.SetSectionHeading(cmd.Context(), examID, a.v.GetInt64("section"), a.v.GetString("heading"))
		}),
		editCmd("shuffle", "Turn question shuffling of a section on or off", func(cmd *cobra.Command) {
			cmd.Flags().Int64("section", 0, "Section ID (required)")
			cmd.Flags().Bool("on", true, "Shuffle the section")
			_ = cmd.MarkFlagRequired("section")
		}, func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
			return a.editor.SetSectionShuffle(cmd.Context(), examID, a.v.GetInt64("section"), a.v.GetBool("on"))
		}),
		editCmd("remove", "Remove a section; its slots join the previous one", func(cmd *cobra.Command) {
			cmd.Flags().Int64("section", 0, "Section ID (required)")
			_ = cmd.MarkFlagRequired("section")
		}, func(cmd *cobra.Command, a *app, examID int64) (model.StructureView, error) {
			return a.editor.RemoveSection(cmd.Context(), examID, a.v.GetInt64("section"))
		}),
	)
	return cmd
}

func attemptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempt",
		Short: "Record an attempt, which locks the exam structure",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			id, err := a.store.RecordAttempt(cmd.Context(), a.v.GetInt64("exam"), a.v.GetString("user"))
			if err != nil {
				return err
			}
			slog.Info("attempt recorded", "attempt_id", id, "exam_id", a.v.GetInt64("exam"))
			fmt.Fprintln(cmd.OutOrStdout(), appI18n.T(cmd.Context(), "ExamLocked"))
			return nil
		},
	}
	cmd.Flags().Int64("exam", 0, "Exam ID (required)")
	cmd.Flags().String("user", "", "Name of the user making the attempt")
	_ = cmd.MarkFlagRequired("exam")
	return cmd
}

func eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print an exam's structure change log as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			evs, err := a.store.ListEvents(cmd.Context(), a.v.GetInt64("exam"), a.v.GetInt("limit"))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, ev := range evs {
				if err := enc.Encode(ev); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().Int64("exam", 0, "Exam ID (required)")
	cmd.Flags().Int("limit", 0, "Maximum number of events (0 = all)")
	_ = cmd.MarkFlagRequired("exam")
	return cmd
}

// printView writes the structure as an aligned table, one block per section.
func printView(cmd *cobra.Command, out io.Writer, v model.StructureView) error {
	ctx := cmd.Context()
	fmt.Fprintf(out, "%s (#%d): %s, %s\n", v.Exam.Name, v.Exam.ID,
		appI18n.Tp(ctx, "SlotsCount", v.SlotCount), appI18n.Tp(ctx, "QuestionsCount", v.QuestionCount))
	if !v.Editable {
		fmt.Fprintln(out, appI18n.T(ctx, "ExamLocked"))
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	page := 0
	for _, sec := range v.Sections {
		fmt.Fprintf(tw, "\n[%d] %s\n", sec.ID, sec.Label)
		for _, sl := range sec.Slots {
			if sl.Page != page {
				page = sl.Page
				fmt.Fprintf(tw, "  -- %s\n", appI18n.Td(ctx, "PageN", map[string]any{"Page": page}))
			}
			dep := ""
			if sl.RequirePrevious {
				dep = "↳"
			}
			fmt.Fprintf(tw, "  %d\t%s\t%s\t%s\t%s\tslot %d\n",
				sl.Position, sl.Number, sl.QType, strconv.FormatFloat(sl.MaxMark, 'f', -1, 64), dep, sl.ID)
		}
	}
	return tw.Flush()
}
