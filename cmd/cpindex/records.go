package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"cpindex/internal/app"
	"cpindex/internal/catalog"
	"cpindex/internal/form"
	"cpindex/internal/indexer"
	"cpindex/internal/query"
	"cpindex/internal/record"

	"github.com/spf13/cobra"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", s)
	}
	return id, nil
}

// applyFlags copies --set KEY=VALUE and --party values onto f. Parties are
// only replaced when --party was given.
func applyFlags(cmd *cobra.Command, f *form.Form) error {
	sets, _ := cmd.Flags().GetStringArray("set")
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--set %q: expected KEY=VALUE", kv)
		}
		if err := f.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("party") {
		parties, _ := cmd.Flags().GetStringArray("party")
		return f.SetParties(parties)
	}
	return nil
}

func printSummaries(sums []indexer.Summary) {
	rows := make([][]string, len(sums))
	for i, s := range sums {
		rows[i] = s.Row()
	}
	printTable(os.Stdout, indexer.SummaryHeader, rows)
}

func printRecord(r *record.Record, svc *indexer.Service) {
	fmt.Printf("%-28s %d\n", "ID:", r.ID)
	fmt.Printf("%-28s %s\n", "Tipo:", r.Type)
	for _, id := range catalog.IdentifiersFor(r.Type) {
		if id == catalog.FieldParties {
			continue
		}
		fmt.Printf("%-28s %s\n", catalog.Label(id)+":", r.Get(id))
	}
	if t, ok := catalog.Lookup(r.Type); ok && t.Repeatable != nil {
		for _, p := range r.Parties() {
			fmt.Printf("%-28s %s\n", t.Repeatable.Label+":", p)
		}
	}
	loc := svc.Location()
	fmt.Printf("%-28s %s, %s\n", "Criado:", r.CreatedBy, record.FormatTimestamp(r.CreatedAt, loc))
	fmt.Printf("%-28s %s, %s\n", "Alterado:", r.UpdatedBy, record.FormatTimestamp(r.UpdatedAt, loc))
}

// record command
var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage single records",
}

var recordAddCmd = &cobra.Command{
	Use:   "add TYPE",
	Short: "Add a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		book, _ := cmd.Flags().GetString("book")
		location, _ := cmd.Flags().GetString("location")

		return withApp(cmd, "AddRecord", func(a *app.CPIndexApp) error {
			actor, err := currentActor(cmd, a)
			if err != nil {
				return err
			}

			f := form.New(form.Presets{Book: book, Location: location})
			if err := f.SelectType(args[0]); err != nil {
				return err
			}
			if err := applyFlags(cmd, f); err != nil {
				return err
			}

			id, err := a.Service().SubmitForm(cmd.Context(), actor, f)
			if err != nil {
				return fmt.Errorf("adding record: %w", err)
			}
			fmt.Printf("Added record %d\n", id)
			return nil
		})
	},
}

var recordShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, "GetRecord", func(a *app.CPIndexApp) error {
			r, err := a.Service().GetRecord(cmd.Context(), id)
			if err != nil {
				return err
			}
			printRecord(r, a.Service())
			return nil
		})
	},
}

var recordEditCmd = &cobra.Command{
	Use:   "edit ID",
	Short: "Change fields of a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, "UpdateRecord", func(a *app.CPIndexApp) error {
			actor, err := currentActor(cmd, a)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			f, err := a.Service().EditForm(ctx, id)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, f); err != nil {
				return err
			}
			if err := a.Service().SaveForm(ctx, actor, id, f); err != nil {
				return fmt.Errorf("updating record: %w", err)
			}
			fmt.Printf("Updated record %d\n", id)
			return nil
		})
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withApp(cmd, "DeleteRecord", func(a *app.CPIndexApp) error {
			actor, err := currentActor(cmd, a)
			if err != nil {
				return err
			}
			if err := a.Service().DeleteRecord(cmd.Context(), actor, id); err != nil {
				return err
			}
			fmt.Printf("Deleted record %d\n", id)
			return nil
		})
	},
}

// runPlan shows a delete plan and executes it once confirmed.
func runPlan(cmd *cobra.Command, a *app.CPIndexApp, actor indexer.Actor, plan *indexer.DeletePlan) error {
	for _, w := range plan.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	if len(plan.Records) == 0 {
		fmt.Println("No matching records.")
		return nil
	}
	printSummaries(indexer.Summarize(plan.Records, a.Service().Location()))

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !confirm(os.Stdin, fmt.Sprintf("Delete %d record(s)?", len(plan.Records))) {
		fmt.Println("Cancelled.")
		return nil
	}
	if err := plan.Confirm(); err != nil {
		return err
	}
	n, err := a.Service().ExecuteDelete(cmd.Context(), actor, plan)
	if err != nil {
		return fmt.Errorf("deleting: %w", err)
	}
	fmt.Printf("Deleted %d record(s)\n", n)
	return nil
}

// delete-many command
var deleteManyCmd = &cobra.Command{
	Use:   "delete-many SPEC",
	Short: "Delete records by id list, e.g. \"1-5, 8, 10-12\"",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "DeleteMany", func(a *app.CPIndexApp) error {
			actor, err := currentActor(cmd, a)
			if err != nil {
				return err
			}
			plan, err := a.Service().PlanDelete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return runPlan(cmd, a, actor, plan)
		})
	},
}

// search command
var searchCmd = &cobra.Command{
	Use:   "search [TERM]",
	Short: "Search records in the selected books",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		books, _ := cmd.Flags().GetStringArray("book")
		categories, _ := cmd.Flags().GetStringArray("category")
		page, _ := cmd.Flags().GetString("page")
		all, _ := cmd.Flags().GetBool("all-books")

		var term string
		if len(args) > 0 {
			term = args[0]
		}

		return withApp(cmd, "Search", func(a *app.CPIndexApp) error {
			ctx := cmd.Context()
			if all {
				var err error
				if books, err = a.Service().Books(ctx); err != nil {
					return err
				}
			}
			if len(books) == 0 {
				return fmt.Errorf("select at least one book with --book or --all-books")
			}

			recs, err := a.Service().Search(ctx, query.Criteria{
				Term:       term,
				Books:      books,
				Categories: categories,
				Page:       page,
			})
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				fmt.Println("No records found.")
				return nil
			}
			printSummaries(indexer.Summarize(recs, a.Service().Location()))
			fmt.Printf("\n%d record(s)\n", len(recs))
			return nil
		})
	},
}

// books command
var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "List book names",
	RunE: func(cmd *cobra.Command, args []string) error {
		locations, _ := cmd.Flags().GetBool("locations")

		return withApp(cmd, "Books", func(a *app.CPIndexApp) error {
			list := a.Service().Books
			if locations {
				list = a.Service().Locations
			}
			names, err := list(cmd.Context())
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		})
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export FORMAT",
	Short: "Export the selected books (xlsx, pdf-table, pdf-detailed)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		books, _ := cmd.Flags().GetStringArray("book")
		out, _ := cmd.Flags().GetString("output")
		all, _ := cmd.Flags().GetBool("all-books")
		format := args[0]

		return withApp(cmd, "Export", func(a *app.CPIndexApp) error {
			r, err := a.Service().Renderer(format)
			if err != nil {
				return err
			}
			if out == "" {
				out = "cpindex-" + format + r.Extension()
			}
			if all {
				if books, err = a.Service().Books(cmd.Context()); err != nil {
					return err
				}
			}

			n, err := a.ExportToFile(cmd.Context(), format, books, out)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			if n == 0 {
				fmt.Println("Nothing to export.")
				return nil
			}
			fmt.Printf("Exported %d record(s) to %s\n", n, out)
			return nil
		})
	},
}

func init() {
	recordCmd.AddCommand(recordAddCmd)
	recordAddCmd.Flags().String("book", "", "Book preset")
	recordAddCmd.Flags().String("location", "", "Location preset")
	recordCmd.AddCommand(recordShowCmd)
	recordCmd.AddCommand(recordEditCmd)
	recordCmd.AddCommand(recordDeleteCmd)
	for _, c := range []*cobra.Command{recordAddCmd, recordEditCmd} {
		c.Flags().StringArray("set", nil, "Field value as KEY=VALUE, by identifier or label (repeatable)")
		c.Flags().StringArray("party", nil, "Party of a note (repeatable, replaces all parties)")
	}

	deleteManyCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	searchCmd.Flags().StringArrayP("book", "b", nil, "Book to search (repeatable)")
	searchCmd.Flags().Bool("all-books", false, "Search every book")
	searchCmd.Flags().StringArrayP("category", "c", nil, "Search category (repeatable, default all)")
	searchCmd.Flags().String("page", "", "Exact page/folio")

	booksCmd.Flags().Bool("locations", false, "List event locations instead")

	exportCmd.Flags().StringArrayP("book", "b", nil, "Book to export (repeatable)")
	exportCmd.Flags().Bool("all-books", false, "Export every book")
	exportCmd.Flags().StringP("output", "o", "", "Output file")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(deleteManyCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(booksCmd)
	rootCmd.AddCommand(exportCmd)
}
