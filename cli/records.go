// ABOUTME: Record CLI commands: resources, list, get and delete for any catalog resource
// ABOUTME: Output is a tab-aligned table using the resource's list columns
package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/harperreed/bolha/api"
	"github.com/harperreed/bolha/models"
)

func lookupResource(name string) (*models.Resource, error) {
	res, ok := models.FindResource(name)
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (run 'bolha resources')", name)
	}
	return res, nil
}

func newResourcesCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List the resources the console manages",
		Args:  cobra.NoArgs,
		RunE: state.withApp(false, func(_ *cobra.Command, a *app, _ []string) error {
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tTITLE\tMODULE\tROUTE")
			_, _ = fmt.Fprintln(w, "----\t-----\t------\t-----")
			for _, res := range models.Resources() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Name, res.Title, res.Module, res.Route)
			}
			return w.Flush()
		}),
	}
}

func newListCommand(state *rootState) *cobra.Command {
	var (
		search string
		page   int
		rows   int
		sortBy string
	)
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List records of a resource",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search text")
	cmd.Flags().IntVar(&page, "page", 0, "Page number (0-based)")
	cmd.Flags().IntVar(&rows, "rows", 0, "Rows per page (default from config)")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort column, prefix with - for descending")

	cmd.RunE = state.withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
		res, err := lookupResource(args[0])
		if err != nil {
			return err
		}
		if err := a.requireSession(); err != nil {
			return err
		}

		if rows <= 0 {
			rows = a.cfg.RowsPerPage
		}
		q := models.NewListQuery(rows)
		q.Search = search
		q.Page = page
		if sortBy != "" {
			order, err := columnOrder(res, sortBy)
			if err != nil {
				return err
			}
			q.ColumnOrder = order
		}

		rc := a.client.Resource(res)
		records, err := rc.List(cmd.Context(), q)
		if err != nil {
			return err
		}
		total, err := rc.Count(cmd.Context(), search)
		if err != nil {
			return err
		}

		if len(records) == 0 {
			fmt.Fprintf(a.out, "No %s found.\n", strings.ToLower(res.Title))
			return nil
		}
		if err := printRecords(a.out, res, records); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "\n%d-%d of %d\n", page*rows+1, page*rows+len(records), total)
		return nil
	})
	return cmd
}

// columnOrder turns "name" or "-name" into one direction per list column,
// leaving the other columns unsorted.
func columnOrder(res *models.Resource, arg string) ([]models.Direction, error) {
	dir := models.Asc
	field := arg
	if strings.HasPrefix(arg, "-") {
		dir = models.Desc
		field = arg[1:]
	}
	order := make([]models.Direction, len(res.Columns))
	found := false
	for i, col := range res.Columns {
		if col.Field == field {
			order[i] = dir
			found = true
		}
	}
	if !found {
		names := make([]string, 0, len(res.Columns))
		for _, col := range res.Columns {
			names = append(names, col.Field)
		}
		return nil, fmt.Errorf("cannot sort %s by %q (columns: %s)", res.Name, field, strings.Join(names, ", "))
	}
	return order, nil
}

func printRecords(out io.Writer, res *models.Resource, records []models.Record) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(res.Columns)+1)
	rule := make([]string, 0, len(res.Columns)+1)
	for _, col := range res.Columns {
		header = append(header, strings.ToUpper(col.Label))
		rule = append(rule, strings.Repeat("-", len(col.Label)))
	}
	header = append(header, "ID")
	rule = append(rule, "--")
	_, _ = fmt.Fprintln(w, strings.Join(header, "\t"))
	_, _ = fmt.Fprintln(w, strings.Join(rule, "\t"))

	for _, rec := range records {
		cells := make([]string, 0, len(res.Columns)+1)
		for _, col := range res.Columns {
			v := rec.Display(col.Field)
			if v == "" {
				v = "-"
			}
			cells = append(cells, v)
		}
		cells = append(cells, rec.ID())
		_, _ = fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	return w.Flush()
}

func newGetCommand(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "get <resource> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: state.withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
			res, err := lookupResource(args[0])
			if err != nil {
				return err
			}
			if err := a.requireSession(); err != nil {
				return err
			}
			rec, err := a.client.Resource(res).Get(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			printRecord(a.out, res, rec)
			return nil
		}),
	}
}

func printRecord(out io.Writer, res *models.Resource, rec models.Record) {
	fmt.Fprintf(out, "%s %s\n\n", res.Title, rec.ID())
	for _, f := range res.Fields {
		switch f.Kind {
		case models.KindPassword:
			continue
		case models.KindGrants:
			grants := models.DecodeGrants(rec[f.Name])
			fmt.Fprintf(out, "%s:\n", f.Label)
			keys := make([]string, 0, len(grants))
			byKey := make(map[string]models.PermissionGrant, len(grants))
			for _, g := range grants {
				keys = append(keys, g.MenuOptionKey)
				byKey[g.MenuOptionKey] = g
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(out, "  %s: %s\n", k, describeGrant(byKey[k]))
			}
			continue
		case models.KindForeignKey:
			if ref, ok := models.FindResource(f.Ref); ok {
				if label := rec.Display(f.Name + "." + ref.LabelField); label != "" {
					fmt.Fprintf(out, "%s: %s\n", f.Label, label)
					continue
				}
			}
		}
		v := rec.Display(f.Name)
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(out, "%s: %s\n", f.Label, v)
	}
}

func describeGrant(g models.PermissionGrant) string {
	if g.Disabled {
		return "disabled"
	}
	if g.PermitAll {
		return "all"
	}
	var parts []string
	if g.PermitCreate {
		parts = append(parts, "create")
	}
	if g.PermitRestore {
		parts = append(parts, "show")
	}
	if g.PermitUpdate {
		parts = append(parts, "update")
	}
	if g.PermitDelete {
		parts = append(parts, "delete")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

func newDeleteCommand(state *rootState) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <resource> <id>",
		Short: "Delete one record",
		Args:  cobra.ExactArgs(2),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.RunE = state.withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
		res, err := lookupResource(args[0])
		if err != nil {
			return err
		}
		if err := a.requireSession(); err != nil {
			return err
		}
		if !yes {
			fmt.Fprintf(a.out, "Delete %s %s? [y/N] ", strings.ToLower(res.Title), args[1])
			var answer string
			_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
			if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
		}
		if err := a.client.Resource(res).Delete(cmd.Context(), args[1]); err != nil {
			if msg, ok := api.DisplayMessage(err); ok {
				return errors.New(msg)
			}
			return err
		}
		fmt.Fprintf(a.out, "✓ Deleted %s %s\n", strings.ToLower(res.Title), args[1])
		return nil
	})
	return cmd
}
