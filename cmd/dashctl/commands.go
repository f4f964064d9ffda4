package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GregMSThompson/dashboard-builder/internal/dashboard"
	"github.com/GregMSThompson/dashboard-builder/internal/dto"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List widgets, highest order first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.state.Load(cmd.Context()); err != nil {
				return err
			}
			printWidgets(a.out, a.state.Widgets())
			fmt.Fprintf(a.out, "revision %d\n", a.state.Revision())
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var input dto.CreateWidgetRequest
	var widgetType string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a widget",
		Long: `Add a widget of the given type. Flags that are not set take the
defaults of a freshly dropped widget: the type name as title, width 47,
height 250 and order 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.state.Load(ctx); err != nil {
				return err
			}
			if err := a.state.DropWidgetType(widgetType); err != nil {
				return err
			}
			draft, _ := a.state.Draft()
			flags := cmd.Flags()
			if !flags.Changed("title") {
				input.Title = draft.Title
			}
			if !flags.Changed("width") {
				input.Width = draft.Width
			}
			if !flags.Changed("height") {
				input.Height = draft.Height
			}
			if !flags.Changed("order") {
				input.Order = draft.Order
			}
			input.Type = draft.Type

			w, err := a.state.SubmitWidget(ctx, input)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Widget added successfully: %s\n", w.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&widgetType, "type", dto.WidgetTypeCustomText, "widget type (see 'dashctl types')")
	f.StringVar(&input.Title, "title", "", "widget title")
	f.StringVar(&input.Source, "source", "", "text, image URL or data stream identifier")
	f.IntVar(&input.Width, "width", 0, "width in percent (1-100)")
	f.IntVar(&input.Height, "height", 0, "height in pixels")
	f.IntVar(&input.Order, "order", 0, "sort order, higher first")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a widget after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.state.Load(ctx); err != nil {
				return err
			}
			confirm := a.confirm
			if yes {
				confirm = func(string) bool { return true }
			}
			deleted, err := dashboard.ConfirmDelete(ctx, a.state, args[0], confirm)
			if err != nil {
				return err
			}
			if deleted {
				fmt.Fprintln(a.out, "Widget deleted successfully")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var layout string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render every widget with its data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.state.SelectLayout(layout); err != nil {
				return err
			}
			if err := a.state.Load(ctx); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "layout %s (%s)\n\n", a.state.Layout(), a.state.GridClass())
			for _, v := range a.renderer.RenderAll(ctx, a.state.Widgets()) {
				printView(a.out, v)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&layout, "layout", dto.LayoutFull, "full, 2-columns, 3-columns or grid")
	return cmd
}

func newLayoutsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "layouts",
		Short: "List layout options",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tCLASS")
			for _, l := range dto.LayoutOptions {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", l.ID, l.Name, dashboard.GridClass(l.ID))
			}
			return tw.Flush()
		},
	}
}

func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List widget types",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tNAME\tDESCRIPTION")
			for _, t := range dto.WidgetTypes {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Type, t.Name, t.Description)
			}
			return tw.Flush()
		},
	}
}

func printWidgets(out io.Writer, widgets []models.Widget) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tSOURCE\tWIDTH\tHEIGHT\tORDER")
	for _, w := range widgets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n", w.ID, w.Title, w.Type, w.Source, w.Width, w.Height, w.Order)
	}
	tw.Flush()
}

func printView(out io.Writer, v dashboard.View) {
	fmt.Fprintf(out, "== %s [%s] %d%% x %dpx\n", v.Widget.Title, v.Widget.Type, v.Widget.Width, v.Widget.Height)
	switch {
	case v.Err != nil:
		fmt.Fprintf(out, "   error: %v\n", v.Err)
	case v.Empty:
		fmt.Fprintln(out, "   No data available")
	case v.Table != nil:
		fmt.Fprintf(out, "   %s\n", v.Table.Title)
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "   %s\n", strings.Join(v.Table.Columns, "\t"))
		for _, row := range v.Table.Rows {
			cells := make([]string, len(row))
			for i, c := range row {
				cells[i] = fmt.Sprint(c)
			}
			fmt.Fprintf(tw, "   %s\n", strings.Join(cells, "\t"))
		}
		tw.Flush()
	case v.Chart != nil:
		fmt.Fprintf(out, "   %s chart: %s (%s by %s)\n", v.Chart.ChartType, v.Chart.Title, v.Chart.YKey, v.Chart.XKey)
		for _, point := range v.Chart.Data {
			fmt.Fprintf(out, "   %v: %v\n", point[v.Chart.XKey], point[v.Chart.YKey])
		}
	case v.ImageURL != "":
		fmt.Fprintf(out, "   image: %s\n", v.ImageURL)
	default:
		fmt.Fprintf(out, "   %s\n", v.Text)
	}
	fmt.Fprintln(out)
}
