package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gestion-erp/gestion-go/paginate"
	"github.com/gestion-erp/gestion-go/sales"
)

const flagDateLayout = "2006-01-02"

var saleCmd = &cobra.Command{
	Use:   "sale",
	Short: "Browse sales orders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var saleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sales orders",
	RunE: func(cmd *cobra.Command, _ []string) error {
		filter, err := saleFilterFromFlags(cmd)
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		svc, err := sales.NewService(app.Client)
		if err != nil {
			return err
		}
		orders, err := svc.List(cmd.Context(), filter)
		if err != nil {
			return err
		}

		pg := paginate.Paginate(orders, page, perPage)
		return app.print(pg, func() string { return renderOrderPage(pg) })
	},
}

var saleGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one sales order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid order id %q", args[0])
		}

		svc, err := sales.NewService(app.Client)
		if err != nil {
			return err
		}
		order, err := svc.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		return app.print(order, func() string {
			var b strings.Builder
			fmt.Fprintf(&b, "%s  %s  %s  %.2f", order.Number, order.Date, order.Status, order.Total)
			for _, line := range order.Lines {
				fmt.Fprintf(&b, "\n  product %d x%d @ %.2f", line.ProductID, line.Quantity, line.UnitPrice)
			}
			return b.String()
		})
	},
}

func saleFilterFromFlags(cmd *cobra.Command) (sales.ListFilter, error) {
	var filter sales.ListFilter

	from, _ := cmd.Flags().GetString("from")
	if from != "" {
		t, err := time.Parse(flagDateLayout, from)
		if err != nil {
			return filter, fmt.Errorf("invalid --from date %q, want YYYY-MM-DD", from)
		}
		filter.From = t
	}
	to, _ := cmd.Flags().GetString("to")
	if to != "" {
		t, err := time.Parse(flagDateLayout, to)
		if err != nil {
			return filter, fmt.Errorf("invalid --to date %q, want YYYY-MM-DD", to)
		}
		filter.To = t
	}
	filter.Status, _ = cmd.Flags().GetString("status")
	return filter, nil
}

func renderOrderPage(pg paginate.Page[sales.Order]) string {
	if pg.TotalItems == 0 {
		return "No orders found."
	}

	var b strings.Builder
	for _, o := range pg.Items {
		fmt.Fprintf(&b, "%-8d %-14s %-12s %-10s %12.2f\n", o.ID, o.Number, o.Date, o.Status, o.Total)
	}
	fmt.Fprintf(&b, "Page %d of %d (%d orders)", pg.Number, pg.TotalPages, pg.TotalItems)
	return b.String()
}

func init() {
	saleListCmd.Flags().String("from", "", "orders on or after this date (YYYY-MM-DD)")
	saleListCmd.Flags().String("to", "", "orders on or before this date (YYYY-MM-DD)")
	saleListCmd.Flags().String("status", "", "filter by order status")
	saleListCmd.Flags().Int("page", 1, "page number")
	saleListCmd.Flags().Int("per-page", paginate.DefaultPerPage, "items per page")

	saleCmd.AddCommand(saleListCmd)
	saleCmd.AddCommand(saleGetCmd)
	rootCmd.AddCommand(saleCmd)
}
