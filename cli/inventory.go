package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gestion-erp/gestion-go/inventory"
	"github.com/gestion-erp/gestion-go/paginate"
)

var productCmd = &cobra.Command{
	Use:   "product",
	Short: "Browse and manage inventory products",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var productListCmd = &cobra.Command{
	Use:   "list",
	Short: "List products",
	RunE: func(cmd *cobra.Command, _ []string) error {
		search, _ := cmd.Flags().GetString("search")
		categoryID, _ := cmd.Flags().GetInt64("category")
		activeOnly, _ := cmd.Flags().GetBool("active")
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		svc, err := inventory.NewService(app.Client)
		if err != nil {
			return err
		}
		products, err := svc.List(cmd.Context(), inventory.ListFilter{
			Search:     search,
			CategoryID: categoryID,
			ActiveOnly: activeOnly,
		})
		if err != nil {
			return err
		}

		pg := paginate.Paginate(products, page, perPage)
		return app.print(pg, func() string { return renderProductPage(pg) })
	},
}

var productGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid product id %q", args[0])
		}

		svc, err := inventory.NewService(app.Client)
		if err != nil {
			return err
		}
		product, err := svc.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		return app.print(product, func() string {
			return fmt.Sprintf("%d  %s  %s  %.2f  stock %d",
				product.ID, product.Code, product.Name, product.Price, product.Stock)
		})
	},
}

func renderProductPage(pg paginate.Page[inventory.Product]) string {
	if pg.TotalItems == 0 {
		return "No products found."
	}

	var b strings.Builder
	for _, p := range pg.Items {
		fmt.Fprintf(&b, "%-8d %-12s %-30s %10.2f %6d\n", p.ID, p.Code, p.Name, p.Price, p.Stock)
	}
	fmt.Fprintf(&b, "Page %d of %d (%d products)", pg.Number, pg.TotalPages, pg.TotalItems)
	return b.String()
}

func init() {
	productListCmd.Flags().String("search", "", "search by code or name")
	productListCmd.Flags().Int64("category", 0, "filter by category id")
	productListCmd.Flags().Bool("active", false, "only active products")
	productListCmd.Flags().Int("page", 1, "page number")
	productListCmd.Flags().Int("per-page", paginate.DefaultPerPage, "items per page")

	productCmd.AddCommand(productListCmd)
	productCmd.AddCommand(productGetCmd)
	rootCmd.AddCommand(productCmd)
}
