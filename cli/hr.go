package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gestion-erp/gestion-go/hr"
	"github.com/gestion-erp/gestion-go/paginate"
)

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Browse company employees",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	RunE: func(cmd *cobra.Command, _ []string) error {
		search, _ := cmd.Flags().GetString("search")
		activeOnly, _ := cmd.Flags().GetBool("active")
		page, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		svc, err := hr.NewService(app.Client)
		if err != nil {
			return err
		}
		employees, err := svc.List(cmd.Context(), hr.ListFilter{Search: search, ActiveOnly: activeOnly})
		if err != nil {
			return err
		}

		pg := paginate.Paginate(employees, page, perPage)
		return app.print(pg, func() string { return renderEmployeePage(pg) })
	},
}

func renderEmployeePage(pg paginate.Page[hr.Employee]) string {
	if pg.TotalItems == 0 {
		return "No employees found."
	}

	var b strings.Builder
	for _, e := range pg.Items {
		fmt.Fprintf(&b, "%-8d %-30s %-15s %s\n", e.ID, e.FullName(), e.Document, e.Position)
	}
	fmt.Fprintf(&b, "Page %d of %d (%d employees)", pg.Number, pg.TotalPages, pg.TotalItems)
	return b.String()
}

func init() {
	employeeListCmd.Flags().String("search", "", "search by name or document")
	employeeListCmd.Flags().Bool("active", false, "only active employees")
	employeeListCmd.Flags().Int("page", 1, "page number")
	employeeListCmd.Flags().Int("per-page", paginate.DefaultPerPage, "items per page")

	employeeCmd.AddCommand(employeeListCmd)
	rootCmd.AddCommand(employeeCmd)
}
