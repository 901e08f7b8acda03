package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/autoservice/internal/app"
	"github.com/Additional-Code/autoservice/internal/dto"
	"github.com/Additional-Code/autoservice/internal/entity"
	service "github.com/Additional-Code/autoservice/internal/service/order"
	"github.com/Additional-Code/autoservice/pkg/errorbank"
)

const createdLayout = "2006-01-02 15:04"

func newOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "order",
		Aliases: []string{"orders"},
		Short:   "Manage work orders",
	}
	cmd.PersistentFlags().Bool("json", false, "Print orders as JSON")

	cmd.AddCommand(
		newOrderCreateCmd(),
		newOrderListCmd(),
		newOrderGetCmd(),
		newOrderUpdateCmd(),
		newOrderDeleteCmd(),
	)
	return cmd
}

func newOrderCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new work order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := inputFromFlags(cmd)
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				order, err := svc.Create(ctx, in)
				if err != nil {
					return err
				}
				return printOrders(cmd, []entity.Order{*order})
			})
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newOrderListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all work orders, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				orders, err := svc.List(ctx)
				if err != nil {
					return err
				}
				return printOrders(cmd, orders)
			})
		},
	}
}

func newOrderGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := service.ParseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				order, err := svc.Get(ctx, id)
				if err != nil {
					return warnNotFound(cmd, err)
				}
				return printOrders(cmd, []entity.Order{*order})
			})
		},
	}
}

func newOrderUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the customer, car and description of a work order",
		Long: "Replace the editable fields of a work order. Omitting --description " +
			"clears any existing description.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := service.ParseID(args[0])
			if err != nil {
				return err
			}
			in := inputFromFlags(cmd)
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				order, err := svc.Update(ctx, id, in)
				if err != nil {
					return warnNotFound(cmd, err)
				}
				return printOrders(cmd, []entity.Order{*order})
			})
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newOrderDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a work order",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := service.ParseID(args[0])
			if err != nil {
				return err
			}
			return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				if err := svc.Delete(ctx, id); err != nil {
					return warnNotFound(cmd, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "order %d deleted\n", id)
				return nil
			})
		},
	}
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("customer", "", "Customer name (up to 100 characters)")
	cmd.Flags().String("car", "", "Car make and model (up to 100 characters)")
	cmd.Flags().String("description", "", "Free-form description of the work")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("car")
}

func inputFromFlags(cmd *cobra.Command) service.Input {
	customer, _ := cmd.Flags().GetString("customer")
	car, _ := cmd.Flags().GetString("car")
	in := service.Input{CustomerName: customer, CarInfo: car}
	if cmd.Flags().Changed("description") {
		description, _ := cmd.Flags().GetString("description")
		in.Description = &description
	}
	return in
}

// warnNotFound reports a missing order as a warning instead of a failure.
func warnNotFound(cmd *cobra.Command, err error) error {
	if !errorbank.IsKind(err, errorbank.KindNotFound) {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", errorbank.From(err).Message())
	return nil
}

func withService(ctx context.Context, fn func(context.Context, *service.Service) error) error {
	var svc *service.Service
	opts := fx.Options(app.Store, fx.Populate(&svc))
	return runWithApp(ctx, opts, func(ctx context.Context) error {
		return fn(ctx, svc)
	})
}

func printOrders(cmd *cobra.Command, orders []entity.Order) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(dto.FromOrders(orders))
	}
	return renderTable(cmd.OutOrStdout(), orders)
}

func renderTable(out io.Writer, orders []entity.Order) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCUSTOMER\tCAR\tDESCRIPTION\tCREATED")
	for i := range orders {
		o := &orders[i]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			o.ID, o.CustomerName, o.CarInfo, o.DescriptionText(), o.CreatedAt.In(time.Local).Format(createdLayout))
	}
	return w.Flush()
}
