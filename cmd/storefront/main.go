package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/admin"
	"github.com/imrishuroy/kitchen-orderflow/internal/client"
	"github.com/imrishuroy/kitchen-orderflow/internal/logger"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
	"github.com/imrishuroy/kitchen-orderflow/internal/payments"
	"github.com/imrishuroy/kitchen-orderflow/internal/storefront"
	"github.com/imrishuroy/kitchen-orderflow/internal/validation"
)

var Version = "dev"

// app is the state shared by every command.
type app struct {
	v      *viper.Viper
	cfg    *cliConfig
	api    *client.Client
	out    io.Writer
	notify storefront.Notifier
	log    *zap.Logger
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out, notify: &storefront.WriterNotifier{W: out}}
	var cfgFile string

	root := &cobra.Command{
		Use:           "kitchen",
		Short:         "Order from the kitchen and run its admin dashboard",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile == "" {
				cfgFile = configPath()
			}
			a.v = newViper(cfgFile)
			if f := cmd.Flags().Lookup("api-url"); f != nil && f.Changed {
				a.v.Set("api_url", f.Value.String())
			}
			cfg, err := loadConfig(a.v)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			a.cfg = cfg
			a.log = logger.New("warn")
			a.api = client.New(cfg.APIURL, client.WithTokenSource(func() string { return a.cfg.Token }))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.kitchen/config.yaml)")
	root.PersistentFlags().String("api-url", "", "API base URL")

	root.AddCommand(a.menuCmd(), a.signupCmd(), a.loginCmd(), a.checkoutCmd(), a.ordersCmd(), a.favoritesCmd(), a.adminCmd())
	return root
}

func (a *app) menuCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "List menu items",
		RunE: func(cmd *cobra.Command, args []string) error {
			category, _ := cmd.Flags().GetString("category")
			items, err := a.api.Menu(cmd.Context(), category)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE")
			for _, it := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t₦%.0f\n", it.ID, it.Name, it.Category, it.Price)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringP("category", "c", "", "main, addon, drink or all")
	return cmd
}

func (a *app) signupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup <email> <password>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			_, msg, err := a.api.Signup(cmd.Context(), args[0], args[1], name)
			if err != nil {
				return err
			}
			a.notify.Notify(storefront.LevelSuccess, msg)
			return nil
		},
	}
	cmd.Flags().String("name", "", "display name")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Sign in and remember the session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.api.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			a.cfg.Token = token
			if err := saveSession(a.v, args[0], token); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			a.notify.Notify(storefront.LevelSuccess, "Signed in successfully")
			return nil
		},
	}
}

// session resolves the saved token into a signed-in storefront session.
func (a *app) session(ctx context.Context) (*storefront.Session, error) {
	s := storefront.NewSession()
	if a.cfg.Token == "" {
		return s, nil
	}
	p, err := a.api.Profile(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	s.SignIn(storefront.User{ID: p.ID, Email: p.Email, Name: p.Name, IsAdmin: p.IsAdmin, Token: a.cfg.Token})
	return s, nil
}

// parseItems reads id=qty pairs; a bare id means one.
func parseItems(pairs []string) (map[string]int, []string, error) {
	qty := make(map[string]int)
	var order []string
	for _, s := range pairs {
		id, n := s, 1
		if i := strings.IndexByte(s, '='); i >= 0 {
			id = s[:i]
			v, err := strconv.Atoi(s[i+1:])
			if err != nil || v < 1 {
				return nil, nil, fmt.Errorf("bad quantity in %q", s)
			}
			n = v
		}
		if id == "" {
			return nil, nil, fmt.Errorf("bad item %q", s)
		}
		if _, ok := qty[id]; !ok {
			order = append(order, id)
		}
		qty[id] += n
	}
	return qty, order, nil
}

func (a *app) checkoutCmd() *cobra.Command {
	var items []string
	var pm validation.PaymentMethod
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			qty, ids, err := parseItems(items)
			if err != nil {
				return err
			}
			menu, err := a.api.Menu(ctx, "")
			if err != nil {
				return err
			}
			cart := storefront.NewCart()
			for _, id := range ids {
				found := false
				for _, it := range menu {
					if it.ID == id {
						cart.Add(it)
						cart.SetQuantity(id, qty[id])
						found = true
						break
					}
				}
				if !found {
					return fmt.Errorf("unknown menu item %q", id)
				}
			}

			s, err := a.session(ctx)
			if err != nil {
				return err
			}
			if s.User() != nil {
				details, err := a.api.PaymentDetails(ctx)
				if err == nil {
					fmt.Fprintf(a.out, "Transfer ₦%s to %s, %s (%s)\n",
						cart.Total().StringFixed(0), details.AccountName, details.BankName, details.AccountNumber)
				}
			}
			order, err := storefront.NewCheckout(a.api, a.notify).Submit(ctx, s, cart, pm)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Order %s  total ₦%.0f  status %s\n", order.OrderNumber, order.Total, order.Status)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&items, "item", "i", nil, "menu item as id=qty (repeatable)")
	cmd.Flags().StringVar(&pm.BankName, "bank", "", "bank you paid from")
	cmd.Flags().StringVar(&pm.AccountName, "account-name", "", "account name you paid from")
	cmd.Flags().StringVar(&pm.AccountNumber, "account-number", "", "account number you paid from")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func printOrders(w io.Writer, list []orders.Order) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNUMBER\tSTATUS\tTOTAL\tCREATED")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t₦%.0f\t%s\n", o.OrderID, o.OrderNumber, o.Status, o.Total, o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func (a *app) ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Show your order history",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.api.Orders(cmd.Context())
			if err != nil {
				return err
			}
			return printOrders(a.out, list)
		},
	}
}

func (a *app) favoritesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "favorites", Short: "Manage favorite menu items"}
	show := func(ids []string) {
		if len(ids) == 0 {
			fmt.Fprintln(a.out, "No favorites yet")
			return
		}
		fmt.Fprintln(a.out, strings.Join(ids, "\n"))
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List favorites",
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := a.api.Favorites(cmd.Context())
				if err != nil {
					return err
				}
				show(ids)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <itemId>",
			Short: "Add a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := a.api.AddFavorite(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				show(ids)
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <itemId>",
			Short: "Remove a favorite",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := a.api.RemoveFavorite(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				show(ids)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) adminCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "admin", Short: "Administrator commands"}

	list := &cobra.Command{
		Use:   "orders",
		Short: "List all orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			d := admin.NewDashboard(a.api, a.notify, admin.WithLogger(a.log))
			d.Poll(cmd.Context())
			return printOrders(a.out, d.Filtered(filter))
		},
	}
	list.Flags().String("filter", admin.FilterAll, "all, pending, completed or cancelled")

	setStatus := &cobra.Command{
		Use:   "set-status <orderKey> <status>",
		Short: "Change an order's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := admin.NewDashboard(a.api, a.notify, admin.WithLogger(a.log))
			_, err := d.SetStatus(cmd.Context(), args[0], args[1])
			return err
		},
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new orders until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetDuration("interval")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			d := admin.NewDashboard(a.api, a.notify, admin.WithInterval(interval), admin.WithLogger(a.log))
			if err := d.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	watch.Flags().Duration("interval", admin.DefaultInterval, "poll interval")

	var details payments.Details
	setDetails := &cobra.Command{
		Use:   "set",
		Short: "Set the receiving bank account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.SetPaymentDetails(cmd.Context(), details); err != nil {
				return err
			}
			a.notify.Notify(storefront.LevelSuccess, "Payment details updated")
			return nil
		},
	}
	setDetails.Flags().StringVar(&details.BankName, "bank", "", "bank name")
	setDetails.Flags().StringVar(&details.AccountName, "account-name", "", "account name")
	setDetails.Flags().StringVar(&details.AccountNumber, "account-number", "", "account number")
	for _, f := range []string{"bank", "account-name", "account-number"} {
		_ = setDetails.MarkFlagRequired(f)
	}
	paymentDetails := &cobra.Command{Use: "payment-details", Short: "Merchant payment details"}
	paymentDetails.AddCommand(setDetails)

	cmd.AddCommand(list, setStatus, watch, paymentDetails)
	return cmd
}
