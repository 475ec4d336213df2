// Command storefront is a terminal front end for the ShopNetic storefront
// client. It is view glue only: rendering, prompts and navigation live here,
// while session, authorization, cart and catalog logic live in internal/.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/your-org/storefront-client/internal/api"
	"github.com/your-org/storefront-client/internal/config"
	"github.com/your-org/storefront-client/internal/domain/cart"
	"github.com/your-org/storefront-client/internal/domain/catalog"
	"github.com/your-org/storefront-client/internal/domain/guard"
	"github.com/your-org/storefront-client/internal/domain/session"
	"github.com/your-org/storefront-client/internal/pkg/logger"
)

func usage() {
	fmt.Fprintf(os.Stderr, `storefront CLI

Usage:
  storefront <cmd> [args]

Commands:
  login      -u <email> -p <password>
  register   -u <email> -p <password> [-first <name>] [-last <name>]
  logout
  whoami
  products                                  list the catalog
  cart show
  cart add      -id <product> [-qty <n>]
  cart set      -id <product> -qty <n>
  cart rm       -id <product> [-y]
  cart checkout [-y]
  admin add     -name <s> -price <s> -stock <s> -category <s> [-desc <s>] [-image <url>]
  admin update  -id <product> -name <s> -price <s> -stock <s> -category <s> [-desc <s>] [-image <url>]
  admin rm      -id <product> [-y]
`)
	os.Exit(2)
}

// app wires the core components together for the command handlers
type app struct {
	sessions *session.Store
	cart     *cart.Engine
	catalog  *catalog.Coordinator
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 1 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fail(err)
	}
	log := logger.New(cfg)

	client := api.NewClient(cfg, log)
	tokens := session.NewFileTokenStore(cfg.Session.TokenFile)
	sessions := session.NewStore(client, tokens, log)
	client.OnUnauthorized(sessions.Invalidate)

	a := &app{
		sessions: sessions,
		cart:     cart.NewEngine(client, log),
		catalog:  catalog.NewCoordinator(client, log),
	}

	// Rebuild the session from the persisted token before any navigation.
	sessions.Restore()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	path, run := a.dispatch(cmd, args)
	if run == nil {
		usage()
	}

	// Every navigation goes through the guard with the current session.
	outcome := guard.Evaluate(sessions.Current(), path)
	switch outcome.Decision {
	case guard.RedirectLogin:
		fmt.Fprintln(os.Stderr, "login required (storefront login -u <email> -p <password>)")
		os.Exit(1)
	case guard.RedirectHome:
		if path == guard.PathAdmin {
			fmt.Fprintln(os.Stderr, "admin access required")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "already signed in, see %s\n", outcome.Target)
		os.Exit(1)
	}

	if err := run(context.Background()); err != nil {
		fail(err)
	}
}

// dispatch maps a command to its view path and handler
func (a *app) dispatch(cmd string, args []string) (string, func(context.Context) error) {
	switch cmd {
	case "login":
		return guard.PathLogin, func(ctx context.Context) error { return a.login(ctx, args) }
	case "register":
		return guard.PathRegister, func(ctx context.Context) error { return a.register(ctx, args) }
	case "logout":
		return guard.PathCatalog, func(context.Context) error { a.sessions.Logout(); fmt.Println("signed out"); return nil }
	case "whoami":
		return guard.PathCatalog, func(context.Context) error { return a.whoami() }
	case "products":
		return guard.PathCatalog, func(ctx context.Context) error { return a.listProducts(ctx) }
	case "cart":
		if len(args) < 1 {
			return "", nil
		}
		sub := args[0]
		rest := args[1:]
		switch sub {
		case "show":
			return guard.PathCart, func(ctx context.Context) error { return a.showCart(ctx) }
		case "add":
			return guard.PathCart, func(ctx context.Context) error { return a.cartAdd(ctx, rest) }
		case "set":
			return guard.PathCart, func(ctx context.Context) error { return a.cartSet(ctx, rest) }
		case "rm":
			return guard.PathCart, func(ctx context.Context) error { return a.cartRemove(ctx, rest) }
		case "checkout":
			return guard.PathCart, func(ctx context.Context) error { return a.checkout(ctx, rest) }
		}
		return "", nil
	case "admin":
		if len(args) < 1 {
			return "", nil
		}
		sub := args[0]
		rest := args[1:]
		switch sub {
		case "add":
			return guard.PathAdmin, func(ctx context.Context) error { return a.adminUpsert(ctx, rest, false) }
		case "update":
			return guard.PathAdmin, func(ctx context.Context) error { return a.adminUpsert(ctx, rest, true) }
		case "rm":
			return guard.PathAdmin, func(ctx context.Context) error { return a.adminRemove(ctx, rest) }
		}
		return "", nil
	default:
		return "", nil
	}
}

// ---- auth commands ----

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("u", "", "email")
	password := fs.String("p", "", "password")
	_ = fs.Parse(args)
	if *email == "" || *password == "" {
		return fmt.Errorf("need -u and -p")
	}

	s, err := a.sessions.Login(ctx, api.Credentials{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", s.User.Email, s.User.Role)
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("u", "", "email")
	password := fs.String("p", "", "password")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	_ = fs.Parse(args)
	if *email == "" || *password == "" {
		return fmt.Errorf("need -u and -p")
	}

	s, err := a.sessions.Register(ctx, api.Profile{
		Email:     *email,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
	})
	if err != nil {
		return err
	}
	fmt.Printf("welcome, %s\n", s.User.Email)
	return nil
}

func (a *app) whoami() error {
	s := a.sessions.Current()
	if !s.Authenticated {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s (%s)\n", s.User.Email, s.User.Role)
	return nil
}

// ---- catalog commands ----

func (a *app) listProducts(ctx context.Context) error {
	entries, err := a.catalog.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no products")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%4d  %-30s %10s  stock %3d  %s\n", e.ID, e.Name, e.Price.StringFixed(2), e.Stock, e.Category)
	}
	return nil
}

// ---- cart commands ----

func (a *app) showCart(ctx context.Context) error {
	snap, err := a.cart.Fetch(ctx)
	if err != nil {
		return err
	}
	if snap.Empty() {
		fmt.Println("your cart is empty")
		return nil
	}
	for _, item := range snap.Items {
		fmt.Printf("%4d  %-30s %10s x %d = %s\n",
			item.ProductID, item.Name, item.UnitPrice.StringFixed(2), item.Quantity, item.Subtotal().StringFixed(2))
	}
	fmt.Printf("total (%d items): %s\n", snap.TotalQuantity(), snap.Total.StringFixed(2))
	return nil
}

func (a *app) cartAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart add", flag.ExitOnError)
	id := fs.Uint("id", 0, "product id")
	qty := fs.Int("qty", 1, "quantity")
	_ = fs.Parse(args)
	if *id == 0 {
		return fmt.Errorf("need -id")
	}

	snap, err := a.cart.Add(ctx, uint(*id), *qty)
	if err != nil {
		return err
	}
	fmt.Printf("added, cart total %s\n", snap.Total.StringFixed(2))
	return nil
}

func (a *app) cartSet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart set", flag.ExitOnError)
	id := fs.Uint("id", 0, "product id")
	qty := fs.Int("qty", 0, "quantity")
	_ = fs.Parse(args)
	if *id == 0 {
		return fmt.Errorf("need -id")
	}

	snap, err := a.cart.SetQuantity(ctx, uint(*id), *qty)
	if err != nil {
		return err
	}
	fmt.Printf("updated, cart total %s\n", snap.Total.StringFixed(2))
	return nil
}

func (a *app) cartRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart rm", flag.ExitOnError)
	id := fs.Uint("id", 0, "product id")
	yes := fs.Bool("y", false, "skip confirmation")
	_ = fs.Parse(args)
	if *id == 0 {
		return fmt.Errorf("need -id")
	}
	if !*yes && !confirm("Remove this item from cart?") {
		fmt.Println("cancelled")
		return nil
	}

	snap, err := a.cart.Remove(ctx, uint(*id))
	if err != nil {
		return err
	}
	fmt.Printf("removed, cart total %s\n", snap.Total.StringFixed(2))
	return nil
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart checkout", flag.ExitOnError)
	yes := fs.Bool("y", false, "skip confirmation")
	_ = fs.Parse(args)

	snap, err := a.cart.Fetch(ctx)
	if err != nil {
		return err
	}
	if snap.Empty() {
		fmt.Println("your cart is empty")
		return nil
	}
	if !*yes && !confirm(fmt.Sprintf("Proceed with checkout for %s?", snap.Total.StringFixed(2))) {
		fmt.Println("cancelled")
		return nil
	}

	if err := a.cart.Checkout(ctx); err != nil {
		return err
	}
	fmt.Println("order placed successfully")
	return nil
}

// ---- admin commands ----

func (a *app) adminUpsert(ctx context.Context, args []string, update bool) error {
	name := "admin add"
	if update {
		name = "admin update"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	id := fs.Uint("id", 0, "product id (update only)")
	form := catalog.EntryForm{}
	fs.StringVar(&form.Name, "name", "", "product name")
	fs.StringVar(&form.Description, "desc", "", "description")
	fs.StringVar(&form.Price, "price", "", "price")
	fs.StringVar(&form.Stock, "stock", "", "stock quantity")
	fs.StringVar(&form.Category, "category", "", "category")
	fs.StringVar(&form.Image, "image", "", "image URL")
	_ = fs.Parse(args)

	if update {
		if *id == 0 {
			return fmt.Errorf("need -id")
		}
		entry, err := a.catalog.Update(ctx, uint(*id), form)
		if err != nil {
			return err
		}
		fmt.Printf("updated %d: %s @ %s\n", entry.ID, entry.Name, entry.Price.StringFixed(2))
		return nil
	}

	entry, err := a.catalog.Create(ctx, form)
	if err != nil {
		return err
	}
	fmt.Printf("created %d: %s @ %s\n", entry.ID, entry.Name, entry.Price.StringFixed(2))
	return nil
}

func (a *app) adminRemove(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("admin rm", flag.ExitOnError)
	id := fs.Uint("id", 0, "product id")
	yes := fs.Bool("y", false, "skip confirmation")
	_ = fs.Parse(args)
	if *id == 0 {
		return fmt.Errorf("need -id")
	}
	if !*yes && !confirm("Are you sure you want to delete this product?") {
		fmt.Println("cancelled")
		return nil
	}

	if err := a.catalog.Delete(ctx, uint(*id)); err != nil {
		return err
	}
	fmt.Println("product deleted")
	return nil
}

// ---- helpers ----

// confirm asks the user before a destructive action; the decision stays in
// the view layer, the core only performs.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
