package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"bookpasal/internal/config"
	"bookpasal/internal/util"
	"bookpasal/pkg/api"
	"bookpasal/pkg/cart"
	"bookpasal/pkg/checkout"
	"bookpasal/pkg/domain"
	"bookpasal/pkg/session"
	"bookpasal/pkg/wishlist"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("BOOKPASAL_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.InitLogger(cfg.LogLevel)

	creds, err := buildCredentialStore(cfg)
	if err != nil {
		log.Fatalf("failed to init credential store: %v", err)
	}
	sessions, err := session.New(creds)
	if err != nil {
		log.Fatalf("failed to bootstrap session: %v", err)
	}

	opts := []api.Option{
		api.WithAuthFailureHandler(func() {
			fmt.Fprintln(os.Stderr, "session expired, please log in again")
		}),
	}
	if timeout, err := config.ParseHTTPTimeout(cfg.HTTPTimeout); err != nil {
		log.Fatalf("%v", err)
	} else if timeout > 0 {
		opts = append(opts, api.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	client := api.New(cfg.APIBaseURL, sessions, opts...)
	carts := cart.NewSynchronizer(client)
	wishes := wishlist.NewSynchronizer(client, carts)
	orch := checkout.NewOrchestrator(client, carts, &consoleKhaltiWidget{}, checkout.Config{
		KhaltiPublicKey:   cfg.KhaltiPublicKey,
		EsewaMerchantCode: cfg.EsewaMerchantCode,
		EsewaGatewayURL:   cfg.EsewaGatewayURL,
		ReturnURLBase:     cfg.ReturnURLBase,
	})

	if len(os.Args) < 2 {
		usage()
	}
	ctx := context.Background()
	switch os.Args[1] {
	case "login":
		runLogin(ctx, client)
	case "logout":
		if err := client.Logout(); err != nil {
			fail(err)
		}
		fmt.Println("logged out")
	case "whoami":
		user, ok := sessions.User()
		if !ok {
			fmt.Println("not logged in")
			return
		}
		// Prefer the authoritative profile; fall back to the stored record
		// when offline.
		if remote, err := client.Me(ctx); err == nil {
			user = remote
		}
		fmt.Printf("%s <%s> (%s)\n", user.Username, user.Email, user.Role)
	case "cart":
		runCart(ctx, carts)
	case "wishlist":
		runWishlist(ctx, carts, wishes)
	case "checkout":
		runCheckout(ctx, orch)
	case "resolve":
		runResolve(ctx, orch)
	default:
		usage()
	}
}

func buildCredentialStore(cfg config.FileConfig) (session.CredentialStore, error) {
	if cfg.SessionBackend == "redis" {
		return session.NewRedisCredentialStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisSessionKey), nil
	}
	return session.NewFileCredentialStore(cfg.SessionFilePath, cfg.SessionFileSecret)
}

func runLogin(ctx context.Context, client *api.Client) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password")
	_ = fs.Parse(os.Args[2:])
	if *username == "" || *password == "" {
		fs.Usage()
		os.Exit(2)
	}
	user, err := client.Login(ctx, *username, *password)
	if err != nil {
		fail(err)
	}
	fmt.Printf("welcome %s (%s)\n", user.Username, user.Role)
}

func runCart(ctx context.Context, carts *cart.Synchronizer) {
	if len(os.Args) < 3 {
		usage()
	}
	switch os.Args[2] {
	case "show":
		c, err := carts.Current(ctx)
		if err != nil {
			fail(err)
		}
		printCart(c)
	case "add":
		fs := flag.NewFlagSet("cart add", flag.ExitOnError)
		book := fs.Int64("book", 0, "book id")
		qty := fs.Int("qty", 1, "quantity")
		_ = fs.Parse(os.Args[3:])
		c, err := carts.AddItem(ctx, *book, *qty)
		if err != nil {
			fail(err)
		}
		printCart(c)
	case "update":
		fs := flag.NewFlagSet("cart update", flag.ExitOnError)
		book := fs.Int64("book", 0, "book id")
		qty := fs.Int("qty", 1, "quantity (0 removes)")
		_ = fs.Parse(os.Args[3:])
		c, err := carts.UpdateQuantity(ctx, *book, *qty)
		if err != nil {
			fail(err)
		}
		printCart(c)
	case "remove":
		fs := flag.NewFlagSet("cart remove", flag.ExitOnError)
		book := fs.Int64("book", 0, "book id")
		_ = fs.Parse(os.Args[3:])
		c, err := carts.RemoveItem(ctx, *book)
		if err != nil {
			fail(err)
		}
		printCart(c)
	default:
		usage()
	}
}

func runWishlist(ctx context.Context, carts *cart.Synchronizer, wishes *wishlist.Synchronizer) {
	if len(os.Args) < 3 {
		usage()
	}
	switch os.Args[2] {
	case "show":
		if _, err := carts.Current(ctx); err != nil {
			fail(err)
		}
		if _, err := wishes.All(ctx); err != nil {
			fail(err)
		}
		items := wishes.Effective()
		if len(items) == 0 {
			fmt.Println("wishlist is empty")
			return
		}
		for _, item := range items {
			fmt.Printf("%4d  %-40s Rs. %s\n", item.ID, item.BookTitle, item.BookPrice.Display())
		}
		fmt.Printf("%d item(s)\n", wishes.Count())
	case "add":
		fs := flag.NewFlagSet("wishlist add", flag.ExitOnError)
		book := fs.Int64("book", 0, "book id")
		_ = fs.Parse(os.Args[3:])
		if _, err := wishes.Add(ctx, *book); err != nil {
			fail(err)
		}
		fmt.Println("added to wishlist")
	case "remove":
		fs := flag.NewFlagSet("wishlist remove", flag.ExitOnError)
		item := fs.Int64("item", 0, "wishlist item id")
		_ = fs.Parse(os.Args[3:])
		if _, err := wishes.Remove(ctx, *item); err != nil {
			fail(err)
		}
		fmt.Println("removed from wishlist")
	case "move":
		fs := flag.NewFlagSet("wishlist move", flag.ExitOnError)
		book := fs.Int64("book", 0, "book id")
		item := fs.Int64("item", 0, "wishlist item id")
		_ = fs.Parse(os.Args[3:])
		if err := wishes.MoveToCart(ctx, *book, *item); err != nil {
			fail(err)
		}
		fmt.Println("moved to cart")
	default:
		usage()
	}
}

func runCheckout(ctx context.Context, orch *checkout.Orchestrator) {
	fs := flag.NewFlagSet("checkout", flag.ExitOnError)
	address := fs.String("address", "", "shipping address")
	contact := fs.String("contact", "", "contact number")
	method := fs.String("method", "CASH", "payment method: CASH, KHALTI or ESEWA")
	_ = fs.Parse(os.Args[2:])

	orch.OnTransition(func(s checkout.State) {
		fmt.Printf("... %s\n", s)
	})
	out, err := orch.PlaceOrder(ctx, checkout.Request{
		ShippingAddress: *address,
		ContactNumber:   *contact,
		Method:          domain.PaymentMethod(strings.ToUpper(*method)),
	})
	if err != nil {
		fail(err)
	}
	switch res := out.(type) {
	case checkout.CashOutcome:
		fmt.Printf("order #%d placed, pay Rs. %s on delivery\n",
			res.Order.OrderID, res.Order.TotalAmount.Display())
	case checkout.WidgetOutcome:
		if res.Closed {
			fmt.Println("payment window closed, order not paid")
			return
		}
		fmt.Printf("order #%d paid via Khalti\n", res.Order.OrderID)
	case checkout.RedirectOutcome:
		fmt.Printf("order #%d awaiting eSewa payment; open the form below in a browser:\n\n%s\n",
			res.Order.OrderID, res.Form.AutoSubmitHTML())
		fmt.Printf("then run: storefront resolve -order %d\n", res.Order.OrderID)
	}
}

func runResolve(ctx context.Context, orch *checkout.Orchestrator) {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	order := fs.Int64("order", 0, "order id")
	_ = fs.Parse(os.Args[2:])
	payment, err := orch.ResolveReturn(ctx, *order)
	if err != nil {
		fail(err)
	}
	fmt.Printf("order #%d payment status: %s\n", *order, payment.Status)
}

func printCart(c domain.Cart) {
	if len(c.Items) == 0 {
		fmt.Println("cart is empty")
		return
	}
	for _, item := range c.Items {
		fmt.Printf("%4d  %-40s %2d x Rs. %-8s = Rs. %s\n",
			item.Book, item.BookTitle, item.Quantity,
			item.BookPrice.Display(), item.Subtotal.Display())
	}
	fmt.Printf("total: Rs. %s\n", c.TotalPrice.Display())
}

// consoleKhaltiWidget stands in for the Khalti checkout widget on a
// terminal: the user completes the payment in the Khalti app and pastes the
// confirmation token here. An empty line dismisses the widget.
type consoleKhaltiWidget struct{}

func (w *consoleKhaltiWidget) Show(ctx context.Context, cfg checkout.KhaltiConfig, h checkout.KhaltiHandlers) {
	fmt.Printf("Khalti payment for order %s: Rs. %d.%02d\n",
		cfg.ProductIdentity, cfg.AmountPaisa/100, cfg.AmountPaisa%100)
	fmt.Print("paste payment token (empty to cancel): ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		h.OnError(err)
		return
	}
	token := strings.TrimSpace(line)
	if token == "" {
		h.OnClose()
		return
	}
	h.OnSuccess(checkout.KhaltiPayload{Token: token, AmountPaisa: cfg.AmountPaisa})
}

func fail(err error) {
	if api.IsNetworkError(err) {
		fmt.Fprintf(os.Stderr, "network error: %v\n", err)
	} else {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: storefront <command>

commands:
  login -u <user> -p <password>
  logout
  whoami
  cart show | add -book N [-qty N] | update -book N -qty N | remove -book N
  wishlist show | add -book N | remove -item N | move -book N -item N
  checkout -address A -contact C [-method CASH|KHALTI|ESEWA]
  resolve -order N
`)
	os.Exit(2)
}
