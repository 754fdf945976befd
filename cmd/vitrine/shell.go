package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vitrine-app/vitrine/internal/cart"
	"github.com/vitrine-app/vitrine/internal/catalog"
	"github.com/vitrine-app/vitrine/internal/form"
	"github.com/vitrine-app/vitrine/internal/model"
	"github.com/vitrine-app/vitrine/internal/session"
)

// shell is the interactive storefront loop. The cart lives here for the
// duration of the run; everything else is delegated to the stores.
type shell struct {
	session *session.Session
	catalog *catalog.Catalog
	cart    *cart.Cart

	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

const helpText = `Commands:
  products [term]        list products, optionally filtered by name prefix
  refresh                refetch the catalog
  add <id>               add a product to the cart
  cart                   show the cart
  qty <id> <n>           set quantity for a cart line (0 removes)
  rm <id>                remove a cart line
  clear                  empty the cart
  checkout               simulated checkout: prints a receipt, empties the cart
  login | register       sign in / create an account
  logout | whoami        session management
  product new            create a product (admin)
  product edit <id>      update a product (admin)
  product rm <id>        delete a product (admin)
  product image <id> <f> upload an image file for a product (admin)
  help | quit
`

func (sh *shell) run(ctx context.Context) {
	sh.scanner = bufio.NewScanner(sh.in)

	if u := sh.session.Current(); u != nil {
		fmt.Fprintf(sh.out, "Welcome back, %s.\n", u.Name)
	} else {
		fmt.Fprintln(sh.out, "Welcome to vitrine. Type \"help\" for commands.")
	}

	for {
		fmt.Fprint(sh.out, "> ")
		if !sh.scanner.Scan() {
			return
		}
		fields := strings.Fields(sh.scanner.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := fields[0], fields[1:]
		switch cmd {
		case "help":
			fmt.Fprint(sh.out, helpText)
		case "quit", "exit":
			return
		case "products":
			sh.cmdProducts(args)
		case "refresh":
			if err := sh.catalog.Refresh(ctx); err != nil {
				fmt.Fprintf(sh.out, "could not load products: %v\n", err)
			} else {
				fmt.Fprintf(sh.out, "catalog refreshed, %d products\n", len(sh.catalog.Products()))
			}
		case "add":
			sh.cmdAdd(args)
		case "cart":
			sh.cmdCart()
		case "qty":
			sh.cmdQty(args)
		case "rm":
			sh.cmdRemove(args)
		case "clear":
			sh.cart.Clear()
			fmt.Fprintln(sh.out, "cart cleared")
		case "checkout":
			sh.cmdCheckout()
		case "login":
			sh.cmdLogin(ctx)
		case "register":
			sh.cmdRegister(ctx)
		case "logout":
			sh.session.Logout(ctx)
			fmt.Fprintln(sh.out, "logged out")
		case "whoami":
			sh.cmdWhoami()
		case "product":
			sh.cmdProduct(ctx, args)
		default:
			fmt.Fprintf(sh.out, "unknown command %q, try \"help\"\n", cmd)
		}
	}
}

func (sh *shell) cmdProducts(args []string) {
	term := strings.Join(args, " ")
	products := sh.catalog.Search(term)

	if err := sh.catalog.Err(); err != nil {
		fmt.Fprintf(sh.out, "warning: showing last known catalog, refresh failed: %v\n", err)
	}
	if len(products) == 0 {
		if term != "" {
			fmt.Fprintf(sh.out, "no products matching %q\n", term)
		} else {
			fmt.Fprintln(sh.out, "no products available")
		}
		return
	}

	for _, p := range products {
		fmt.Fprintf(sh.out, "%4d  %-30s %10.2f  stock %3d  %s\n",
			p.ID, p.Name, p.Price, p.Stock, p.Category)
	}
}

func (sh *shell) cmdAdd(args []string) {
	id, ok := sh.parseID(args, "add <id>")
	if !ok {
		return
	}
	for _, p := range sh.catalog.Products() {
		if p.ID == id {
			sh.cart.AddItem(p)
			fmt.Fprintf(sh.out, "added %s (cart: %d items)\n", p.Name, sh.cart.TotalItems())
			return
		}
	}
	fmt.Fprintf(sh.out, "no product with id %d in the catalog\n", id)
}

func (sh *shell) cmdCart() {
	items := sh.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(sh.out, "cart is empty")
		return
	}
	for _, item := range items {
		fmt.Fprintf(sh.out, "%4d  %-30s %3d x %8.2f = %10.2f\n",
			item.Product.ID, item.Product.Name, item.Quantity,
			item.Product.Price, item.Product.Price*float64(item.Quantity))
	}
	fmt.Fprintf(sh.out, "      total: %d items, %.2f\n", sh.cart.TotalItems(), sh.cart.TotalPrice())
}

func (sh *shell) cmdQty(args []string) {
	if len(args) != 2 {
		fmt.Fprintln(sh.out, "usage: qty <id> <n>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(sh.out, "invalid id %q\n", args[0])
		return
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		fmt.Fprintf(sh.out, "invalid quantity %q\n", args[1])
		return
	}
	sh.cart.UpdateQuantity(id, n)
	sh.cmdCart()
}

func (sh *shell) cmdRemove(args []string) {
	id, ok := sh.parseID(args, "rm <id>")
	if !ok {
		return
	}
	sh.cart.RemoveItem(id)
	sh.cmdCart()
}

func (sh *shell) cmdCheckout() {
	if sh.cart.Len() == 0 {
		fmt.Fprintln(sh.out, "cart is empty, nothing to check out")
		return
	}
	summary := sh.cart.Checkout()
	fmt.Fprintln(sh.out, "---- receipt ----")
	for _, item := range summary.Items {
		fmt.Fprintf(sh.out, "%-30s %3d x %8.2f\n", item.Product.Name, item.Quantity, item.Product.Price)
	}
	fmt.Fprintf(sh.out, "%d items, total %.2f\n", summary.TotalItems, summary.TotalPrice)
	fmt.Fprintln(sh.out, "Thanks for your (simulated) order!")
}

func (sh *shell) cmdLogin(ctx context.Context) {
	email := sh.prompt("email: ")
	password := sh.prompt("password: ")

	if err := sh.session.Login(ctx, email, password); err != nil {
		fmt.Fprintf(sh.out, "login failed: %v\n", err)
		return
	}
	fmt.Fprintf(sh.out, "hello, %s\n", sh.session.Current().Name)
}

func (sh *shell) cmdRegister(ctx context.Context) {
	name := sh.prompt("name: ")
	email := sh.prompt("email: ")
	password := sh.prompt("password: ")

	if errs := form.ValidateRegistration(name, email, password); !errs.Valid() {
		sh.printFieldErrors(errs)
		return
	}
	if err := sh.session.Register(ctx, name, email, password); err != nil {
		fmt.Fprintf(sh.out, "registration failed: %v\n", err)
		return
	}
	fmt.Fprintf(sh.out, "welcome, %s\n", sh.session.Current().Name)
}

func (sh *shell) cmdWhoami() {
	u := sh.session.Current()
	if u == nil {
		fmt.Fprintln(sh.out, "not signed in")
		return
	}
	fmt.Fprintf(sh.out, "%s <%s> (%s)\n", u.Name, u.Email, u.Role)
}

func (sh *shell) cmdProduct(ctx context.Context, args []string) {
	if !sh.session.IsAdmin() {
		fmt.Fprintln(sh.out, "product management requires an admin session")
		return
	}
	if len(args) == 0 {
		fmt.Fprintln(sh.out, "usage: product <new|edit|rm|image> ...")
		return
	}

	switch args[0] {
	case "new":
		draft, ok := sh.promptDraft(model.ProductDraft{})
		if !ok {
			return
		}
		if err := sh.catalog.Create(ctx, draft); err != nil {
			fmt.Fprintf(sh.out, "could not create product: %v\n", err)
			return
		}
		fmt.Fprintln(sh.out, "product created")
	case "edit":
		id, ok := sh.parseID(args[1:], "product edit <id>")
		if !ok {
			return
		}
		current, found := sh.findProduct(id)
		if !found {
			fmt.Fprintf(sh.out, "no product with id %d\n", id)
			return
		}
		draft, ok := sh.promptDraft(model.ProductDraft{
			Name: current.Name, Description: current.Description,
			Price: current.Price, Category: current.Category,
			Stock: current.Stock, ImageURL: current.ImageURL,
		})
		if !ok {
			return
		}
		if err := sh.catalog.Update(ctx, id, draft); err != nil {
			fmt.Fprintf(sh.out, "could not update product: %v\n", err)
			return
		}
		fmt.Fprintln(sh.out, "product updated")
	case "rm":
		id, ok := sh.parseID(args[1:], "product rm <id>")
		if !ok {
			return
		}
		if confirm := sh.prompt("delete product? [y/N]: "); confirm != "y" && confirm != "yes" {
			fmt.Fprintln(sh.out, "cancelled")
			return
		}
		if err := sh.catalog.Delete(ctx, id); err != nil {
			fmt.Fprintf(sh.out, "could not delete product: %v\n", err)
			return
		}
		fmt.Fprintln(sh.out, "product deleted")
	case "image":
		if len(args) != 3 {
			fmt.Fprintln(sh.out, "usage: product image <id> <file>")
			return
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			fmt.Fprintf(sh.out, "invalid id %q\n", args[1])
			return
		}
		f, err := os.Open(args[2])
		if err != nil {
			fmt.Fprintf(sh.out, "could not open %s: %v\n", args[2], err)
			return
		}
		defer f.Close()
		if err := sh.catalog.SetImage(ctx, id, f); err != nil {
			fmt.Fprintf(sh.out, "could not upload image: %v\n", err)
			return
		}
		fmt.Fprintln(sh.out, "image uploaded")
	default:
		fmt.Fprintf(sh.out, "unknown product subcommand %q\n", args[0])
	}
}

// promptDraft collects a product draft field by field, offering current
// values as defaults, and validates it before anything is sent.
func (sh *shell) promptDraft(current model.ProductDraft) (model.ProductDraft, bool) {
	draft := model.ProductDraft{
		Name:        sh.promptDefault("name", current.Name),
		Description: sh.promptDefault("description", current.Description),
		Category:    sh.promptDefault("category", current.Category),
		ImageURL:    sh.promptDefault("image url", current.ImageURL),
	}

	priceStr := sh.promptDefault("price", strconv.FormatFloat(current.Price, 'f', -1, 64))
	price, err := strconv.ParseFloat(priceStr, 64)
	if err != nil {
		fmt.Fprintf(sh.out, "invalid price %q\n", priceStr)
		return draft, false
	}
	draft.Price = price

	stockStr := sh.promptDefault("stock", strconv.Itoa(current.Stock))
	stock, err := strconv.Atoi(stockStr)
	if err != nil {
		fmt.Fprintf(sh.out, "invalid stock %q\n", stockStr)
		return draft, false
	}
	draft.Stock = stock

	if errs := form.ValidateDraft(draft); !errs.Valid() {
		sh.printFieldErrors(errs)
		return draft, false
	}
	return draft, true
}

func (sh *shell) findProduct(id int64) (model.Product, bool) {
	for _, p := range sh.catalog.Products() {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

func (sh *shell) parseID(args []string, usage string) (int64, bool) {
	if len(args) != 1 {
		fmt.Fprintf(sh.out, "usage: %s\n", usage)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fmt.Fprintf(sh.out, "invalid id %q\n", args[0])
		return 0, false
	}
	return id, true
}

func (sh *shell) prompt(label string) string {
	fmt.Fprint(sh.out, label)
	if !sh.scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(sh.scanner.Text())
}

// promptDefault prompts with a default value shown in brackets; an empty
// answer keeps the default.
func (sh *shell) promptDefault(label, def string) string {
	if def != "" {
		label = fmt.Sprintf("%s [%s]: ", label, def)
	} else {
		label = label + ": "
	}
	answer := sh.prompt(label)
	if answer == "" {
		return def
	}
	return answer
}

func (sh *shell) printFieldErrors(errs form.Errors) {
	fmt.Fprintln(sh.out, "please fix the following:")
	for field, msg := range errs {
		fmt.Fprintf(sh.out, "  %s: %s\n", field, msg)
	}
}
