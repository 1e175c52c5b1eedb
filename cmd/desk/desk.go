package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"
	"github.com/go-faster/errors"

	"mamushop-admin/cart"
	"mamushop-admin/catalog"
	models "mamushop-admin/model"
	"mamushop-admin/pricing"
	"mamushop-admin/sale"
	"mamushop-admin/summary"
)

// backend is everything the desk needs from the admin API.
type backend interface {
	catalog.Source
	sale.Submitter
	summary.Source
	ListSales(ctx context.Context, customer string, day time.Time) ([]models.SaleRecord, error)
	GetSale(ctx context.Context, id string) (models.SaleRecord, error)
	DeleteSale(ctx context.Context, id string) (int, error)
}

const helpText = `commands:
  customers <query>      search customers
  customer <n|id>        select a customer
  products <query>       search products not yet in the cart
  add <n|id>             add a product
  amount <line> <n>      set the amount of a line
  price <line> <value>   set the selling price of a line
  remove <line>          remove a line
  cart                   show the sale being composed
  commit                 submit the sale
  reset                  clear the cart
  sales [name] [date]    list sales, date as YYYY-MM-DD
  invoice <id>           show one sale
  delete <id>            reverse a sale
  dashboard [from to]    show totals, default last days window
  refresh                reload products and customers
  quit`

const prompt = "> "

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),
	readline.PcItem("customers"),
	readline.PcItem("customer"),
	readline.PcItem("products"),
	readline.PcItem("add"),
	readline.PcItem("amount"),
	readline.PcItem("price"),
	readline.PcItem("remove"),
	readline.PcItem("cart"),
	readline.PcItem("commit"),
	readline.PcItem("reset"),
	readline.PcItem("sales"),
	readline.PcItem("invoice"),
	readline.PcItem("delete"),
	readline.PcItem("dashboard"),
	readline.PcItem("refresh"),
	readline.PcItem("quit"),
)

type desk struct {
	api       backend
	index     *catalog.Index
	cart      *cart.Cart
	committer *sale.Committer
	dash      *summary.Aggregator

	rl  *readline.Instance
	tty bool
	// eof is set once input is exhausted; readline cannot be read again.
	eof bool
	out io.Writer

	lastProducts  []models.Product
	lastCustomers []models.Customer
}

// newDesk wires a console reading from in. Line editing, history and
// completion are only active when in is a terminal.
func newDesk(api backend, windowDays int, in io.Reader, out io.Writer) (*desk, error) {
	cfg := &readline.Config{
		Prompt:       prompt,
		Stdout:       out,
		Stderr:       out,
		AutoComplete: completer,
	}
	f, ok := in.(*os.File)
	tty := ok && readline.IsTerminal(int(f.Fd()))
	if tty {
		cfg.Stdin = readline.NewCancelableStdin(f)
	} else {
		cfg.Stdin = io.NopCloser(in)
		cfg.FuncIsTerminal = func() bool { return false }
		cfg.FuncMakeRaw = func() error { return nil }
		cfg.FuncExitRaw = func() error { return nil }
		cfg.FuncGetWidth = func() int { return 80 }
		cfg.FuncOnWidthChanged = func(func()) {}
	}
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "readline")
	}

	d := &desk{
		api:   api,
		index: catalog.New(api),
		dash:  summary.New(api, windowDays),
		rl:    rl,
		tty:   tty,
		out:   out,
	}
	d.cart = cart.New(d.index)
	d.committer = sale.NewCommitter(api, sale.ConfirmFunc(d.confirm), d.index)
	return d, nil
}

func (d *desk) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

// run reads commands until quit, end of input or ctx is done.
func (d *desk) run(ctx context.Context) error {
	closeInput := sync.OnceFunc(func() { _ = d.rl.Close() })
	defer closeInput()
	stop := context.AfterFunc(ctx, closeInput)
	defer stop()

	if err := d.index.Refresh(ctx); err != nil {
		d.printf("warning: %v\n", err)
	}
	d.printf("%s\n", helpText)
	for !d.eof {
		line, err := d.rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}
		if err := d.exec(ctx, line); err != nil {
			d.printf("error: %v\n", err)
		}
	}
	return nil
}

// ask reads a yes/no answer. Anything but y or yes, including end of
// input, is no.
func (d *desk) ask(question string) (bool, error) {
	if !d.tty {
		d.printf("%s", question)
	}
	d.rl.SetPrompt(question)
	defer d.rl.SetPrompt(prompt)

	ans, err := d.rl.Readline()
	if errors.Is(err, io.EOF) {
		d.eof = true
		return false, nil
	}
	if errors.Is(err, readline.ErrInterrupt) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ans = strings.ToLower(strings.TrimSpace(ans))
	return ans == "y" || ans == "yes", nil
}

func (d *desk) exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch cmd {
	case "help":
		d.printf("%s\n", helpText)
	case "customers":
		d.lastCustomers = d.cart.SearchCustomers(rest)
		d.printCustomers(d.lastCustomers)
	case "customer":
		return d.selectCustomer(rest)
	case "products":
		d.lastProducts = d.cart.SearchProducts(rest)
		d.printProducts(d.lastProducts)
	case "add":
		return d.addProduct(rest)
	case "amount":
		if len(args) != 2 {
			return errors.New("usage: amount <line> <n>")
		}
		i, err := d.line(args[0])
		if err != nil {
			return err
		}
		_, err = d.cart.SetSellingAmountInput(i, args[1])
		if cart.IsAdvisory(err) {
			d.printf("note: %v\n", err)
			err = nil
		}
		if err == nil {
			d.printCart()
		}
		return err
	case "price":
		if len(args) != 2 {
			return errors.New("usage: price <line> <value>")
		}
		i, err := d.line(args[0])
		if err != nil {
			return err
		}
		if err := d.cart.SetSellingPriceInput(i, args[1]); err != nil {
			return err
		}
		d.printCart()
	case "remove":
		i, err := d.line(rest)
		if err != nil {
			return err
		}
		if _, err := d.cart.RemoveLineItem(i); err != nil {
			return err
		}
		d.printCart()
	case "cart":
		d.printCart()
	case "reset":
		d.cart.Reset()
		d.printf("cart cleared\n")
	case "commit":
		return d.commit(ctx)
	case "sales":
		return d.listSales(ctx, args)
	case "invoice":
		rec, err := d.api.GetSale(ctx, rest)
		if err != nil {
			return err
		}
		d.printInvoice(rec)
	case "delete":
		return d.deleteSale(ctx, rest)
	case "dashboard":
		return d.dashboard(ctx, args)
	case "refresh":
		if err := d.index.Refresh(ctx); err != nil {
			return err
		}
		d.printf("%d products, %d customers\n", len(d.index.Products()), len(d.index.Customers()))
	default:
		return errors.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

// pick resolves a 1-based position in the last search results, or returns
// the argument as an identifier.
func pick[T any](arg string, last []T, id func(T) string) string {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(last) {
		return id(last[n-1])
	}
	return arg
}

func (d *desk) selectCustomer(arg string) error {
	if arg == "" {
		return errors.New("usage: customer <n|id>")
	}
	id := pick(arg, d.lastCustomers, func(c models.Customer) string { return c.ID })
	if err := d.cart.SelectCustomerByID(id); err != nil {
		return err
	}
	c, _ := d.cart.Customer()
	d.printf("customer: %s (%s)\n", c.Name, c.Mobile)
	return nil
}

func (d *desk) addProduct(arg string) error {
	if arg == "" {
		return errors.New("usage: add <n|id>")
	}
	id := pick(arg, d.lastProducts, func(p models.Product) string { return p.ID })
	if err := d.cart.AddProductByID(id); err != nil {
		return err
	}
	d.printCart()
	return nil
}

func (d *desk) line(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > d.cart.Len() {
		return 0, errors.Wrapf(cart.ErrNoSuchLineItem, "line %q", arg)
	}
	return n - 1, nil
}

// confirm asks on the console. Only y or yes goes ahead.
func (d *desk) confirm(_ context.Context, p sale.Prompt) (bool, error) {
	return d.ask(fmt.Sprintf("sell %d item(s) to %s for %s? [y/N] ", len(p.Items), p.Customer.Name, pricing.Format(p.Totals.Price)))
}

func (d *desk) commit(ctx context.Context) error {
	res, err := d.committer.Commit(ctx, d.cart)
	if errors.Is(err, sale.ErrCancelled) {
		d.printf("cancelled, cart kept\n")
		return nil
	}
	if err != nil {
		return err
	}
	d.printf("sale completed: invoice %s, total %s, profit %s\n",
		res.Receipt.InvoiceNumber, pricing.Format(res.Receipt.TotalAmount), pricing.Format(res.Receipt.TotalProfit))
	if res.RefreshErr != nil {
		d.printf("warning: product list may be stale: %v\n", res.RefreshErr)
	}
	if !res.CartReset {
		d.printf("note: items added during submission were kept\n")
	}
	d.lastProducts = nil
	return nil
}

func (d *desk) listSales(ctx context.Context, args []string) error {
	var (
		name string
		day  time.Time
	)
	for _, a := range args {
		if t, err := models.ParseDay(a); err == nil {
			day = t
			continue
		}
		name = strings.TrimSpace(name + " " + a)
	}
	sales, err := d.api.ListSales(ctx, name, day)
	if err != nil {
		return err
	}
	if len(sales) == 0 {
		d.printf("no sales\n")
		return nil
	}
	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tINVOICE\tDATE\tCUSTOMER\tTOTAL\tPROFIT")
	for _, s := range sales {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", s.ID, s.InvoiceNumber, models.FormatDay(s.Date), s.Customer.Name,
			pricing.Format(s.TotalAmount), pricing.Format(s.TotalProfit))
	}
	return tw.Flush()
}

func (d *desk) deleteSale(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("usage: delete <id>")
	}
	ok, err := d.ask(fmt.Sprintf("delete sale %s and restock its items? [y/N] ", id))
	if err != nil {
		return err
	}
	if !ok {
		d.printf("cancelled\n")
		return nil
	}
	n, err := d.api.DeleteSale(ctx, id)
	if err != nil {
		return err
	}
	d.printf("deleted %d sale(s)\n", n)
	if err := d.index.Refresh(ctx); err != nil {
		d.printf("warning: product list may be stale: %v\n", err)
	}
	return nil
}

func (d *desk) dashboard(ctx context.Context, args []string) error {
	var db summary.Dashboard
	switch len(args) {
	case 0:
		db = d.dash.Refresh(ctx)
	case 2:
		start, err := models.ParseDay(args[0])
		if err != nil {
			return err
		}
		end, err := models.ParseDay(args[1])
		if err != nil {
			return err
		}
		db = d.dash.Load(ctx, start, end)
	default:
		return errors.New("usage: dashboard [YYYY-MM-DD YYYY-MM-DD]")
	}
	d.printDashboard(db)
	return nil
}

func show[T any](f summary.Figure[T], format func(T) string) string {
	if !f.Available() {
		return "unavailable"
	}
	return format(f.Value)
}

func (d *desk) printDashboard(db summary.Dashboard) {
	count := func(n int64) string { return strconv.FormatInt(n, 10) }
	d.printf("total in stock:    %s\n", show(db.TotalInStock, count))
	d.printf("stock value:       %s\n", show(db.TotalStockValue, pricing.Format))
	d.printf("customers:         %s\n", show(db.TotalCustomers, count))
	d.printf("invoices:          %s\n", show(db.TotalInvoices, count))
	d.printf("sales:             %s\n", show(db.Sales, func(r models.SalesReport) string {
		return fmt.Sprintf("%s (profit %s) %s..%s", pricing.Format(r.TotalSales), pricing.Format(r.TotalProfit), r.StartDate, r.EndDate)
	}))
	if !db.Shortages.Available() {
		d.printf("stock alerts:      unavailable\n")
		return
	}
	d.printf("stock alerts:      %d\n", len(db.Shortages.Value))
	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	for _, s := range db.Shortages.Value {
		fmt.Fprintf(tw, "  %s\t%s\t%s\tin stock %d\talert %d\tshort %d\n", s.Brand, s.Category, s.SubCategory, s.InStock, s.StockAlert, s.Shortfall)
	}
	tw.Flush()
}

func (d *desk) printCustomers(cs []models.Customer) {
	if len(cs) == 0 {
		d.printf("no customers\n")
		return
	}
	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	for i, c := range cs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, c.Name, c.Mobile, c.Address)
	}
	tw.Flush()
}

func (d *desk) printProducts(ps []models.Product) {
	if len(ps) == 0 {
		d.printf("no products\n")
		return
	}
	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	for i, p := range ps {
		fmt.Fprintf(tw, "%d\t%s\t%s / %s / %s\tstock %d\t%s\n", i+1, p.Brand, p.Category, p.SubCategory, p.SubsubCategory, p.InStock, pricing.Format(p.ProductPrice))
	}
	tw.Flush()
}

func (d *desk) printCart() {
	if c, ok := d.cart.Customer(); ok {
		d.printf("customer: %s (%s)\n", c.Name, c.Mobile)
	} else {
		d.printf("customer: none\n")
	}
	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	for i, it := range d.cart.Items() {
		fmt.Fprintf(tw, "%d\t%s %s\tx%d\t@ %s\t= %s\n", i+1, it.Brand, it.Category, it.SellingAmount,
			pricing.Format(it.SellingPrice), pricing.Format(pricing.LineTotal(it)))
	}
	tw.Flush()
	t := d.cart.Totals()
	d.printf("total %s, profit %s\n", pricing.Format(t.Price), pricing.Format(t.Profit))
}

func (d *desk) printInvoice(rec models.SaleRecord) {
	d.printf("invoice %s  %s\n", rec.InvoiceNumber, models.FormatDay(rec.Date))
	d.printf("customer: %s (%s) %s\n", rec.Customer.Name, rec.Customer.Mobile, rec.Customer.Address)
	tw := tabwriter.NewWriter(d.out, 0, 4, 2, ' ', 0)
	for i, it := range rec.Products {
		fmt.Fprintf(tw, "%d\t%s %s\tx%d\t@ %s\t= %s\n", i+1, it.Brand, it.Category, it.SellingAmount,
			pricing.Format(it.SellingPrice), pricing.Format(pricing.LineTotal(it)))
	}
	tw.Flush()
	d.printf("total %s, profit %s\n", pricing.Format(rec.TotalAmount), pricing.Format(rec.TotalProfit))
}
