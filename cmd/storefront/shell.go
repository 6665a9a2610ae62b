package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"storefront/internal/app"
	"storefront/internal/booking"
	"storefront/internal/cart"
	"storefront/internal/models"
)

const helpText = `Commands:
  products                 list the catalogue
  add <product> [qty]      add a product to the cart (qty defaults to 1)
  qty <product> <n>        set the quantity of a cart line
  rm <product>             remove a cart line
  cart                     show the cart
  clear                    empty the cart
  login <token>            store a bearer token
  logout                   forget the bearer token
  book <vehicle> <date>    start booking seats (date as YYYY-MM-DD)
  seats                    show the seat map
  toggle <seat>...         select or unselect seats
  submit                   book the selected seats
  refresh                  reload booked seats from the server
  leave                    stop booking
  help                     show this help
  quit                     exit
`

// shell is the interactive front end over one app.State
type shell struct {
	state   *app.State
	out     io.Writer
	booking *app.BookingSession
	unsubs  []func()
}

func newShell(state *app.State, out io.Writer) *shell {
	s := &shell{state: state, out: out}
	state.Cart.Subscribe(func(c models.Cart) {
		fmt.Fprintf(s.out, "cart: %d item(s), total %s\n", countUnits(c), money(c.Total()))
	})
	return s
}

// Run reads commands from in until EOF, quit or ctx is done
func (s *shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	s.prompt()

	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 {
			if quit := s.exec(ctx, fields[0], fields[1:]); quit {
				return nil
			}
		}
		s.prompt()
	}
	return scanner.Err()
}

func (s *shell) prompt() {
	if s.booking != nil {
		v := s.booking.View.Vehicle()
		fmt.Fprintf(s.out, "%s %s> ", v.ID, s.booking.View.TravelDate())
		return
	}
	fmt.Fprint(s.out, "> ")
}

func (s *shell) exec(ctx context.Context, cmd string, args []string) bool {
	switch strings.ToLower(cmd) {
	case "products":
		s.products(ctx)
	case "add":
		s.add(ctx, args)
	case "qty":
		s.setQuantity(ctx, args)
	case "rm", "remove":
		if len(args) != 1 {
			s.usage("rm <product>")
			return false
		}
		s.state.Cart.Remove(ctx, args[0])
	case "cart":
		s.printCart()
	case "clear":
		s.state.Cart.Clear(ctx)
	case "login":
		if len(args) != 1 {
			s.usage("login <token>")
			return false
		}
		s.state.Auth.SetCredential(ctx, args[0])
		fmt.Fprintln(s.out, "Logged in.")
	case "logout":
		s.state.Auth.Logout(ctx)
		fmt.Fprintln(s.out, "Logged out.")
	case "book":
		s.book(ctx, args)
	case "seats":
		if s.requireBooking() {
			s.printSeats()
		}
	case "toggle":
		s.toggle(args)
	case "submit":
		s.submit(ctx)
	case "refresh":
		s.refresh(ctx)
	case "leave":
		s.leave()
	case "help", "?":
		fmt.Fprint(s.out, helpText)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command %q. Type help for a list.\n", cmd)
	}
	return false
}

func (s *shell) usage(text string) {
	fmt.Fprintf(s.out, "Usage: %s\n", text)
}

func (s *shell) products(ctx context.Context) {
	products, err := s.state.API.ListProducts(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Could not load products: %v\n", err)
		return
	}
	for _, p := range products {
		fmt.Fprintf(s.out, "  %-12s %-28s %10s\n", p.ID, p.Name, money(p.Price))
	}
}

func (s *shell) add(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		s.usage("add <product> [qty]")
		return
	}

	quantity := 1
	if len(args) == 2 {
		n, err := cart.ParseQuantity(args[1])
		if err != nil {
			fmt.Fprintf(s.out, "Invalid quantity: %v\n", err)
			return
		}
		quantity = n
	}

	product, err := s.state.API.FetchProduct(ctx, args[0])
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			fmt.Fprintf(s.out, "No product %q.\n", args[0])
			return
		}
		fmt.Fprintf(s.out, "Could not load product: %v\n", err)
		return
	}
	s.state.Cart.Add(ctx, product, quantity)
}

func (s *shell) setQuantity(ctx context.Context, args []string) {
	if len(args) != 2 {
		s.usage("qty <product> <n>")
		return
	}

	n, err := cart.ParseQuantity(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid quantity: %v\n", err)
		return
	}
	if s.state.Cart.Snapshot().Find(args[0]) < 0 {
		fmt.Fprintf(s.out, "%q is not in the cart.\n", args[0])
		return
	}
	s.state.Cart.SetQuantity(ctx, args[0], n)
}

func (s *shell) printCart() {
	lines := s.state.Cart.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(s.out, "Your cart is empty.")
		return
	}
	for _, l := range lines {
		fmt.Fprintf(s.out, "  %-12s %-28s %4d x %10s = %10s\n", l.ProductID, l.Name, l.Quantity, money(l.UnitPrice), money(l.Subtotal()))
	}
	fmt.Fprintf(s.out, "  Total: %s\n", money(s.state.Cart.TotalPrice()))
}

func (s *shell) book(ctx context.Context, args []string) {
	if len(args) != 2 {
		s.usage("book <vehicle> <date>")
		return
	}

	session, err := s.state.NewBookingSession(ctx, args[0], args[1])
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			fmt.Fprintf(s.out, "No vehicle %q.\n", args[0])
		default:
			fmt.Fprintf(s.out, "Could not open booking: %v\n", err)
		}
		return
	}

	s.leave()
	s.booking = session
	s.unsubs = append(s.unsubs,
		session.View.Subscribe(s.printSelection),
		session.Coordinator.Subscribe(func(st booking.State) {
			if st == booking.StateSubmitting {
				fmt.Fprintln(s.out, "Submitting booking...")
			}
		}),
	)

	v := session.View.Vehicle()
	fmt.Fprintf(s.out, "%s %s -> %s on %s, %s per seat\n", v.Name, v.Route.From, v.Route.To, session.View.TravelDate(), money(v.Route.BasePrice))
	s.printSeats()
}

func (s *shell) requireBooking() bool {
	if s.booking == nil {
		fmt.Fprintln(s.out, "Start a booking first: book <vehicle> <date>")
		return false
	}
	return true
}

func (s *shell) printSeats() {
	seats := s.booking.View.Seats()
	for i, seat := range seats {
		mark := " "
		switch seat.Status {
		case models.SeatSelected:
			mark = "*"
		case models.SeatBooked:
			mark = "x"
		}
		fmt.Fprintf(s.out, "%3d%s", seat.Number, mark)
		if (i+1)%10 == 0 || i == len(seats)-1 {
			fmt.Fprintln(s.out)
		}
	}
	fmt.Fprintln(s.out, "  * selected   x booked")
}

func (s *shell) printSelection() {
	view := s.booking.View
	selection := view.Selection()
	if len(selection) == 0 {
		fmt.Fprintln(s.out, "No seats selected.")
		return
	}
	fmt.Fprintf(s.out, "Selected seats %s, total %s\n", joinInts(selection), money(view.TotalPrice()))
}

func (s *shell) toggle(args []string) {
	if !s.requireBooking() {
		return
	}
	if len(args) == 0 {
		s.usage("toggle <seat>...")
		return
	}

	for _, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(s.out, "%q is not a seat number.\n", arg)
			continue
		}
		if !s.booking.View.Toggle(n) {
			if s.booking.View.Status(n) == models.SeatBooked {
				fmt.Fprintf(s.out, "Seat %d is already booked.\n", n)
			} else {
				fmt.Fprintf(s.out, "This vehicle has no seat %d.\n", n)
			}
		}
	}
}

func (s *shell) submit(ctx context.Context) {
	if !s.requireBooking() {
		return
	}

	confirmation, err := s.booking.Coordinator.Submit(ctx)
	if err != nil {
		var rejection *booking.RejectionError
		switch {
		case errors.Is(err, models.ErrAuthRequired):
			fmt.Fprintln(s.out, "Please log in to continue: login <token>")
		case errors.Is(err, models.ErrEmptySelection):
			fmt.Fprintln(s.out, "Choose at least one seat.")
		case errors.Is(err, models.ErrSubmissionInProgress):
			fmt.Fprintln(s.out, "A booking is already being submitted.")
		case errors.As(err, &rejection):
			fmt.Fprintln(s.out, rejection.Message)
			fmt.Fprintln(s.out, "Type refresh to update the seat map before trying again.")
		default:
			fmt.Fprintf(s.out, "Booking failed: %v\n", err)
		}
		return
	}

	fmt.Fprintf(s.out, "Booking confirmed! Seats %s, total %s. Reference %s\n",
		joinInts(confirmation.Seats), money(confirmation.Total), confirmation.Reservation.ID)

	if confirmation.RedirectAfter > 0 {
		select {
		case <-time.After(confirmation.RedirectAfter):
		case <-ctx.Done():
		}
	}
	fmt.Fprintf(s.out, "Going to %s.\n", confirmation.RedirectTo)
	s.leave()
}

func (s *shell) refresh(ctx context.Context) {
	if !s.requireBooking() {
		return
	}

	dropped, err := s.booking.Refresh(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "Could not refresh seats: %v\n", err)
		return
	}
	if len(dropped) > 0 {
		fmt.Fprintf(s.out, "Seats %s were booked by someone else and left your selection.\n", joinInts(dropped))
	}
	s.printSeats()
}

func (s *shell) leave() {
	for _, unsubscribe := range s.unsubs {
		unsubscribe()
	}
	s.unsubs = nil
	s.booking = nil
}

func countUnits(c models.Cart) int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
