package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sarasavi/internal/client"
	"sarasavi/internal/screen"
	"sarasavi/pkg/domain"
)

func printBorrowings(borrowings []domain.Borrowing) {
	tw := newTable()
	fmt.Fprintln(tw, "ID\tMEMBER\tBOOK\tDUE\tSTATUS\tFINE")
	for _, b := range borrowings {
		due := b.DueDate.Format("2006-01-02")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\n", b.ID, b.MemberID, b.BookID, due, b.Status, b.FineAmount)
	}
	tw.Flush()
}

func printReservations(reservations []domain.Reservation) {
	tw := newTable()
	fmt.Fprintln(tw, "ID\tMEMBER\tBOOK\tRESERVED\tSTATUS")
	for _, r := range reservations {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.MemberID, r.BookID, r.ReservationDate.Format("2006-01-02"), r.Status)
	}
	tw.Flush()
}

func newBorrowingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "borrowings",
		Short: "Manage loans (admin)",
	}
	cmd.AddCommand(newBorrowingsListCmd(), newCheckoutCmd(), newReturnCmd())
	return cmd
}

func (a *app) borrowingsScreen(cmd *cobra.Command, memberID string) (*screen.BorrowingsScreen, error) {
	borrowings := screen.NewBorrowingsScreen(a.api, a.sessions, bannerTTL)
	borrowings.FilterByMember(memberID)
	if err := borrowings.Mount(cmd.Context()); err != nil {
		return nil, friendlyErr(err)
	}
	return borrowings, nil
}

func newBorrowingsListCmd() *cobra.Command {
	var memberID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List loans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			borrowings, err := app.borrowingsScreen(cmd, memberID)
			if err != nil {
				return err
			}
			printBorrowings(borrowings.Borrowings())
			return nil
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "restrict to one member record ID")
	return cmd
}

func newCheckoutCmd() *cobra.Command {
	var memberID, bookID string
	var days int
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Lend a book to a member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			borrowings, err := app.borrowingsScreen(cmd, "")
			if err != nil {
				return err
			}
			req := client.CreateBorrowingRequest{MemberID: memberID, BookID: bookID}
			if days > 0 {
				req.DueDate = time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour)
			}
			err = borrowings.Checkout(cmd.Context(), req)
			reportBanner(borrowings.Banner())
			return err
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "member record ID")
	cmd.Flags().StringVar(&bookID, "book", "", "book record ID")
	cmd.Flags().IntVar(&days, "days", 0, "loan period in days (default server policy)")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func newReturnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return <id>",
		Short: "Record a returned loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			borrowings, err := app.borrowingsScreen(cmd, "")
			if err != nil {
				return err
			}
			err = borrowings.Return(cmd.Context(), args[0])
			reportBanner(borrowings.Banner())
			return err
		},
	}
}

func newReservationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reservations",
		Short: "Manage reservations",
	}
	cmd.AddCommand(newReservationsListCmd(), newReserveCmd(), newReceiveCmd())
	return cmd
}

func (a *app) reservationsScreen(cmd *cobra.Command, memberID string) (*screen.ReservationsScreen, error) {
	reservations := screen.NewReservationsScreen(a.api, a.sessions, bannerTTL)
	reservations.FilterByMember(memberID)
	if err := reservations.Mount(cmd.Context()); err != nil {
		return nil, friendlyErr(err)
	}
	return reservations, nil
}

func newReservationsListCmd() *cobra.Command {
	var memberID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			reservations, err := app.reservationsScreen(cmd, memberID)
			if err != nil {
				return err
			}
			printReservations(reservations.Reservations())
			return nil
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "restrict to one member record ID")
	return cmd
}

func newReserveCmd() *cobra.Command {
	var memberID, bookID string
	cmd := &cobra.Command{
		Use:   "reserve",
		Short: "Place a reservation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			// members reserve for themselves; the server rejects anything else
			reservations := screen.NewReservationsScreen(app.api, app.sessions, bannerTTL)
			err = reservations.Create(cmd.Context(), client.CreateReservationRequest{MemberID: memberID, BookID: bookID})
			reportBanner(reservations.Banner())
			return err
		},
	}
	cmd.Flags().StringVar(&memberID, "member", "", "member record ID")
	cmd.Flags().StringVar(&bookID, "book", "", "book record ID")
	_ = cmd.MarkFlagRequired("member")
	_ = cmd.MarkFlagRequired("book")
	return cmd
}

func newReceiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receive <id>",
		Short: "Hand over a reserved copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			reservations, err := app.reservationsScreen(cmd, "")
			if err != nil {
				return err
			}
			err = reservations.Receive(cmd.Context(), args[0])
			reportBanner(reservations.Banner())
			return err
		},
	}
}
