package server

import (
	"context"
	"strings"
	"testing"
	"time"

	"sarasavi/internal/client"
	"sarasavi/internal/notify"
	"sarasavi/pkg/domain"
)

func TestMemberRegistrationFlow(t *testing.T) {
	ts, notifier := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	reader := signup(t, admin, "reader")

	api := client.New(ts.URL + "/api")
	login(t, api, "reader")

	ctx := context.Background()
	member, err := api.CreateMember(ctx, client.CreateMemberRequest{
		UserID:         reader.ID,
		FirstName:      "Nimal",
		LastName:       "Perera",
		Email:          "reader@example.com",
		MembershipType: domain.MembershipPremium,
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	year := time.Now().UTC().Year()
	wantPrefix := "LIB"
	if !strings.HasPrefix(member.MemberID, wantPrefix) || !strings.Contains(member.MemberID, "001") {
		t.Fatalf("unexpected member ID %q for year %d", member.MemberID, year)
	}
	if member.Status != domain.MemberActive || member.MembershipType != domain.MembershipPremium {
		t.Fatalf("unexpected member record: %+v", member)
	}

	_, err = api.CreateMember(ctx, client.CreateMemberRequest{UserID: reader.ID})
	apiErr, ok := err.(*client.APIError)
	if !ok || apiErr.Status != 400 || !strings.Contains(strings.ToLower(apiErr.Message), "already a member") {
		t.Fatalf("expected already-a-member rejection, got %v", err)
	}

	// member card lookup works without credentials
	anon := client.New(ts.URL + "/api")
	byCard, err := anon.GetMemberByMemberID(ctx, member.MemberID)
	if err != nil {
		t.Fatalf("lookup by member ID: %v", err)
	}
	if byCard.ID != member.ID {
		t.Fatalf("unexpected member from card lookup: %+v", byCard)
	}

	found := false
	for _, kind := range notifier.kinds {
		if kind == notify.KindMemberCreated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected member.created event, got %v", notifier.kinds)
	}
}

func TestMembersCannotRegisterOtherUsers(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	other := signup(t, admin, "other")
	signup(t, admin, "reader")

	api := client.New(ts.URL + "/api")
	login(t, api, "reader")

	_, err := api.CreateMember(context.Background(), client.CreateMemberRequest{UserID: other.ID})
	if apiErr, ok := err.(*client.APIError); !ok || apiErr.Status != 403 {
		t.Fatalf("expected 403 registering another user, got %v", err)
	}
}

func TestAdminAutoCreatesMemberFromUser(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	reader := signup(t, admin, "reader")
	login(t, admin, "librarian")

	ctx := context.Background()
	member, err := admin.CreateMemberFromUser(ctx, reader.ID, "Nimal", "Perera", "reader@example.com")
	if err != nil {
		t.Fatalf("auto-create: %v", err)
	}
	if member.UserID != reader.ID || member.MembershipType != domain.MembershipBasic {
		t.Fatalf("unexpected auto-created member: %+v", member)
	}

	count, err := admin.TotalMembersCount(ctx)
	if err != nil {
		t.Fatalf("total count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 member, got %d", count)
	}
}

func TestMemberSuspendAndFilters(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	reader := signup(t, admin, "reader")
	login(t, admin, "librarian")

	ctx := context.Background()
	member, err := admin.CreateMemberFromUser(ctx, reader.ID, "Nimal", "Perera", "reader@example.com")
	if err != nil {
		t.Fatalf("auto-create: %v", err)
	}

	suspended, err := admin.SuspendMember(ctx, member.ID)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if suspended.Status != domain.MemberSuspended {
		t.Fatalf("expected suspended status, got %q", suspended.Status)
	}

	byStatus, err := admin.MembersByStatus(ctx, domain.MemberSuspended)
	if err != nil {
		t.Fatalf("by status: %v", err)
	}
	if len(byStatus) != 1 {
		t.Fatalf("expected 1 suspended member, got %d", len(byStatus))
	}

	reactivated, err := admin.ActivateMember(ctx, member.ID)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if reactivated.Status != domain.MemberActive {
		t.Fatalf("expected active status, got %q", reactivated.Status)
	}

	expiring, err := admin.MembersExpiringBefore(ctx, time.Now().UTC().Add(2*365*24*time.Hour))
	if err != nil {
		t.Fatalf("expiring: %v", err)
	}
	if len(expiring) != 1 {
		t.Fatalf("expected membership to expire within two years, got %d", len(expiring))
	}
}

func TestBorrowingLifecycle(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	reader := signup(t, admin, "reader")
	login(t, admin, "librarian")

	ctx := context.Background()
	book, err := admin.CreateBook(ctx, domain.Book{Title: "Dune", Author: "Herbert", TotalCopies: 1})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	member, err := admin.CreateMemberFromUser(ctx, reader.ID, "Nimal", "Perera", "reader@example.com")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	borrowing, err := admin.CreateBorrowing(ctx, client.CreateBorrowingRequest{
		MemberID: member.ID,
		BookID:   book.ID,
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if borrowing.Status != domain.BorrowingBorrowed {
		t.Fatalf("expected borrowed status, got %q", borrowing.Status)
	}

	afterCheckout, err := admin.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if afterCheckout.AvailableCopies != 0 || afterCheckout.Available {
		t.Fatalf("expected zero available copies, got %+v", afterCheckout)
	}

	_, err = admin.CreateBorrowing(ctx, client.CreateBorrowingRequest{MemberID: member.ID, BookID: book.ID})
	apiErr, ok := err.(*client.APIError)
	if !ok || apiErr.Status != 400 || apiErr.Message != "no copies available" {
		t.Fatalf("expected no-copies rejection, got %v", err)
	}

	returned, err := admin.ReturnBorrowing(ctx, borrowing.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != domain.BorrowingReturned || returned.ReturnDate == nil {
		t.Fatalf("expected returned borrowing, got %+v", returned)
	}

	afterReturn, err := admin.GetBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("get book: %v", err)
	}
	if afterReturn.AvailableCopies != 1 || !afterReturn.Available {
		t.Fatalf("expected copy restored, got %+v", afterReturn)
	}

	_, err = admin.ReturnBorrowing(ctx, borrowing.ID)
	if apiErr, ok := err.(*client.APIError); !ok || apiErr.Status != 400 {
		t.Fatalf("expected double-return rejection, got %v", err)
	}
}

func TestOverdueReturnAccruesFine(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	reader := signup(t, admin, "reader")
	login(t, admin, "librarian")

	ctx := context.Background()
	book, err := admin.CreateBook(ctx, domain.Book{Title: "Dune", Author: "Herbert"})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	member, err := admin.CreateMemberFromUser(ctx, reader.ID, "Nimal", "Perera", "reader@example.com")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	borrowing, err := admin.CreateBorrowing(ctx, client.CreateBorrowingRequest{
		MemberID: member.ID,
		BookID:   book.ID,
		DueDate:  time.Now().UTC().Add(-48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	returned, err := admin.ReturnBorrowing(ctx, borrowing.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.FineAmount <= 0 {
		t.Fatalf("expected overdue fine, got %+v", returned)
	}

	withFines, err := admin.MembersWithFines(ctx)
	if err != nil {
		t.Fatalf("with fines: %v", err)
	}
	if len(withFines) != 1 || withFines[0].FineBalance != returned.FineAmount {
		t.Fatalf("expected fine on member balance, got %+v", withFines)
	}
}

func TestReservationReceiveFlow(t *testing.T) {
	ts, notifier := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	reader := signup(t, admin, "reader")
	login(t, admin, "librarian")

	ctx := context.Background()
	book, err := admin.CreateBook(ctx, domain.Book{Title: "Dune", Author: "Herbert"})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	member, err := admin.CreateMemberFromUser(ctx, reader.ID, "Nimal", "Perera", "reader@example.com")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}

	api := client.New(ts.URL + "/api")
	login(t, api, "reader")
	reservation, err := api.CreateReservation(ctx, client.CreateReservationRequest{
		MemberID: member.ID,
		BookID:   book.ID,
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if reservation.Status != domain.ReservationPending {
		t.Fatalf("expected pending reservation, got %q", reservation.Status)
	}

	// only admins can hand over the copy
	_, err = api.ReceiveReservation(ctx, reservation.ID)
	if apiErr, ok := err.(*client.APIError); !ok || apiErr.Status != 403 {
		t.Fatalf("expected 403 for member receive, got %v", err)
	}

	received, err := admin.ReceiveReservation(ctx, reservation.ID)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if !received.Received || received.Status != domain.ReservationFulfilled || received.ReceivedDate == nil {
		t.Fatalf("expected fulfilled reservation, got %+v", received)
	}

	_, err = admin.ReceiveReservation(ctx, reservation.ID)
	if apiErr, ok := err.(*client.APIError); !ok || apiErr.Status != 400 {
		t.Fatalf("expected rejection for non-pending reservation, got %v", err)
	}

	found := false
	for _, kind := range notifier.kinds {
		if kind == notify.KindReservationReceived {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected reservation.received event, got %v", notifier.kinds)
	}
}

func TestDeleteBlockedWhileCopiesAreOut(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	reader := signup(t, admin, "reader")
	login(t, admin, "librarian")

	ctx := context.Background()
	book, err := admin.CreateBook(ctx, domain.Book{Title: "Dune", Author: "Herbert"})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	member, err := admin.CreateMemberFromUser(ctx, reader.ID, "Nimal", "Perera", "reader@example.com")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	borrowing, err := admin.CreateBorrowing(ctx, client.CreateBorrowingRequest{MemberID: member.ID, BookID: book.ID})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	err = admin.DeleteBook(ctx, book.ID)
	if apiErr, ok := err.(*client.APIError); !ok || apiErr.Status != 400 {
		t.Fatalf("expected delete rejection for borrowed book, got %v", err)
	}
	err = admin.DeleteMember(ctx, member.ID)
	if apiErr, ok := err.(*client.APIError); !ok || apiErr.Status != 400 {
		t.Fatalf("expected delete rejection for borrowing member, got %v", err)
	}

	if _, err := admin.ReturnBorrowing(ctx, borrowing.ID); err != nil {
		t.Fatalf("return: %v", err)
	}
	if err := admin.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("delete after return: %v", err)
	}
}

func TestMemberSeesOnlyOwnBorrowings(t *testing.T) {
	ts, _ := newTestServer(t, nil)
	admin := client.New(ts.URL + "/api")
	signup(t, admin, "librarian")
	readerOne := signup(t, admin, "reader-one")
	readerTwo := signup(t, admin, "reader-two")
	login(t, admin, "librarian")

	ctx := context.Background()
	book, err := admin.CreateBook(ctx, domain.Book{Title: "Dune", Author: "Herbert", TotalCopies: 5})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	memberOne, err := admin.CreateMemberFromUser(ctx, readerOne.ID, "One", "Perera", "one@example.com")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	memberTwo, err := admin.CreateMemberFromUser(ctx, readerTwo.ID, "Two", "Perera", "two@example.com")
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	for _, memberID := range []string{memberOne.ID, memberTwo.ID} {
		if _, err := admin.CreateBorrowing(ctx, client.CreateBorrowingRequest{MemberID: memberID, BookID: book.ID}); err != nil {
			t.Fatalf("checkout: %v", err)
		}
	}

	api := client.New(ts.URL + "/api")
	login(t, api, "reader-one")
	mine, err := api.ListBorrowings(ctx, "")
	if err != nil {
		t.Fatalf("list borrowings: %v", err)
	}
	if len(mine) != 1 || mine[0].MemberID != memberOne.ID {
		t.Fatalf("expected only own borrowings, got %+v", mine)
	}

	all, err := admin.ListBorrowings(ctx, "")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected all borrowings for admin, got %d", len(all))
	}
}
