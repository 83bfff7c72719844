package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sarasavi/internal/screen"
	"sarasavi/pkg/domain"
)

func printMembers(members []domain.Member) {
	tw := newTable()
	fmt.Fprintln(tw, "MEMBER ID\tNAME\tTYPE\tSTATUS\tEXPIRES\tFINES\tID")
	for _, m := range members {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t%.2f\t%s\n",
			m.MemberID, m.FirstName, m.LastName, m.MembershipType, m.Status,
			m.ExpiryDate.Format("2006-01-02"), m.FineBalance, m.ID)
	}
	tw.Flush()
}

func newMemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Membership portal for the signed-in account",
	}
	cmd.AddCommand(newMemberRegisterCmd(), newMemberLoginCmd(), newMemberStatusCmd(), newMemberLoansCmd())
	return cmd
}

func newMemberLoansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "loans",
		Short: "Show the signed-in member's loans and reservations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			sess, err := screen.RequireMember(app.sessions)
			if err != nil {
				return friendlyErr(err)
			}
			borrowings, err := app.api.ListBorrowings(cmd.Context(), sess.Member.ID)
			if err != nil {
				return err
			}
			reservations, err := app.api.ListReservations(cmd.Context(), sess.Member.ID)
			if err != nil {
				return err
			}
			printBorrowings(borrowings)
			fmt.Println()
			printReservations(reservations)
			return nil
		},
	}
}

func newMemberRegisterCmd() *cobra.Command {
	var email, membershipType string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Become a library member",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			sess, err := app.sessions.Load()
			if err != nil {
				return err
			}
			if email == "" && sess.User != nil {
				email = sess.User.Email
			}
			password, err := promptPassword("Confirm account password: ")
			if err != nil {
				return err
			}
			portal := screen.NewMemberPortal(app.api, app.sessions, bannerTTL)
			member, err := portal.Register(cmd.Context(), screen.RegistrationForm{
				Email:          email,
				Password:       password,
				MembershipType: domain.MembershipType(membershipType),
			})
			reportBanner(portal.Banner())
			if err != nil {
				return friendlyErr(err)
			}
			fmt.Printf("Member ID: %s (expires %s)\n", member.MemberID, member.ExpiryDate.Format("2006-01-02"))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (defaults to the signed-in account)")
	cmd.Flags().StringVar(&membershipType, "type", string(domain.MembershipBasic), "membership type")
	return cmd
}

func newMemberLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <member-id>",
		Short: "Sign into the member portal with a member ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			portal := screen.NewMemberPortal(app.api, app.sessions, bannerTTL)
			member, err := portal.LoginWithMemberID(cmd.Context(), args[0])
			reportBanner(portal.Banner())
			if err != nil {
				return err
			}
			fmt.Printf("Welcome back, %s %s (%s)\n", member.FirstName, member.LastName, member.MemberID)
			return nil
		},
	}
}

func newMemberStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the signed-in account has a membership",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			portal := screen.NewMemberPortal(app.api, app.sessions, bannerTTL)
			if portal.IsExistingMember(cmd.Context()) {
				fmt.Println("Already a member")
			} else {
				fmt.Println("Not a member yet")
			}
			return nil
		},
	}
}

func newMembersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "Manage memberships (admin)",
	}
	cmd.AddCommand(newMembersListCmd(), newMembersSuspendCmd(), newMembersActivateCmd(), newMembersRemoveCmd())
	return cmd
}

func (a *app) membersScreen(cmd *cobra.Command) (*screen.MembersScreen, error) {
	members := screen.NewMembersScreen(a.api, a.sessions, bannerTTL)
	if err := members.Mount(cmd.Context()); err != nil {
		return nil, friendlyErr(err)
	}
	return members, nil
}

func newMembersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List members",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			members, err := app.membersScreen(cmd)
			if err != nil {
				return err
			}
			printMembers(members.Members())
			fmt.Printf("\n%d members\n", members.Total())
			return nil
		},
	}
}

func newMembersSuspendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suspend <id>",
		Short: "Suspend a membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			members, err := app.membersScreen(cmd)
			if err != nil {
				return err
			}
			err = members.SuspendMember(cmd.Context(), args[0])
			reportBanner(members.Banner())
			return err
		},
	}
}

func newMembersActivateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "activate <id>",
		Short: "Reactivate a membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			members, err := app.membersScreen(cmd)
			if err != nil {
				return err
			}
			err = members.ActivateMember(cmd.Context(), args[0])
			reportBanner(members.Banner())
			return err
		},
	}
}

func newMembersRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a membership",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			members, err := app.membersScreen(cmd)
			if err != nil {
				return err
			}
			err = members.DeleteMember(cmd.Context(), args[0])
			reportBanner(members.Banner())
			return err
		},
	}
}
