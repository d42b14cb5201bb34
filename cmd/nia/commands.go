package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/domain"
)

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to your parent account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = a.readLine("Email: "); err != nil {
					return err
				}
			}
			password, err := a.readSecret("Password: ")
			if err != nil {
				return err
			}
			err = a.ctrl.Login(cmd.Context(), email, password)
			a.notifications()
			if err != nil {
				return err
			}
			a.view.State(a.ctrl.Snapshot())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email (prompted when empty)")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var (
		fullName string
		email    string
		consent  bool
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a parent account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := controller.RegisterInput{FullName: fullName, Email: email, Consent: consent}
			if consent {
				var err error
				if in.Password, err = a.readSecret("Password: "); err != nil {
					return err
				}
			}
			err := a.ctrl.Register(cmd.Context(), in)
			a.notifications()
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&fullName, "name", "", "your full name")
	flags.StringVar(&email, "email", "", "account email")
	flags.BoolVar(&consent, "consent", false, "agree to the Terms of Service and Privacy Policy")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.ctrl.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.") //nolint:errcheck
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.ctrl.Snapshot()
			if s.Parent == nil {
				return controller.ErrNotAuthenticated
			}
			out := cmd.OutOrStdout()
			if s.Parent.Name != "" && s.Parent.Name != s.Parent.Email {
				fmt.Fprintf(out, "%s <%s>\n", s.Parent.Name, s.Parent.Email) //nolint:errcheck
				return nil
			}
			fmt.Fprintln(out, s.Parent.Email) //nolint:errcheck
			return nil
		},
	}
}

func newChildrenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "children",
		Short: "List your children",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := a.ctrl.ShowChildList(cmd.Context())
			a.notifications()
			if err != nil {
				return err
			}
			a.view.State(a.ctrl.Snapshot())
			return nil
		},
	}
	cmd.AddCommand(newChildrenAddCmd(a))
	return cmd
}

func newChildrenAddCmd(a *app) *cobra.Command {
	var in domain.ChildInput

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a child profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.PIN == "" {
				pin, err := a.readSecret("PIN: ")
				if err != nil {
					return err
				}
				in.PIN = pin
			}
			err := a.ctrl.CreateChild(cmd.Context(), in)
			a.notifications()
			if err != nil {
				return err
			}
			a.view.State(a.ctrl.Snapshot())
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&in.FirstName, "first-name", "", "child's first name")
	flags.StringVar(&in.Nickname, "nickname", "", "optional nickname")
	flags.StringVar(&in.DateOfBirth, "dob", "", "date of birth (YYYY-MM-DD)")
	flags.StringVar(&in.GradeLevel, "grade", "", "grade level")
	flags.StringVar(&in.PreferredLanguage, "language", "en", "preferred language: en or es")
	flags.StringVar(&in.PIN, "pin", "", "child's PIN (prompted when empty)")
	return cmd
}

func newFoldersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "folders <child-id> [folder]",
		Short: "List a child's topic folders or the conversations in one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			childID, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.ctrl.SelectChild(ctx, childID); err != nil {
				return err
			}
			if len(args) == 1 {
				a.view.Folders(a.ctrl.Snapshot().Chat.Folders)
				return nil
			}
			err = a.ctrl.OpenFolder(ctx, args[1])
			a.notifications()
			if err != nil {
				return err
			}
			a.view.Folder(a.ctrl.Snapshot().Chat.OpenFolder)
			return nil
		},
	}
}

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the parent dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := a.ctrl.OpenDashboard(cmd.Context())
			if err != nil {
				a.notifications()
				return err
			}
			a.view.State(a.ctrl.Snapshot())
			return nil
		},
	}
}

func newChildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "child <child-id>",
		Short: "Show a child's learning analytics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			childID, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			err = a.ctrl.OpenDashboard(ctx)
			if err == nil {
				err = a.ctrl.ViewChildDetail(ctx, childID)
			}
			if err != nil {
				a.notifications()
				return err
			}
			a.view.State(a.ctrl.Snapshot())
			return nil
		},
	}
}

func newPrintCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "print <conversation-id>",
		Short: "Print a full conversation transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			full, err := a.ctrl.FullConversation(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.view.Transcript(full)
			return nil
		},
	}
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the colour theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			switch {
			case len(args) == 0:
			case args[0] == "toggle":
				if _, err := a.ctrl.ToggleTheme(ctx); err != nil {
					return err
				}
			default:
				if err := a.ctrl.SetTheme(ctx, domain.Theme(args[0])); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.ctrl.Snapshot().Theme) //nolint:errcheck
			return nil
		},
	}
}

var errInvalidID = errors.New("invalid id")

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w %q", errInvalidID, arg)
	}
	return id, nil
}
