package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/psichat/internal/auth"
	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

func newAuthCmd(rt *runtime) *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the PsiChat session",
		Long: `Manage the PsiChat session.

The session token is stored in ~/.psichat/session.json (PSICHAT_TOKEN_PATH)
and is checked against the backend every time a command starts.

Subcommands:
  login            Login with email and password
  register         Create an account and log in
  logout           Forget the stored session
  status           Show the current session
  change-password  Change the account password
  students         List students (tutors only)

Examples:
  psichat auth login --email ana@psichat.edu
  psichat auth status -o json
  psichat auth logout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	authCmd.AddCommand(
		newAuthLoginCmd(rt),
		newAuthRegisterCmd(rt),
		newAuthLogoutCmd(rt),
		newAuthStatusCmd(rt),
		newAuthChangePasswordCmd(rt),
		newAuthStudentsCmd(rt),
	)
	return authCmd
}

func newAuthLoginCmd(rt *runtime) *cobra.Command {
	c := &cobra.Command{
		Use:   "login",
		Short: "Login with email and password",
		Long: `Login with email and password. Missing values are asked for interactively.

Examples:
  psichat auth login --email ana@psichat.edu --password 'secret123'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")

			a, cc, err := rt.load(cmd)
			if err != nil {
				return err
			}

			if email == "" || password == "" {
				creds, err := rt.prompter.Login(email)
				if err != nil {
					return fmt.Errorf("login prompt failed: %w", err)
				}
				email, password = creds.Email, creds.Password
			}

			user, err := a.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return cc.Print(cmd, userOutput(*user))
		},
	}
	c.Flags().String("email", "", "account email")
	c.Flags().String("password", "", "account password")
	return c
}

func newAuthRegisterCmd(rt *runtime) *cobra.Command {
	c := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Long: `Create an account and log in. Without --email the form is shown interactively.

Examples:
  psichat auth register --name Ana --email ana@psichat.edu --password secret123 --confirm secret123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			form := validation.RegisterForm{}
			form.Name, _ = flags.GetString("name")
			form.LastName, _ = flags.GetString("last-name")
			form.Email, _ = flags.GetString("email")
			form.Password, _ = flags.GetString("password")
			form.ConfirmPassword, _ = flags.GetString("confirm")
			roleName, _ := flags.GetString("role")
			institution, _ := flags.GetString("institution")

			role := platform.Role(roleName)
			if !role.Valid() {
				return fmt.Errorf("invalid argument %q for --role (want estudiante or tutor)", roleName)
			}

			a, cc, err := rt.load(cmd)
			if err != nil {
				return err
			}

			if form.Email == "" {
				reg, err := rt.prompter.Register()
				if err != nil {
					return fmt.Errorf("registration prompt failed: %w", err)
				}
				form, role, institution = reg.Form, reg.Role, reg.Institution
			}

			user, err := a.Register(cmd.Context(), form, role, institution)
			if err != nil {
				return err
			}
			return cc.Print(cmd, userOutput(*user))
		},
	}
	f := c.Flags()
	f.String("name", "", "first name")
	f.String("last-name", "", "last name")
	f.String("email", "", "account email")
	f.String("password", "", "password (at least 8 characters with a letter and a number)")
	f.String("confirm", "", "password confirmation")
	f.String("role", string(platform.RoleStudent), "account role: estudiante or tutor")
	f.String("institution", "", "institution name")
	return c
}

func newAuthLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.load(cmd)
			if err != nil {
				return err
			}
			a.Logout()
			return cc.Print(cmd, messageOutput{Message: "Logged out"})
		},
	}
}

func newAuthStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.load(cmd)
			if err != nil {
				return err
			}

			st := a.Session.State()
			out := statusOutput{
				Phase:         string(st.Phase()),
				Authenticated: st.Authenticated,
				User:          st.User,
				APIBaseURL:    a.Config.APIBaseURL,
			}
			if token, err := a.Tokens.Token(); err == nil && token != "" {
				out.Token = auth.Fingerprint(token)
				if info, err := auth.InspectToken(token); err == nil && info.IsJWT && !info.ExpiresAt.IsZero() {
					expires := info.ExpiresAt
					out.ExpiresAt = &expires
				}
			}
			return cc.Print(cmd, out)
		},
	}
}

func newAuthChangePasswordCmd(rt *runtime) *cobra.Command {
	c := &cobra.Command{
		Use:   "change-password",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			form := validation.ChangePasswordForm{}
			form.CurrentPassword, _ = flags.GetString("current")
			form.NewPassword, _ = flags.GetString("new")
			form.ConfirmPassword, _ = flags.GetString("confirm")

			a, cc, err := rt.guard(cmd, "/cambiar-contrasena")
			if err != nil {
				return err
			}

			if form.CurrentPassword == "" || form.NewPassword == "" {
				form, err = rt.prompter.ChangePassword()
				if err != nil {
					return fmt.Errorf("password prompt failed: %w", err)
				}
			}

			if err := a.ChangePassword(cmd.Context(), form); err != nil {
				return err
			}
			return cc.Print(cmd, messageOutput{Message: "Password updated"})
		},
	}
	f := c.Flags()
	f.String("current", "", "current password")
	f.String("new", "", "new password")
	f.String("confirm", "", "new password confirmation")
	return c
}

func newAuthStudentsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "students",
		Short: "List students (tutors only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/tutor/panel")
			if err != nil {
				return err
			}
			students, err := a.Services.Auth.Students(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Print(cmd, studentsOutput(students))
		},
	}
}
