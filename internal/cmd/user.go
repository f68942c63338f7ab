package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/psichat/internal/platform"
	"github.com/felixgeelhaar/psichat/internal/validation"
)

func newUserCmd(rt *runtime) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage settings and profile",
		Long: `Manage the account settings and profile.

Examples:
  psichat user settings get
  psichat user settings update --volume 40 --set notifications.email=false
  psichat user profile update --phone "+56 9 1234 5678"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	userCmd.AddCommand(newSettingsCmd(rt), newProfileCmd(rt))
	return userCmd
}

func newSettingsCmd(rt *runtime) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and change settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/configuracion")
			if err != nil {
				return err
			}
			settings, err := a.Services.User.Settings(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Print(cmd, documentOutput(settings))
		},
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Change settings",
		Long: `Change settings. Values given with --set are parsed as YAML scalars,
so true, 12 and 0.5 keep their types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pairs, _ := cmd.Flags().GetStringArray("set")
			changes := make(map[string]map[string]any)
			for _, pair := range pairs {
				section, key, value, err := parseSetting(pair)
				if err != nil {
					return err
				}
				if changes[section] == nil {
					changes[section] = make(map[string]any)
				}
				changes[section][key] = value
			}
			if cmd.Flags().Changed("volume") {
				volume, _ := cmd.Flags().GetInt("volume")
				if err := validation.Volume(volume); err != nil {
					return err
				}
				if changes["sound"] == nil {
					changes["sound"] = make(map[string]any)
				}
				changes["sound"]["volume"] = volume
			}
			if len(changes) == 0 {
				return fmt.Errorf("nothing to update: pass --volume or --set section.key=value")
			}

			a, cc, err := rt.guard(cmd, "/configuracion")
			if err != nil {
				return err
			}
			current, err := a.Services.User.Settings(cmd.Context())
			if err != nil {
				return err
			}
			updated, err := a.Services.User.UpdateSettings(cmd.Context(), mergeSettings(current, changes))
			if err != nil {
				return err
			}
			a.Notifications.Success("Settings saved")
			return cc.Print(cmd, documentOutput(updated))
		},
	}
	update.Flags().Int("volume", 0, "sound volume between 0 and 100")
	update.Flags().StringArray("set", nil, "set section.key=value (repeatable)")

	reset := &cobra.Command{
		Use:   "reset",
		Short: "Restore the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")

			a, cc, err := rt.guard(cmd, "/configuracion")
			if err != nil {
				return err
			}
			if !yes {
				ok, err := rt.prompter.Confirm("Restore the default settings?", false)
				if err != nil {
					return err
				}
				if !ok {
					return cc.Print(cmd, messageOutput{Message: "Cancelled"})
				}
			}
			settings, err := a.Services.User.ResetSettings(cmd.Context())
			if err != nil {
				return err
			}
			a.Notifications.Info("Settings restored to defaults")
			return cc.Print(cmd, documentOutput(settings))
		},
	}
	reset.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	settingsCmd.AddCommand(get, update, reset)
	return settingsCmd
}

// parseSetting splits "section.key=value" and decodes value as a YAML scalar.
func parseSetting(pair string) (section, key string, value any, err error) {
	path, raw, ok := strings.Cut(pair, "=")
	if !ok {
		return "", "", nil, fmt.Errorf("invalid setting %q: want section.key=value", pair)
	}
	section, key, ok = strings.Cut(strings.TrimSpace(path), ".")
	if !ok || section == "" || key == "" {
		return "", "", nil, fmt.Errorf("invalid setting %q: want section.key=value", pair)
	}
	if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
		value = raw
	}
	return section, key, value, nil
}

// mergeSettings overlays changes onto current without mutating it.
func mergeSettings(current platform.Settings, changes map[string]map[string]any) platform.Settings {
	out := make(platform.Settings, len(current)+len(changes))
	for k, v := range current {
		out[k] = v
	}
	for section, values := range changes {
		merged := make(map[string]any)
		for k, v := range current.Section(section) {
			merged[k] = v
		}
		for k, v := range values {
			merged[k] = v
		}
		out[section] = merged
	}
	return out
}

func newProfileCmd(rt *runtime) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Read and change the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/perfil")
			if err != nil {
				return err
			}
			user, err := a.Services.User.Profile(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Print(cmd, userOutput(*user))
		},
	}

	update := &cobra.Command{
		Use:   "update",
		Short: "Change the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			up := platform.ProfileUpdate{}
			up.Name, _ = flags.GetString("name")
			up.LastName, _ = flags.GetString("last-name")
			up.Phone, _ = flags.GetString("phone")
			up.Institution, _ = flags.GetString("institution")
			up.Degree, _ = flags.GetString("degree")
			if up == (platform.ProfileUpdate{}) {
				return fmt.Errorf("nothing to update: pass at least one profile flag")
			}

			a, cc, err := rt.guard(cmd, "/perfil")
			if err != nil {
				return err
			}
			user, err := a.Services.User.UpdateProfile(cmd.Context(), up)
			if err != nil {
				return err
			}
			a.Session.UpdateUser(user)
			a.Notifications.Success("Profile updated")
			return cc.Print(cmd, userOutput(*user))
		},
	}
	f := update.Flags()
	f.String("name", "", "first name")
	f.String("last-name", "", "last name")
	f.String("phone", "", "phone number")
	f.String("institution", "", "institution")
	f.String("degree", "", "academic degree")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cc, err := rt.guard(cmd, "/perfil")
			if err != nil {
				return err
			}
			doc, err := a.Services.User.ProfileStats(cmd.Context())
			if err != nil {
				return err
			}
			return cc.Print(cmd, documentOutput(doc))
		},
	}

	profileCmd.AddCommand(get, update, stats)
	return profileCmd
}
