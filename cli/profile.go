// ABOUTME: Profile CLI commands for the signed-in user
// ABOUTME: Avatar upload sends the image as multipart form data and refreshes the stored session
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/bolha/api"
)

func newProfileCommand(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage your own profile",
	}

	avatar := &cobra.Command{
		Use:   "avatar <file>",
		Short: "Upload a new avatar image",
		Args:  cobra.ExactArgs(1),
	}
	avatar.RunE = state.withApp(false, func(cmd *cobra.Command, a *app, args []string) error {
		if err := a.requireSession(); err != nil {
			return err
		}
		url, err := a.client.UploadAvatar(cmd.Context(), args[0])
		if err != nil {
			if msg, ok := api.DisplayMessage(err); ok {
				return errors.New(msg)
			}
			return err
		}
		user := a.session.Current().User
		user.AvatarURL = url
		if err := a.session.UpdateUser(user); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "✓ Avatar updated: %s\n", url)
		return nil
	})

	cmd.AddCommand(avatar)
	return cmd
}
