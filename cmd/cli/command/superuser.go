package command

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"foodgram/internal/http-api/service"
)

// SuperuserPasswordEnv supplies the password when --password is omitted.
const SuperuserPasswordEnv = "FOODGRAM_SUPERUSER_PASSWORD"

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := superuserInput(cmd)
		if err != nil {
			return err
		}

		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.Services.Auth.CreateAdmin(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("failed to create superuser: %w", err)
		}

		color.Green("✓ Superuser created successfully!")
		fmt.Printf("ID: %s\n", user.ID)
		fmt.Printf("Username: %s\n", user.Username)
		fmt.Printf("Email: %s\n", user.Email)
		return nil
	},
}

func superuserInput(cmd *cobra.Command) (service.RegisterInput, error) {
	flags := cmd.Flags()
	in := service.RegisterInput{}
	in.Email, _ = flags.GetString("email")
	in.Username, _ = flags.GetString("username")
	in.FirstName, _ = flags.GetString("first-name")
	in.LastName, _ = flags.GetString("last-name")
	in.Password, _ = flags.GetString("password")
	if in.Password == "" {
		in.Password = os.Getenv(SuperuserPasswordEnv)
	}
	if in.Password == "" {
		return in, fmt.Errorf("password required: pass --password or set %s", SuperuserPasswordEnv)
	}
	return in, nil
}

func init() {
	createSuperuserCmd.Flags().StringP("email", "e", "", "Email address of the administrator")
	createSuperuserCmd.Flags().StringP("username", "u", "", "Username of the administrator")
	createSuperuserCmd.Flags().String("first-name", "", "First name")
	createSuperuserCmd.Flags().String("last-name", "", "Last name")
	createSuperuserCmd.Flags().StringP("password", "p", "", "Password (or set "+SuperuserPasswordEnv+")")
	createSuperuserCmd.MarkFlagRequired("email")
	createSuperuserCmd.MarkFlagRequired("username")
	createSuperuserCmd.MarkFlagRequired("first-name")
	createSuperuserCmd.MarkFlagRequired("last-name")

	rootCmd.AddCommand(createSuperuserCmd)
}
