package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/service"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Account administration",
}

var userBootstrapCmd = &cobra.Command{
	Use:   "bootstrap <username> <password>",
	Short: "Create the first manager account in an empty store",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserBootstrap,
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE:  runUserList,
}

var userActivateCmd = &cobra.Command{
	Use:   "set-active <id>",
	Short: "Activate or deactivate an account",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserSetActive,
}

var userRoleCmd = &cobra.Command{
	Use:   "set-role <id> <role>",
	Short: "Change an account's role",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserSetRole,
}

var userResetCmd = &cobra.Command{
	Use:   "require-password-reset <id>",
	Short: "Force a password change on next login",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserRequireReset,
}

func init() {
	userCreateCmd.Flags().String("username", "", "login name")
	userCreateCmd.Flags().String("password", "", "initial password")
	userCreateCmd.Flags().String("role", string(domain.RoleEndUser), "END_USER, TECHNICIAN or TECH_MANAGER")

	userActivateCmd.Flags().Bool("active", true, "desired active state")

	userCmd.AddCommand(userBootstrapCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userActivateCmd)
	userCmd.AddCommand(userRoleCmd)
	userCmd.AddCommand(userResetCmd)
}

// userView keeps password hashes out of terminal output.
type userView struct {
	ID                 string      `json:"id"`
	Username           string      `json:"username"`
	Role               domain.Role `json:"role"`
	Active             bool        `json:"active"`
	ForcePasswordReset bool        `json:"force_password_reset"`
}

func viewOf(user *domain.User) userView {
	return userView{
		ID:                 user.ID,
		Username:           user.Username,
		Role:               user.Role,
		Active:             user.Active,
		ForcePasswordReset: user.ForcePasswordReset,
	}
}

func runUserBootstrap(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	user, err := a.userService.Bootstrap(context.Background(), args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created manager %s (%s)\n", user.Username, user.ID)
	return nil
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	role, _ := cmd.Flags().GetString("role")

	user, err := a.userService.Create(context.Background(), actor, service.UserCreateInput{
		Username: username,
		Password: password,
		Role:     domain.Role(strings.ToUpper(role)),
	})
	if err != nil {
		return err
	}
	return printJSON(viewOf(user))
}

func runUserList(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	users, err := a.userService.List(context.Background(), actor)
	if err != nil {
		return err
	}
	views := make([]userView, 0, len(users))
	for i := range users {
		views = append(views, viewOf(&users[i]))
	}
	return printJSON(views)
}

func runUserSetActive(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	active, _ := cmd.Flags().GetBool("active")
	user, err := a.userService.SetActive(context.Background(), actor, args[0], active)
	if err != nil {
		return err
	}
	return printJSON(viewOf(user))
}

func runUserSetRole(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	user, err := a.userService.SetRole(context.Background(), actor, args[0], domain.Role(strings.ToUpper(args[1])))
	if err != nil {
		return err
	}
	return printJSON(viewOf(user))
}

func runUserRequireReset(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	actor, err := a.actor(cmd)
	if err != nil {
		return err
	}
	user, err := a.userService.RequirePasswordReset(context.Background(), actor, args[0])
	if err != nil {
		return err
	}
	return printJSON(viewOf(user))
}
