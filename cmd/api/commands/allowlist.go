package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/studiocoach/course-api/internal/config"
	"github.com/studiocoach/course-api/internal/domain"
	"github.com/studiocoach/course-api/internal/infrastructure/dynamo"
	"github.com/studiocoach/course-api/internal/pkg/id"
)

var allowlistCmd = &cobra.Command{
	Use:   "allowlist",
	Short: "Manage the purchase allow-list",
}

var allowlistAddCmd = &cobra.Command{
	Use:   "add <email> <name>",
	Short: "Add a customer to the allow-list (reactivates if already present)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return allowlistAdd(cmd.Context(), args[0], args[1])
	},
}

var allowlistDeactivateCmd = &cobra.Command{
	Use:   "deactivate <email>",
	Short: "Deactivate a customer without deleting their record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return allowlistDeactivate(cmd.Context(), args[0])
	},
}

var allowlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every allow-list entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return allowlistList(cmd.Context())
	},
}

func init() {
	allowlistCmd.AddCommand(allowlistAddCmd, allowlistDeactivateCmd, allowlistListCmd)
	rootCmd.AddCommand(allowlistCmd)
}

func allowlistRepo() *dynamo.AllowedUserRepo {
	cfg := config.Load()
	client := dynamo.NewClient(cfg)
	return dynamo.NewAllowedUserRepo(client, cfg.DynamoTables.AllowedUsers)
}

func allowlistAdd(ctx context.Context, email, name string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	repo := allowlistRepo()

	if existing, err := repo.GetByEmail(ctx, email); err == nil {
		if existing.Active {
			color.Yellow("%s is already on the allow-list", email)
			return nil
		}
		if err := repo.Update(ctx, existing.UserID, map[string]interface{}{
			"active": true,
			"name":   name,
		}); err != nil {
			return fmt.Errorf("reactivate %s: %w", email, err)
		}
		color.Green("Reactivated %s", email)
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("lookup %s: %w", email, err)
	}

	u := &domain.AllowedUser{
		UserID:  id.New(),
		Email:   email,
		Name:    name,
		Active:  true,
		AddedAt: time.Now().UTC(),
	}
	if err := repo.Put(ctx, u); err != nil {
		return fmt.Errorf("add %s: %w", email, err)
	}
	color.Green("Added %s (%s)", email, name)
	return nil
}

func allowlistDeactivate(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	repo := allowlistRepo()

	u, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			color.Red("%s is not on the allow-list", email)
			return nil
		}
		return fmt.Errorf("lookup %s: %w", email, err)
	}
	if err := repo.Update(ctx, u.UserID, map[string]interface{}{"active": false}); err != nil {
		return fmt.Errorf("deactivate %s: %w", email, err)
	}
	color.Green("Deactivated %s", email)
	return nil
}

func allowlistList(ctx context.Context) error {
	repo := allowlistRepo()
	users, err := repo.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan allow-list: %w", err)
	}
	if len(users) == 0 {
		fmt.Println("allow-list is empty")
		return nil
	}
	for _, u := range users {
		status := color.GreenString("active")
		if !u.Active {
			status = color.RedString("inactive")
		}
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Format(time.RFC3339)
		}
		fmt.Printf("%-40s %-25s %-10s last login: %s\n", u.Email, u.Name, status, lastLogin)
	}
	return nil
}
