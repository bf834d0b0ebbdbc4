package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"carepath-portal/internal/config"
	"carepath-portal/internal/domain"
	"carepath-portal/internal/repository"
	"carepath-portal/internal/service"
	"carepath-portal/pkg/database"
	"carepath-portal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// carepath-admin is the operator CLI: seeding, template sync and exports
// against the live database, without going through the HTTP API.

type cliEnv struct {
	db     *sql.DB
	log    *zap.Logger
	users  repository.UsersRepository
	actor  domain.Actor
	svcs   services
	cancel func()
}

type services struct {
	checklists service.ChecklistService
	templates  service.TemplateService
	export     service.ExportService
}

func connect() (*cliEnv, error) {
	cfg := config.Load()
	log, err := logger.New(cfg.Log.Level, "console", "carepath-admin")
	if err != nil {
		return nil, err
	}
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	usersRepo := repository.NewPostgresUsersRepository(db)
	templatesRepo := repository.NewPostgresTemplatesRepository(db)
	checklistsRepo := repository.NewPostgresChecklistsRepository(db)

	checklistSvc := service.NewChecklistService(templatesRepo, checklistsRepo, usersRepo, log)
	return &cliEnv{
		db:    db,
		log:   log,
		users: usersRepo,
		// The CLI acts as a synthetic admin principal.
		actor: domain.Actor{UserID: "cli", Role: domain.RoleAdmin, Email: "cli@localhost"},
		svcs: services{
			checklists: checklistSvc,
			templates:  service.NewTemplateService(templatesRepo, log),
			export:     service.NewExportService(checklistsRepo, log),
		},
		cancel: func() {
			_ = log.Sync()
			_ = db.Close()
		},
	}, nil
}

func main() {
	root := &cobra.Command{
		Use:           "carepath-admin",
		Short:         "Operator tooling for the onboarding portal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(seedCmd(), syncCmd(), exportCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func seedCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial admin account and a sample RN template",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := connect()
			if err != nil {
				return err
			}
			defer env.cancel()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := seedAdmin(ctx, env, email, password); err != nil {
				return err
			}
			if err := seedSampleTemplate(ctx, env); err != nil {
				return err
			}
			fmt.Println("Seed complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "admin@carepath.local", "admin account email")
	cmd.Flags().StringVar(&password, "password", "", "admin account password (required)")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func seedAdmin(ctx context.Context, env *cliEnv, email, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if _, err := env.users.GetUserByEmail(ctx, email); err == nil {
		fmt.Println("Admin already exists:", email)
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	id, err := env.users.CreateUser(ctx, &domain.User{
		Email:         email,
		PasswordHash:  hash,
		FirstName:     "Site",
		LastName:      "Admin",
		Role:          domain.RoleAdmin,
		Status:        domain.UserStatusApproved,
		EmailVerified: true,
	})
	if err != nil {
		return err
	}
	fmt.Println("Admin created:", email, id)
	return nil
}

func seedSampleTemplate(ctx context.Context, env *cliEnv) error {
	tmpl, err := env.svcs.templates.EnsureTemplate(ctx, env.actor, "RN")
	if err != nil {
		return err
	}
	if len(tmpl.Sections) > 0 {
		fmt.Println("RN template already populated")
		return nil
	}

	due := func(d int) *int { return &d }
	sections := []struct {
		title string
		items []service.AddItemRequest
	}{
		{
			title: "Paperwork",
			items: []service.AddItemRequest{
				{Title: "Sign employment agreement", DueInDays: due(3)},
				{Title: "Complete tax forms", DueInDays: due(3)},
				{Title: "Upload nursing license", DueInDays: due(7)},
			},
		},
		{
			title: "Compliance",
			items: []service.AddItemRequest{
				{Title: "Complete HIPAA training", DueInDays: due(14)},
				{Title: "Submit immunization records", DueInDays: due(14)},
			},
		},
		{
			title: "Orientation",
			items: []service.AddItemRequest{
				{Title: "Attend facility orientation", DueInDays: due(7)},
				{Title: "Shadow a shift", DueInDays: due(21)},
			},
		},
	}
	for si, s := range sections {
		sectionID, err := env.svcs.templates.AddSection(ctx, env.actor, service.AddSectionRequest{
			Role:      "RN",
			Title:     s.title,
			SortOrder: si,
		})
		if err != nil {
			return err
		}
		for ii, item := range s.items {
			item.SectionID = sectionID
			item.SortOrder = ii
			if _, err := env.svcs.templates.AddItem(ctx, env.actor, item); err != nil {
				return err
			}
		}
	}
	fmt.Println("RN sample template created")
	return nil
}

func syncCmd() *cobra.Command {
	var role string
	var updateContent bool
	cmd := &cobra.Command{
		Use:   "sync-template",
		Short: "Reconcile a role template into existing user checklists",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := connect()
			if err != nil {
				return err
			}
			defer env.cancel()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			result, err := env.svcs.checklists.SyncTemplateToUsers(ctx, env.actor, service.SyncTemplateRequest{
				Role:          role,
				UpdateContent: updateContent,
			})
			if err != nil {
				return err
			}
			fmt.Printf("users updated: %d\nitems added: %d\nitems updated: %d\nusers failed: %d\n",
				result.UsersUpdated, result.ItemsAdded, result.ItemsUpdated, result.UsersFailed)
			if result.UsersFailed > 0 {
				return fmt.Errorf("%d user(s) failed; re-run to converge", result.UsersFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role whose template to sync (required)")
	cmd.Flags().BoolVar(&updateContent, "update-content", false, "also refresh content on matched items")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func exportCmd() *cobra.Command {
	var userID, format, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's checklist snapshot to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := connect()
			if err != nil {
				return err
			}
			defer env.cancel()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			result, err := env.svcs.export.ExportChecklist(ctx, env.actor, userID, format)
			if err != nil {
				return err
			}
			path := out
			if path == "" {
				path = result.Filename
			}
			if err := os.WriteFile(path, result.Data, 0o644); err != nil {
				return err
			}
			fmt.Println("Wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "target user id (required)")
	cmd.Flags().StringVar(&format, "format", service.ExportFormatCSV, "csv | json | xlsx")
	cmd.Flags().StringVar(&out, "out", "", "output path (defaults to the generated filename)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
