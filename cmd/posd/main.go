// ABOUTME: Entry point for the posd point-of-sale backend CLI
// ABOUTME: Local administration of users and sessions against the embedded store

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/posdesk/backend/internal/auth"
	"github.com/posdesk/backend/internal/config"
	"github.com/posdesk/backend/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

func usage() {
	fmt.Println("Usage: posd <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  init                     Create the database and default admin account")
	fmt.Println("  users                    List user accounts")
	fmt.Println("  create-user              Create a user (password read from stdin)")
	fmt.Println("  update-user              Update a user's name, role, or active flag")
	fmt.Println("  reset-password           Replace a user's password (read from stdin)")
	fmt.Println("  sessions prune           Delete expired session rows")
	fmt.Println("  check --token TOKEN      Validate a session token")
	fmt.Println("  version                  Print version")
}

// getConfigPath returns the path to the posd config file.
// Priority: POSD_CONFIG env var > XDG_CONFIG_HOME/posd/posd.yaml > ~/.config/posd/posd.yaml
func getConfigPath() string {
	if envPath := os.Getenv("POSD_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "posd.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "posd", "posd.yaml")
}

// loadConfig loads the config file, falling back to defaults when it
// doesn't exist.
func loadConfig() (*config.Config, error) {
	path := getConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func setupLogging(cfg *config.Config) {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// openService opens the store and wraps it in an auth service. Bootstrap
// runs before anything else so the default admin invariant holds on every
// start.
func openService(ctx context.Context, cfg *config.Config) (*auth.Service, *store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	svc := auth.NewService(st,
		auth.WithSessionTTL(cfg.Auth.SessionTTL),
		auth.WithBcryptCost(cfg.Auth.BcryptCost),
	)

	if err := svc.EnsureDefaultAdmin(ctx); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("bootstrapping default admin: %w", err)
	}

	return svc, st, nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	setupLogging(cfg)

	ctx := context.Background()

	var cmdErr error
	switch os.Args[1] {
	case "init":
		cmdErr = runInit(ctx, cfg)
	case "users":
		cmdErr = runUsers(ctx, cfg)
	case "create-user":
		cmdErr = runCreateUser(ctx, cfg, os.Args[2:])
	case "update-user":
		cmdErr = runUpdateUser(ctx, cfg, os.Args[2:])
	case "reset-password":
		cmdErr = runResetPassword(ctx, cfg, os.Args[2:])
	case "sessions":
		if len(os.Args) < 3 || os.Args[2] != "prune" {
			fmt.Println("Usage: posd sessions prune")
			os.Exit(1)
		}
		cmdErr = runSessionsPrune(ctx, cfg)
	case "check":
		cmdErr = runCheck(ctx, cfg, os.Args[2:])
	case "version":
		fmt.Printf("posd %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}

	if cmdErr != nil {
		color.Red("Error: %v", cmdErr)
		os.Exit(1)
	}
}

func runInit(ctx context.Context, cfg *config.Config) error {
	_, st, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	color.Green("Database ready at %s", cfg.Database.Path)
	fmt.Printf("Default admin account: %s (change the password with 'posd reset-password')\n", auth.DefaultAdminUsername)
	return nil
}

func runUsers(ctx context.Context, cfg *config.Config) error {
	svc, st, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	users, err := svc.ListUsers(ctx)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Printf("%-36s  %-16s  %-20s  %-8s  %-8s  %s\n", "ID", "USERNAME", "NAME", "ROLE", "ACTIVE", "LAST LOGIN")
	for _, u := range users {
		lastLogin := "never"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.Local().Format("2006-01-02 15:04")
		}
		active := color.GreenString("yes")
		if !u.IsActive {
			active = color.RedString("no")
		}
		fmt.Printf("%-36s  %-16s  %-20s  %-8s  %-8s  %s\n",
			u.ID, u.Username, u.DisplayName, u.Role, active, lastLogin)
	}
	return nil
}

func runCreateUser(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "login name (required)")
	name := fs.String("name", "", "display name (defaults to username)")
	roleStr := fs.String("role", "CASHIER", "role: ADMIN or CASHIER")
	_ = fs.Parse(args)

	if *username == "" {
		return fmt.Errorf("--username is required")
	}
	if *name == "" {
		*name = *username
	}
	role := store.Role(strings.ToUpper(*roleStr))
	if !role.Valid() {
		return fmt.Errorf("invalid role %q (want ADMIN or CASHIER)", *roleStr)
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	svc, st, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := svc.CreateUser(ctx, *username, password, *name, role)
	if err != nil {
		return err
	}

	color.Green("Created user %s (%s)", user.Username, user.ID)
	return nil
}

func runUpdateUser(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("update-user", flag.ExitOnError)
	id := fs.String("id", "", "user id (required)")
	name := fs.String("name", "", "display name (required)")
	roleStr := fs.String("role", "", "role: ADMIN or CASHIER (required)")
	active := fs.Bool("active", true, "whether the account may log in")
	_ = fs.Parse(args)

	if *id == "" || *name == "" || *roleStr == "" {
		return fmt.Errorf("--id, --name, and --role are required")
	}
	role := store.Role(strings.ToUpper(*roleStr))
	if !role.Valid() {
		return fmt.Errorf("invalid role %q (want ADMIN or CASHIER)", *roleStr)
	}

	svc, st, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := svc.UpdateUser(ctx, *id, *name, role, *active); err != nil {
		return err
	}

	color.Green("Updated user %s", *id)
	return nil
}

func runResetPassword(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("reset-password", flag.ExitOnError)
	id := fs.String("id", "", "user id (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	password, err := readPassword("New password: ")
	if err != nil {
		return err
	}

	svc, st, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := svc.ResetPassword(ctx, *id, password); err != nil {
		return err
	}

	color.Green("Password updated for user %s", *id)
	return nil
}

func runSessionsPrune(ctx context.Context, cfg *config.Config) error {
	_, st, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.DeleteExpiredSessions(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Pruned %d expired session(s)\n", n)
	return nil
}

func runCheck(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	token := fs.String("token", "", "session token (required)")
	_ = fs.Parse(args)

	if *token == "" {
		return fmt.Errorf("--token is required")
	}

	svc, st, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := svc.ValidateSession(ctx, *token)
	if err != nil {
		return err
	}
	if user == nil {
		color.Yellow("no session")
		return nil
	}

	color.Green("valid session for %s (%s, role %s)", user.Username, user.ID, user.Role)
	return nil
}

// readPassword reads a password line from stdin. Kept plain line-based so
// passwords can be piped in scripts; interactive terminals echo.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	return password, nil
}
