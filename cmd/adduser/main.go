// Command adduser creates a user directly in the database, typically the
// first admin who can then trigger posting runs through the API.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"budgetify/internal/database"
	apperrors "budgetify/internal/errors"
	"budgetify/internal/logger"
	"budgetify/internal/models"
	"budgetify/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	firstName := fs.String("first-name", "", "First name")
	lastName := fs.String("last-name", "", "Last name")
	role := fs.String("role", string(models.UserRoleUser), "Role: user or admin")
	dbPath := fs.String("db", "", "SQLite database file (defaults to the DB_* environment)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-password <password>] [-role user|admin] [-db <path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	manager, err := openDatabase(*dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	user, err := services.NewUserService(manager.DB()).
		CreateUser(*email, password, *firstName, *lastName, models.UserRole(*role))
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicateEmail) {
			return fmt.Errorf("user %s already exists", *email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s (role %s)\n", user.Email, user.ID, user.Role)
	return nil
}

// openDatabase connects using the DB_* environment, or to the SQLite file at
// path when one is given, and brings the schema up to date.
func openDatabase(path string) (*database.Manager, error) {
	cfg, err := database.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database configuration: %w", err)
	}
	if path != "" {
		cfg.Driver = database.DriverSQLite
		cfg.Path = path
	}

	manager, err := database.NewManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := manager.Migrate(); err != nil {
		_ = manager.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return manager, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
