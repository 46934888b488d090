// Command post-recurring runs a single posting pass and exits. It suits
// deployments that drive posting from cron instead of the API's scheduler.
//
// Exit codes: 0 when every due payment was posted, 1 when the run could not
// complete, 2 when it completed but some payments failed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"budgetify/internal/client"
	"budgetify/internal/config"
	"budgetify/internal/database"
	apperrors "budgetify/internal/errors"
	"budgetify/internal/ledger"
	"budgetify/internal/logger"
	"budgetify/internal/money"
	"budgetify/internal/scheduler"
	"budgetify/internal/services"
)

const (
	exitOK      = 0
	exitFatal   = 1
	exitPartial = 2
)

type options struct {
	remote  string
	apiKey  string
	date    string
	timeout time.Duration
}

func main() {
	logger.Init(os.Getenv("ENV"))

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(exitOK)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFatal)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts, logger.Get())
	stop()
	logger.Sync()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("post-recurring", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.remote, "remote", os.Getenv("BUDGETIFY_API_URL"), "Base URL of a running API; when set the run happens there")
	fs.StringVar(&opts.apiKey, "api-key", os.Getenv("POSTING_API_KEY"), "API key for -remote")
	fs.StringVar(&opts.date, "date", "", "Post for this day (YYYY-MM-DD) instead of today; local runs only")
	fs.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Abort the run after this long")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if opts.remote != "" {
		if opts.apiKey == "" {
			return nil, fmt.Errorf("-api-key or POSTING_API_KEY is required with -remote")
		}
		if opts.date != "" {
			return nil, fmt.Errorf("-date cannot be combined with -remote")
		}
	}
	if opts.timeout <= 0 {
		return nil, fmt.Errorf("-timeout must be positive, got %s", opts.timeout)
	}
	return opts, nil
}

func run(ctx context.Context, opts *options, log *zap.SugaredLogger) int {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	if opts.remote != "" {
		return runRemote(ctx, opts, log)
	}
	return runLocal(ctx, opts, log)
}

func runRemote(ctx context.Context, opts *options, log *zap.SugaredLogger) int {
	c := client.NewPostingClient(opts.remote, opts.apiKey, &http.Client{Timeout: opts.timeout})
	result, err := c.RunPostings(ctx)
	if err != nil {
		log.Errorw("remote posting run failed", "api", opts.remote, "error", err)
		return exitFatal
	}

	total, err := result.PostedTotal()
	if err != nil {
		log.Warnw("could not total posted amounts", "error", err)
	}
	log.Infow("remote posting run completed",
		"run_at", result.RunAt,
		"posted_total", money.Format(total, ""),
		"posted", result.Posted,
		"failed", result.Failed,
		"skipped", result.Skipped,
		"duration_ms", result.DurationMS,
	)
	for _, item := range result.Results {
		if item.ErrorCode != "" {
			log.Warnw("posting failed", "kind", item.Kind, "id", item.ID, "title", item.Title, "error_code", item.ErrorCode)
		}
	}
	return exitCode(result.Failed, nil)
}

func runLocal(ctx context.Context, opts *options, log *zap.SugaredLogger) int {
	cfg, err := config.Load()
	if err != nil {
		log.Errorw("failed to load configuration", "error", err)
		return exitFatal
	}

	at, err := runTime(opts.date, cfg.Location, time.Now())
	if err != nil {
		log.Errorw("invalid -date", "error", err)
		return exitFatal
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		log.Errorw("failed to load database configuration", "error", err)
		return exitFatal
	}
	manager, err := database.NewManager(dbConfig)
	if err != nil {
		log.Errorw("failed to open database", "error", err)
		return exitFatal
	}
	defer func() { _ = manager.Close() }()

	if err := manager.Ping(ctx); err != nil {
		log.Errorw("database unreachable", "error", err)
		return exitFatal
	}
	if err := manager.Migrate(); err != nil {
		log.Errorw("failed to run database migrations", "error", err)
		return exitFatal
	}

	var locker scheduler.Locker
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		locker = scheduler.NewRedisLocker(rdb, scheduler.DefaultLockKey, opts.timeout)
	}

	summary, err := tickOnce(ctx, manager.DB(), cfg.Location, at, locker, log)
	failed := 0
	if summary != nil {
		failed = summary.Failed
		for _, r := range summary.Results {
			if r.Status == ledger.PostStatusFailed {
				log.Warnw("posting failed",
					"kind", r.Definition.Kind,
					"id", r.Definition.ID,
					"title", r.Definition.Title,
					"error_code", apperrors.CodeOf(r.Err),
				)
			}
		}
	}
	if err != nil {
		log.Errorw("posting run failed", "error", err)
	}
	return exitCode(failed, err)
}

// tickOnce builds the posting pipeline on db and runs it once for the day
// containing at. A nil locker keeps the lock in-process.
func tickOnce(ctx context.Context, db *gorm.DB, loc *time.Location, at time.Time, locker scheduler.Locker, log *zap.SugaredLogger) (*scheduler.Summary, error) {
	l := ledger.New(ledger.NewGormStore(db), log.Named("ledger"))
	poster := ledger.NewPoster(l, loc, log.Named("poster"), ledger.WithNotifier(services.NewNotificationService(db, loc)))

	var opts []scheduler.Option
	if locker != nil {
		opts = append(opts, scheduler.WithLocker(locker))
	}
	return scheduler.New(poster, log.Named("scheduler"), opts...).Tick(ctx, at)
}

// runTime returns the instant to post for: now, or noon of date in loc.
func runTime(date string, loc *time.Location, now time.Time) (time.Time, error) {
	if date == "" {
		return now.In(loc), nil
	}
	day, err := time.ParseInLocation(time.DateOnly, date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(12 * time.Hour), nil
}

func exitCode(failed int, err error) int {
	switch {
	case err != nil:
		return exitFatal
	case failed > 0:
		return exitPartial
	default:
		return exitOK
	}
}
