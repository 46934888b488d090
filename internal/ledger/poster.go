package ledger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "budgetify/internal/errors"
	"budgetify/internal/models"
)

// PostStatus is the outcome of posting one definition.
type PostStatus string

const (
	PostStatusPosted  PostStatus = "posted"
	PostStatusFailed  PostStatus = "failed"
	PostStatusSkipped PostStatus = "skipped"
)

// PostResult records what happened to a single definition during a run.
type PostResult struct {
	Definition  Definition
	Status      PostStatus
	Transaction *models.Transaction
	PiggyBank   *models.PiggyBank
	NextDueDate time.Time
	Deactivated bool
	Err         error
}

// Notifier receives every posting result. Notification failures are logged
// and never affect the run.
type Notifier interface {
	NotifyPosting(ctx context.Context, result PostResult) error
}

// Poster turns due subscriptions and obligations into transactions.
type Poster struct {
	ledger   *Ledger
	selector *Selector
	notifier Notifier
	loc      *time.Location
	log      *zap.SugaredLogger
}

// PosterOption configures a Poster.
type PosterOption func(*Poster)

// WithNotifier registers n to receive posting results.
func WithNotifier(n Notifier) PosterOption {
	return func(p *Poster) { p.notifier = n }
}

// NewPoster creates a Poster that evaluates due dates in loc.
func NewPoster(l *Ledger, loc *time.Location, log *zap.SugaredLogger, opts ...PosterOption) *Poster {
	if loc == nil {
		loc = time.UTC
	}
	p := &Poster{
		ledger:   l,
		selector: NewSelector(l.store, loc),
		loc:      loc,
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PostDueDefinitions posts every definition due on the day containing now.
//
// Definitions are processed one by one, each in its own database transaction.
// A failing definition is rolled back and recorded; the rest of the batch
// continues. Only ErrStoreUnavailable stops the run, in which case the
// results gathered so far are returned together with the error.
func (p *Poster) PostDueDefinitions(ctx context.Context, now time.Time) ([]PostResult, error) {
	defs, err := p.selector.Select(ctx, now)
	if err != nil {
		return nil, err
	}

	today, _ := DayBounds(now, p.loc)
	results := make([]PostResult, 0, len(defs))
	for _, def := range defs {
		result := p.postOne(ctx, def, today)
		results = append(results, result)

		if IsStoreUnavailable(result.Err) {
			p.log.Errorw("store unavailable, aborting posting run",
				"definition_id", def.ID,
				"kind", def.Kind,
				"error", result.Err,
			)
			return results, result.Err
		}
		p.report(ctx, result)
	}
	return results, nil
}

func (p *Poster) postOne(ctx context.Context, def Definition, today time.Time) PostResult {
	result := PostResult{Definition: def, Status: PostStatusFailed}

	if err := def.Validate(); err != nil {
		result.Err = err
		return result
	}

	next := AddMonthClamped(def.PaymentStartDate, p.loc)
	active := !pastEnd(next, def.PaymentEndDate, p.loc)
	tx := def.Transaction()

	err := p.ledger.store.WithinTx(ctx, func(s Store) error {
		pb, err := p.ledger.post(ctx, s, tx)
		if err != nil {
			return err
		}
		if err := s.UpdateDefinitionNextDueDate(ctx, def, next, today, active); err != nil {
			return err
		}
		result.PiggyBank = pb
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyPosted) {
			result.Status = PostStatusSkipped
		}
		result.PiggyBank = nil
		result.Err = err
		return result
	}

	result.Status = PostStatusPosted
	result.Transaction = tx
	result.NextDueDate = next
	result.Deactivated = !active
	return result
}

func (p *Poster) report(ctx context.Context, result PostResult) {
	def := result.Definition
	switch result.Status {
	case PostStatusPosted:
		p.log.Infow("recurring payment posted",
			"definition_id", def.ID,
			"kind", def.Kind,
			"user_id", def.UserID,
			"amount", def.Amount,
			"next_due_date", result.NextDueDate,
			"deactivated", result.Deactivated,
		)
	case PostStatusSkipped:
		p.log.Infow("recurring payment already posted today",
			"definition_id", def.ID,
			"kind", def.Kind,
		)
		return
	default:
		p.log.Warnw("recurring payment failed",
			"definition_id", def.ID,
			"kind", def.Kind,
			"user_id", def.UserID,
			"code", apperrors.CodeOf(result.Err),
			"error", result.Err,
		)
	}

	if p.notifier == nil {
		return
	}
	if err := p.notifier.NotifyPosting(ctx, result); err != nil {
		p.log.Warnw("failed to record posting notification",
			"definition_id", def.ID,
			"error", err,
		)
	}
}
