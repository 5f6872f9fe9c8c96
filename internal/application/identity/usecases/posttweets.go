package usecases

import (
	"context"
	"errors"

	"signet/internal/domain/identity"
	"signet/internal/infrastructure/auth"
	"signet/internal/shared/goroutine"
	"signet/internal/shared/logger"
)

// TweetPoster is the slice of the Twitter adapter the queue needs.
type TweetPoster interface {
	UpdateStatus(ctx context.Context, token auth.OAuth1Token, status string) error
}

// TweetTask asks for one tweet on behalf of one linked account.
type TweetTask struct {
	AccountID uint
	Status    string
}

// TweetQueue posts tweets on behalf of linked accounts, decoupled from the
// requests that trigger them. Tasks go through a bounded channel consumed by
// a single worker, one provider call at a time; a full queue drops the task
// rather than blocking the caller. Failures are isolated per task, and the
// provider reporting a dead token removes that identity's token link instead
// of retrying.
//
// The queue lives in the process that produces the tasks: a hosting service
// embeds it and calls Enqueue, while the worker command feeds it a fixed
// batch and closes it.
type TweetQueue struct {
	tasks      chan TweetTask
	identities identity.Repository
	tokens     identity.ProviderTokenRepository
	poster     TweetPoster
	logger     logger.Interface
	done       chan struct{}
}

func NewTweetQueue(
	size int,
	identities identity.Repository,
	tokens identity.ProviderTokenRepository,
	poster TweetPoster,
	log logger.Interface,
) *TweetQueue {
	if size <= 0 {
		size = 256
	}
	return &TweetQueue{
		tasks:      make(chan TweetTask, size),
		identities: identities,
		tokens:     tokens,
		poster:     poster,
		logger:     log.Named("tweet-queue"),
		done:       make(chan struct{}),
	}
}

// Enqueue hands a task to the worker without blocking. It reports whether
// the task was accepted.
func (q *TweetQueue) Enqueue(task TweetTask) bool {
	select {
	case q.tasks <- task:
		return true
	default:
		q.logger.Warnw("tweet queue full, dropping task", "account_id", task.AccountID)
		return false
	}
}

// EnqueueBatch queues one task per account for the same status text.
func (q *TweetQueue) EnqueueBatch(accountIDs []uint, status string) {
	for _, id := range accountIDs {
		q.Enqueue(TweetTask{AccountID: id, Status: status})
	}
}

// Start launches the worker loop on a panic-safe goroutine.
func (q *TweetQueue) Start(ctx context.Context) {
	goroutine.SafeGo(q.logger, "tweet-queue", func() {
		q.Run(ctx)
	})
}

// Close marks the feed complete. The worker drains whatever is queued and
// then exits; callers must not Enqueue after Close. Used by the batch worker
// command, which knows its full feed up front.
func (q *TweetQueue) Close() {
	close(q.tasks)
}

// Run consumes tasks until the context is cancelled or the queue is closed
// and drained. Exported so the worker command can drive the loop on its own
// goroutine.
func (q *TweetQueue) Run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-q.tasks:
			if !ok {
				return
			}
			q.post(ctx, task)
		}
	}
}

// Done is closed when the worker loop has exited.
func (q *TweetQueue) Done() <-chan struct{} {
	return q.done
}

// post performs one tweet attempt. Every failure path returns to the loop;
// a bad account never aborts the queue.
func (q *TweetQueue) post(ctx context.Context, task TweetTask) {
	ident, err := q.identities.FindAssociatedByAccount(ctx, task.AccountID, identity.ProviderTwitter)
	if err != nil {
		q.logger.Errorw("failed to look up twitter identity", "error", err, "account_id", task.AccountID)
		return
	}
	if ident == nil {
		q.logger.Debugw("account has no linked twitter identity", "account_id", task.AccountID)
		return
	}

	token, err := q.tokens.LatestByIdentity(ctx, ident.ID)
	if err != nil {
		q.logger.Errorw("failed to load twitter token", "error", err, "account_id", task.AccountID)
		return
	}
	if token == nil {
		q.logger.Debugw("twitter identity has no stored token", "account_id", task.AccountID)
		return
	}

	err = q.poster.UpdateStatus(ctx, auth.OAuth1Token{
		Token:  token.AccessToken,
		Secret: token.AccessTokenSecret,
	}, task.Status)
	if err == nil {
		q.logger.Infow("tweet posted", "account_id", task.AccountID)
		return
	}

	if errors.Is(err, auth.ErrTwitterTokenInvalid) {
		q.logger.Warnw("twitter token no longer valid, removing link",
			"account_id", task.AccountID, "identity_id", ident.ID)
		if delErr := q.tokens.DeleteByIdentity(ctx, ident.ID); delErr != nil {
			q.logger.Errorw("failed to remove twitter token link", "error", delErr, "identity_id", ident.ID)
		}
		return
	}
	q.logger.Errorw("tweet failed", "error", err, "account_id", task.AccountID)
}
