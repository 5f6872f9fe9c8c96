package usecases

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"signet/internal/domain/identity"
	"signet/internal/infrastructure/auth"
)

type tweetFixture struct {
	identities *mockIdentityRepo
	tokens     *mockProviderTokenRepo
	poster     *mockTweetPoster
	queue      *TweetQueue
}

func newTweetFixture(size int) *tweetFixture {
	f := &tweetFixture{
		identities: new(mockIdentityRepo),
		tokens:     new(mockProviderTokenRepo),
		poster:     new(mockTweetPoster),
	}
	f.queue = NewTweetQueue(size, f.identities, f.tokens, f.poster, newNopLogger())
	return f
}

func (f *tweetFixture) expectLinkedAccount(accountID, identityID uint) {
	f.identities.On("FindAssociatedByAccount", mock.Anything, accountID, identity.ProviderTwitter).
		Return(&identity.ExternalIdentity{ID: identityID, Provider: "twitter"}, nil)
	f.tokens.On("LatestByIdentity", mock.Anything, identityID).
		Return(&identity.ProviderToken{
			ID: 1, ExternalIdentityID: identityID,
			AccessToken: "at", AccessTokenSecret: "as",
		}, nil)
}

// runAll drains the queued tasks through the worker loop, then stops it.
func (f *tweetFixture) runAll(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go f.queue.Run(ctx)

	deadline := time.After(2 * time.Second)
	for len(f.queue.tasks) > 0 {
		select {
		case <-deadline:
			cancel()
			t.Fatal("worker did not drain the queue")
		case <-time.After(5 * time.Millisecond):
		}
	}
	// One more beat so the in-flight task finishes before assertions run.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-f.queue.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestTweetQueue_PostsForLinkedAccount(t *testing.T) {
	f := newTweetFixture(4)
	f.expectLinkedAccount(42, 7)
	f.poster.On("UpdateStatus", mock.Anything, auth.OAuth1Token{Token: "at", Secret: "as"}, "hello").
		Return(nil)

	require.True(t, f.queue.Enqueue(TweetTask{AccountID: 42, Status: "hello"}))
	f.runAll(t)

	f.poster.AssertExpectations(t)
}

func TestTweetQueue_InvalidTokenRemovesLink(t *testing.T) {
	f := newTweetFixture(4)
	f.expectLinkedAccount(42, 7)
	f.poster.On("UpdateStatus", mock.Anything, mock.Anything, "hello").
		Return(auth.ErrTwitterTokenInvalid)
	f.tokens.On("DeleteByIdentity", mock.Anything, uint(7)).Return(nil)

	f.queue.Enqueue(TweetTask{AccountID: 42, Status: "hello"})
	f.runAll(t)

	f.tokens.AssertCalled(t, "DeleteByIdentity", mock.Anything, uint(7))
}

func TestTweetQueue_FailureDoesNotStopBatch(t *testing.T) {
	f := newTweetFixture(4)

	f.expectLinkedAccount(42, 7)
	f.expectLinkedAccount(43, 8)
	f.identities.On("FindAssociatedByAccount", mock.Anything, uint(44), identity.ProviderTwitter).
		Return(nil, fmt.Errorf("connection reset"))

	f.poster.On("UpdateStatus", mock.Anything, mock.Anything, "hello").
		Return(fmt.Errorf("statuses/update failed: status 500")).Once()
	f.poster.On("UpdateStatus", mock.Anything, mock.Anything, "hello").
		Return(nil).Once()

	f.queue.EnqueueBatch([]uint{42, 44, 43}, "hello")
	f.runAll(t)

	// Both linked accounts were attempted despite the failures in between.
	f.poster.AssertNumberOfCalls(t, "UpdateStatus", 2)
	f.tokens.AssertNotCalled(t, "DeleteByIdentity", mock.Anything, mock.Anything)
}

func TestTweetQueue_SkipsAccountsWithoutLink(t *testing.T) {
	f := newTweetFixture(4)
	f.identities.On("FindAssociatedByAccount", mock.Anything, uint(42), identity.ProviderTwitter).
		Return(nil, nil)

	f.queue.Enqueue(TweetTask{AccountID: 42, Status: "hello"})
	f.runAll(t)

	f.poster.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTweetQueue_SkipsIdentityWithoutToken(t *testing.T) {
	f := newTweetFixture(4)
	f.identities.On("FindAssociatedByAccount", mock.Anything, uint(42), identity.ProviderTwitter).
		Return(&identity.ExternalIdentity{ID: 7}, nil)
	f.tokens.On("LatestByIdentity", mock.Anything, uint(7)).Return(nil, nil)

	f.queue.Enqueue(TweetTask{AccountID: 42, Status: "hello"})
	f.runAll(t)

	f.poster.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestTweetQueue_FullQueueDropsTask(t *testing.T) {
	f := newTweetFixture(1)

	assert.True(t, f.queue.Enqueue(TweetTask{AccountID: 1, Status: "a"}))
	assert.False(t, f.queue.Enqueue(TweetTask{AccountID: 2, Status: "b"}), "full queue must drop, not block")
}

func TestTweetQueue_CloseDrainsBatchThenStops(t *testing.T) {
	f := newTweetFixture(4)
	f.expectLinkedAccount(42, 7)
	f.expectLinkedAccount(43, 8)
	f.poster.On("UpdateStatus", mock.Anything, mock.Anything, "announcement").
		Return(nil)

	f.queue.EnqueueBatch([]uint{42, 43}, "announcement")
	f.queue.Close()

	// No cancellation: a closed queue must drain and exit on its own.
	go f.queue.Run(context.Background())

	select {
	case <-f.queue.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after the closed queue drained")
	}

	f.poster.AssertNumberOfCalls(t, "UpdateStatus", 2)
}
