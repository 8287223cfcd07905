package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	redisstore "github.com/itchan-dev/kanaal/backend/internal/storage/redis"
	"github.com/itchan-dev/kanaal/backend/internal/utils"
	"github.com/itchan-dev/kanaal/shared/domain"
)

// newTestStore returns a real document store on top of miniredis.
func newTestStore(t *testing.T) *redisstore.Storage {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := redisstore.New(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Cleanup() })
	return s
}

func testThreadValidator() *utils.ThreadValidator {
	return &utils.ThreadValidator{MaxTitleLength: 200, MaxBodyLength: 10000, MaxPollOptions: 10}
}

// fixture wires every service over one store, the way setup does.
type fixture struct {
	store    *redisstore.Storage
	search   *MockSearchIndex
	cascade  *Cascade
	users    *User
	threads  *Thread
	polls    *Poll
	comments *Comment
	ordering *Ordering
	sections *Section
	channels *Channel
	sweeper  *IntegritySweeper
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newTestStore(t)
	search := &MockSearchIndex{}
	cascade := NewCascade(store, search)
	ordering := NewOrdering(store)
	return &fixture{
		store:    store,
		search:   search,
		cascade:  cascade,
		users:    NewUser(store, cascade),
		threads:  NewThread(store, testThreadValidator(), cascade, search, 20),
		polls:    NewPoll(store),
		comments: NewComment(store, &utils.CommentValidator{MaxBodyLength: 2000}),
		ordering: ordering,
		sections: NewSection(store, ordering, utils.NameValidator{}),
		channels: NewChannel(store, utils.NameValidator{}),
		sweeper:  NewIntegritySweeper(store),
	}
}

func (f *fixture) user(t *testing.T, id, name string, role domain.Role) domain.User {
	t.Helper()
	u := domain.User{Id: id, ExternalId: "ext-" + id, DisplayName: name, Role: role, CreatedAt: time.Now().UTC()}
	_, created, err := f.store.CreateUserIfAbsent(context.Background(), u)
	require.NoError(t, err)
	require.True(t, created)
	return u
}

func (f *fixture) channel(t *testing.T, name string, section *domain.SectionId) domain.Channel {
	t.Helper()
	c, err := f.channels.Create(context.Background(), domain.ChannelCreationData{Name: name, SectionId: section})
	require.NoError(t, err)
	return c
}

func (f *fixture) section(t *testing.T, name string) domain.Section {
	t.Helper()
	s, err := f.sections.Create(context.Background(), domain.SectionCreationData{Name: name, Status: domain.SectionLive})
	require.NoError(t, err)
	return s
}

func (f *fixture) thread(t *testing.T, channelId domain.ChannelId, authorId domain.UserId, title string) domain.ThreadCreated {
	t.Helper()
	created, err := f.threads.Create(context.Background(), domain.ThreadCreationData{
		ChannelId: channelId,
		Title:     title,
		AuthorId:  authorId,
		Body:      "body of " + title,
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) pollThread(t *testing.T, channelId domain.ChannelId, authorId domain.UserId, options ...string) domain.ThreadCreated {
	t.Helper()
	created, err := f.threads.Create(context.Background(), domain.ThreadCreationData{
		ChannelId: channelId,
		Title:     "Poll",
		AuthorId:  authorId,
		Kind:      domain.ThreadPoll,
		Poll:      &domain.PollSpec{Question: "Which one?", Options: options},
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) comment(t *testing.T, threadId domain.ThreadId, authorId domain.UserId, body string) domain.Comment {
	t.Helper()
	c, err := f.comments.Create(context.Background(), domain.CommentCreationData{ThreadId: threadId, AuthorId: authorId, Body: body})
	require.NoError(t, err)
	return c
}

// --- Mocks ---

type MockSearchIndex struct {
	mu            sync.Mutex
	unhealthy     bool
	searchFunc    func(query string, channelId *domain.ChannelId, limit int) ([]domain.ThreadId, error)
	indexFunc     func(thread domain.Thread) error
	indexedCalls  []domain.ThreadId
	removedCalls  []domain.ThreadId
	searchedCalls []string
}

func (m *MockSearchIndex) IndexThread(_ context.Context, thread domain.Thread) error {
	m.mu.Lock()
	m.indexedCalls = append(m.indexedCalls, thread.Id)
	m.mu.Unlock()

	if m.indexFunc != nil {
		return m.indexFunc(thread)
	}
	return nil
}

func (m *MockSearchIndex) RemoveThread(_ context.Context, id domain.ThreadId) error {
	m.mu.Lock()
	m.removedCalls = append(m.removedCalls, id)
	m.mu.Unlock()
	return nil
}

func (m *MockSearchIndex) SearchThreads(_ context.Context, query string, channelId *domain.ChannelId, limit int) ([]domain.ThreadId, error) {
	m.mu.Lock()
	m.searchedCalls = append(m.searchedCalls, query)
	m.mu.Unlock()

	if m.searchFunc != nil {
		return m.searchFunc(query, channelId, limit)
	}
	return nil, nil
}

func (m *MockSearchIndex) Healthy() bool {
	return !m.unhealthy
}

func (m *MockSearchIndex) removed() []domain.ThreadId {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ThreadId(nil), m.removedCalls...)
}

func (m *MockSearchIndex) indexed() []domain.ThreadId {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.ThreadId(nil), m.indexedCalls...)
}

type MockThreadDeleter struct {
	mu          sync.Mutex
	deleteFunc  func(id domain.ThreadId) error
	deleteCalls []domain.ThreadId
}

func (m *MockThreadDeleter) DeleteThread(_ context.Context, id domain.ThreadId) error {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, id)
	m.mu.Unlock()

	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return nil
}

type MockUserDeleter struct {
	mu          sync.Mutex
	deleteCalls []domain.UserId
}

func (m *MockUserDeleter) DeleteUser(_ context.Context, id domain.UserId) error {
	m.mu.Lock()
	m.deleteCalls = append(m.deleteCalls, id)
	m.mu.Unlock()
	return nil
}

// faultyStore injects failures into a real store, one method at a time.
type faultyStore struct {
	*redisstore.Storage
	createPollFunc    func(poll domain.Poll) error
	deleteCommentFunc func(id domain.CommentId) error
}

func (f *faultyStore) CreatePoll(ctx context.Context, poll domain.Poll) error {
	if f.createPollFunc != nil {
		if err := f.createPollFunc(poll); err != nil {
			return err
		}
	}
	return f.Storage.CreatePoll(ctx, poll)
}

func (f *faultyStore) DeleteComment(ctx context.Context, id domain.CommentId) error {
	if f.deleteCommentFunc != nil {
		if err := f.deleteCommentFunc(id); err != nil {
			return err
		}
	}
	return f.Storage.DeleteComment(ctx, id)
}
