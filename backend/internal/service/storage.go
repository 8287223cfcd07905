package service

import (
	"context"

	"github.com/itchan-dev/kanaal/shared/domain"
)

// The document store offers single-document atomic writes only. Every
// Get-style method returns errors.NotFound for a missing document, and
// every Update-style method applies fn as an atomic read-modify-write of
// one document. Returning an error from fn aborts the write.

type UserStorage interface {
	// CreateUserIfAbsent stores user unless its external id is already
	// mapped, in which case the existing user is returned and created is false.
	CreateUserIfAbsent(ctx context.Context, user domain.User) (stored domain.User, created bool, err error)
	GetUser(ctx context.Context, id domain.UserId) (domain.User, error)
	GetUserByExternalId(ctx context.Context, externalId domain.ExternalId) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, id domain.UserId, fn func(*domain.User) error) (domain.User, error)
	DeleteUser(ctx context.Context, id domain.UserId) error
	// ClaimBootstrap succeeds for exactly one caller over the store's lifetime.
	ClaimBootstrap(ctx context.Context, id domain.UserId) (bool, error)
}

type SectionStorage interface {
	CreateSection(ctx context.Context, section domain.Section) error
	GetSection(ctx context.Context, id domain.SectionId) (domain.Section, error)
	ListSections(ctx context.Context) ([]domain.Section, error)
	UpdateSection(ctx context.Context, id domain.SectionId, fn func(*domain.Section) error) (domain.Section, error)
	DeleteSection(ctx context.Context, id domain.SectionId) error
}

type ChannelStorage interface {
	// CreateChannel fails with errors.Conflict when the slug is taken.
	CreateChannel(ctx context.Context, channel domain.Channel) error
	GetChannel(ctx context.Context, id domain.ChannelId) (domain.Channel, error)
	GetChannelBySlug(ctx context.Context, slug domain.Slug) (domain.Channel, error)
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	ListChannelsBySection(ctx context.Context, id domain.SectionId) ([]domain.Channel, error)
	UpdateChannel(ctx context.Context, id domain.ChannelId, fn func(*domain.Channel) error) (domain.Channel, error)
	DeleteChannel(ctx context.Context, id domain.ChannelId) error
}

type ThreadStorage interface {
	// NextThreadNumber atomically increments the thread number sequence.
	NextThreadNumber(ctx context.Context) (domain.ThreadNumber, error)
	CreateThread(ctx context.Context, thread domain.Thread) error
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	GetThreadByNumber(ctx context.Context, number domain.ThreadNumber) (domain.Thread, error)
	ListThreads(ctx context.Context) ([]domain.Thread, error)
	ListThreadsByChannel(ctx context.Context, id domain.ChannelId) ([]domain.Thread, error)
	ListThreadsByAuthor(ctx context.Context, id domain.UserId) ([]domain.Thread, error)
	// ListThreadsReferencingUser returns threads the user upvoted or is mentioned in.
	ListThreadsReferencingUser(ctx context.Context, id domain.UserId) ([]domain.Thread, error)
	CountThreadsByChannel(ctx context.Context, id domain.ChannelId) (int, error)
	UpdateThread(ctx context.Context, id domain.ThreadId, fn func(*domain.Thread) error) (domain.Thread, error)
	DeleteThread(ctx context.Context, id domain.ThreadId) error
}

type PollStorage interface {
	CreatePoll(ctx context.Context, poll domain.Poll) error
	GetPoll(ctx context.Context, id domain.PollId) (domain.Poll, error)
	GetPollByThread(ctx context.Context, id domain.ThreadId) (domain.Poll, error)
	ListPolls(ctx context.Context) ([]domain.Poll, error)
	DeletePoll(ctx context.Context, id domain.PollId) error

	// UpsertPollVote writes the single vote keyed by (PollId, VoterId).
	UpsertPollVote(ctx context.Context, vote domain.PollVote) error
	GetPollVote(ctx context.Context, pollId domain.PollId, voterId domain.UserId) (domain.PollVote, error)
	ListPollVotes(ctx context.Context, pollId domain.PollId) ([]domain.PollVote, error)
	ListPollVotesByVoter(ctx context.Context, voterId domain.UserId) ([]domain.PollVote, error)
	DeletePollVote(ctx context.Context, pollId domain.PollId, voterId domain.UserId) error
	// DeletePollVotes removes every vote of a poll and reports how many went.
	DeletePollVotes(ctx context.Context, pollId domain.PollId) (int, error)
	// ListVotedPollIds lists poll ids that votes are stored under.
	ListVotedPollIds(ctx context.Context) ([]domain.PollId, error)
}

type CommentStorage interface {
	CreateComment(ctx context.Context, comment domain.Comment) error
	GetComment(ctx context.Context, id domain.CommentId) (domain.Comment, error)
	ListComments(ctx context.Context) ([]domain.Comment, error)
	ListCommentsByThread(ctx context.Context, id domain.ThreadId) ([]domain.Comment, error)
	ListCommentsByAuthor(ctx context.Context, id domain.UserId) ([]domain.Comment, error)
	// ListCommentsReferencingUser returns comments the user liked or is mentioned in.
	ListCommentsReferencingUser(ctx context.Context, id domain.UserId) ([]domain.Comment, error)
	UpdateComment(ctx context.Context, id domain.CommentId, fn func(*domain.Comment) error) (domain.Comment, error)
	DeleteComment(ctx context.Context, id domain.CommentId) error
}

// Storage is implemented by storage/redis and storage/pg.
type Storage interface {
	UserStorage
	SectionStorage
	ChannelStorage
	ThreadStorage
	PollStorage
	CommentStorage
}

// SearchIndex is the external thread search index.
type SearchIndex interface {
	IndexThread(ctx context.Context, thread domain.Thread) error
	RemoveThread(ctx context.Context, id domain.ThreadId) error
	SearchThreads(ctx context.Context, query string, channelId *domain.ChannelId, limit int) ([]domain.ThreadId, error)
	Healthy() bool
}
