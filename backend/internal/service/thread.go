package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/itchan-dev/kanaal/backend/internal/mention"
	"github.com/itchan-dev/kanaal/backend/internal/utils"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
	sharedutils "github.com/itchan-dev/kanaal/shared/utils"
	"golang.org/x/sync/errgroup"
)

// fallbackSlug names threads whose title has no slug-safe characters.
const fallbackSlug = "thread"

type ThreadService interface {
	Create(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadCreated, error)
	Get(ctx context.Context, id domain.ThreadId) (domain.ThreadView, error)
	GetBySlugNumber(ctx context.Context, slug domain.Slug, number domain.ThreadNumber) (domain.ThreadView, error)
	List(ctx context.Context, channelId domain.ChannelId, page int) ([]domain.ThreadView, error)
	Upvote(ctx context.Context, id domain.ThreadId, userId domain.UserId) (bool, error)
	MarkSticky(ctx context.Context, id domain.ThreadId, sticky bool) error
	ToggleSticky(ctx context.Context, id domain.ThreadId) (bool, error)
	Delete(ctx context.Context, id domain.ThreadId, requester *domain.User) error
}

type ThreadValidator interface {
	Title(title string) error
	Body(body string) error
	PollOptions(options []string) error
}

// ThreadDeleter runs the thread deletion cascade.
type ThreadDeleter interface {
	DeleteThread(ctx context.Context, id domain.ThreadId) error
}

type ThreadStore interface {
	ThreadStorage
	PollStorage
	ChannelStorage
	UserStorage
}

type Thread struct {
	storage        ThreadStore
	validator      ThreadValidator
	cascade        ThreadDeleter
	search         SearchIndex
	threadsPerPage int
	now            func() time.Time
}

// search may be nil.
func NewThread(storage ThreadStore, validator ThreadValidator, cascade ThreadDeleter, search SearchIndex, threadsPerPage int) *Thread {
	return &Thread{
		storage:        storage,
		validator:      validator,
		cascade:        cascade,
		search:         search,
		threadsPerPage: threadsPerPage,
		now:            time.Now,
	}
}

func (s *Thread) Create(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadCreated, error) {
	title := sharedutils.StripMarkup(data.Title)
	if err := s.validator.Title(title); err != nil {
		return domain.ThreadCreated{}, err
	}
	if err := s.validator.Body(data.Body); err != nil {
		return domain.ThreadCreated{}, err
	}

	kind := data.Kind
	if kind == "" {
		kind = domain.ThreadText
	}
	var poll *domain.PollSpec
	switch kind {
	case domain.ThreadText:
	case domain.ThreadPoll:
		spec, err := s.normalizePoll(data.Poll)
		if err != nil {
			return domain.ThreadCreated{}, err
		}
		poll = spec
	default:
		return domain.ThreadCreated{}, errors.InvalidArgument(fmt.Sprintf("unknown thread kind %q", kind))
	}

	if len(data.Attachments) > 0 {
		author, err := s.storage.GetUser(ctx, data.AuthorId)
		if err != nil {
			return domain.ThreadCreated{}, err
		}
		if !author.IsAdmin() {
			return domain.ThreadCreated{}, errors.PermissionDenied("only admins can attach files")
		}
		for _, a := range data.Attachments {
			if err := sharedutils.Validate(a); err != nil {
				return domain.ThreadCreated{}, errors.InvalidArgument("invalid attachment: " + a.Filename)
			}
		}
	}

	if _, err := s.storage.GetChannel(ctx, data.ChannelId); err != nil {
		return domain.ThreadCreated{}, err
	}

	mentions := data.Mentions
	if mentions == nil && mention.Contains(data.Body) {
		users, err := s.storage.ListUsers(ctx)
		if err != nil {
			return domain.ThreadCreated{}, err
		}
		mentions = mention.Extract(data.Body, users)
	}

	slug := utils.NormalizeSlug(title)
	if slug == "" {
		slug = fallbackSlug
	}
	number, err := s.storage.NextThreadNumber(ctx)
	if err != nil {
		return domain.ThreadCreated{}, err
	}

	thread := domain.Thread{
		Id:          sharedutils.NewId(),
		ChannelId:   data.ChannelId,
		Title:       title,
		Slug:        slug,
		Number:      number,
		AuthorId:    data.AuthorId,
		Kind:        kind,
		Body:        data.Body,
		Upvoters:    []domain.UserId{},
		Mentions:    mentions,
		Attachments: data.Attachments,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.storage.CreateThread(ctx, thread); err != nil {
		return domain.ThreadCreated{}, err
	}

	if poll != nil {
		err := s.storage.CreatePoll(ctx, domain.Poll{
			Id:             sharedutils.NewId(),
			ThreadId:       thread.Id,
			Question:       poll.Question,
			Options:        poll.Options,
			MultipleChoice: poll.MultipleChoice,
			CreatedAt:      thread.CreatedAt,
		})
		if err != nil {
			// a poll thread without its poll is useless, take it back
			if cerr := s.cascade.DeleteThread(ctx, thread.Id); cerr != nil {
				logger.Log.Error("failed to roll back poll thread", "component", "thread", "thread_id", thread.Id, "error", cerr)
			}
			return domain.ThreadCreated{}, err
		}
	}

	if s.search != nil {
		if err := s.search.IndexThread(ctx, thread); err != nil {
			logger.Log.Warn("failed to index thread", "component", "thread", "thread_id", thread.Id, "error", err)
		}
	}

	logger.Log.Info("thread created", "component", "thread", "thread_id", thread.Id, "number", number, "channel_id", thread.ChannelId)
	return domain.ThreadCreated{Id: thread.Id, Slug: slug, Number: number}, nil
}

func (s *Thread) normalizePoll(spec *domain.PollSpec) (*domain.PollSpec, error) {
	if spec == nil {
		return nil, errors.InvalidArgument("poll question and options are required")
	}
	question := sharedutils.StripMarkup(spec.Question)
	if question == "" {
		return nil, errors.InvalidArgument("poll question is required")
	}
	options := make([]string, 0, len(spec.Options))
	for _, o := range spec.Options {
		if o = sharedutils.StripMarkup(o); o != "" {
			options = append(options, o)
		}
	}
	if len(options) == 0 {
		return nil, errors.InvalidArgument("poll needs at least one option")
	}
	if err := s.validator.PollOptions(options); err != nil {
		return nil, err
	}
	return &domain.PollSpec{Question: question, Options: options, MultipleChoice: spec.MultipleChoice}, nil
}

func (s *Thread) Get(ctx context.Context, id domain.ThreadId) (domain.ThreadView, error) {
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return domain.ThreadView{}, err
	}
	views, err := s.views(ctx, []domain.Thread{thread})
	if err != nil {
		return domain.ThreadView{}, err
	}
	return views[0], nil
}

func (s *Thread) GetBySlugNumber(ctx context.Context, slug domain.Slug, number domain.ThreadNumber) (domain.ThreadView, error) {
	thread, err := s.storage.GetThreadByNumber(ctx, number)
	if err != nil {
		return domain.ThreadView{}, err
	}
	if thread.Slug != slug {
		return domain.ThreadView{}, errors.NotFound("thread not found")
	}
	views, err := s.views(ctx, []domain.Thread{thread})
	if err != nil {
		return domain.ThreadView{}, err
	}
	return views[0], nil
}

// List returns one page of a channel: sticky threads in the channel's
// sticky order, then the rest newest first.
func (s *Thread) List(ctx context.Context, channelId domain.ChannelId, page int) ([]domain.ThreadView, error) {
	if page < 1 {
		page = 1
	}
	channel, err := s.storage.GetChannel(ctx, channelId)
	if err != nil {
		return nil, err
	}
	threads, err := s.storage.ListThreadsByChannel(ctx, channelId)
	if err != nil {
		return nil, err
	}

	ordered := orderForChannel(channel, threads)
	start := (page - 1) * s.threadsPerPage
	if start >= len(ordered) {
		return []domain.ThreadView{}, nil
	}
	end := min(start+s.threadsPerPage, len(ordered))
	return s.views(ctx, ordered[start:end])
}

func orderForChannel(channel domain.Channel, threads []domain.Thread) []domain.Thread {
	byId := make(map[domain.ThreadId]domain.Thread, len(threads))
	for _, t := range threads {
		byId[t.Id] = t
	}

	ordered := make([]domain.Thread, 0, len(threads))
	pinned := make(map[domain.ThreadId]bool, len(channel.StickyPosts))
	for _, id := range channel.StickyPosts {
		if t, ok := byId[id]; ok && !pinned[id] {
			ordered = append(ordered, t)
			pinned[id] = true
		}
	}

	rest := make([]domain.Thread, 0, len(threads)-len(ordered))
	for _, t := range threads {
		if !pinned[t.Id] {
			rest = append(rest, t)
		}
	}
	slices.SortFunc(rest, newestFirst)
	return append(ordered, rest...)
}

func newestFirst(a, b domain.Thread) int {
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(b.Number, a.Number)
}

// views attaches authors, fetched in parallel.
func (s *Thread) views(ctx context.Context, threads []domain.Thread) ([]domain.ThreadView, error) {
	var authorIds []domain.UserId
	for _, t := range threads {
		if !slices.Contains(authorIds, t.AuthorId) {
			authorIds = append(authorIds, t.AuthorId)
		}
	}

	authors := make([]*domain.User, len(authorIds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range authorIds {
		g.Go(func() error {
			u, err := s.storage.GetUser(gctx, id)
			if errors.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return err
			}
			authors[i] = &u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]domain.ThreadView, len(threads))
	for i, t := range threads {
		views[i] = domain.ThreadView{
			Thread:      t,
			Author:      authors[slices.Index(authorIds, t.AuthorId)],
			UpvoteCount: len(t.Upvoters),
		}
	}
	return views, nil
}

func (s *Thread) Upvote(ctx context.Context, id domain.ThreadId, userId domain.UserId) (bool, error) {
	var upvoted bool
	_, err := s.storage.UpdateThread(ctx, id, func(t *domain.Thread) error {
		if slices.Contains(t.Upvoters, userId) {
			t.Upvoters = without(t.Upvoters, userId)
			upvoted = false
		} else {
			t.Upvoters = append(t.Upvoters, userId)
			upvoted = true
		}
		return nil
	})
	return upvoted, err
}

// MarkSticky pins or unpins a thread. The channel's sticky list is the
// source of truth and is written first, the thread flag mirrors it.
func (s *Thread) MarkSticky(ctx context.Context, id domain.ThreadId, sticky bool) error {
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.storage.UpdateChannel(ctx, thread.ChannelId, func(ch *domain.Channel) error {
		if sticky {
			if !ch.HasSticky(id) {
				ch.StickyPosts = append(ch.StickyPosts, id)
			}
			return nil
		}
		ch.StickyPosts = slices.DeleteFunc(ch.StickyPosts, func(t domain.ThreadId) bool { return t == id })
		return nil
	})
	if err != nil {
		return err
	}
	_, err = s.storage.UpdateThread(ctx, id, func(t *domain.Thread) error {
		t.Sticky = sticky
		return nil
	})
	return err
}

func (s *Thread) ToggleSticky(ctx context.Context, id domain.ThreadId) (bool, error) {
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return false, err
	}
	channel, err := s.storage.GetChannel(ctx, thread.ChannelId)
	if err != nil {
		return false, err
	}
	sticky := !channel.HasSticky(id)
	if err := s.MarkSticky(ctx, id, sticky); err != nil {
		return false, err
	}
	return sticky, nil
}

func (s *Thread) Delete(ctx context.Context, id domain.ThreadId, requester *domain.User) error {
	if requester == nil || !requester.IsAdmin() {
		return errors.PermissionDenied("only admins can delete threads")
	}
	if _, err := s.storage.GetThread(ctx, id); err != nil {
		return err
	}
	return s.cascade.DeleteThread(ctx, id)
}

