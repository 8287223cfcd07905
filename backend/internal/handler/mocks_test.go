package handler

import (
	"context"
	"sync"

	"github.com/itchan-dev/kanaal/backend/internal/service"
	"github.com/itchan-dev/kanaal/shared/domain"
)

type MockUserService struct {
	mu                sync.Mutex
	getFunc           func(id domain.UserId) (domain.User, error)
	updateProfileFunc func(self domain.UserId, update domain.UserUpdate) (domain.User, error)
	onboardingFunc    func(self domain.UserId, step string) (domain.User, error)
	setRoleFunc       func(actor *domain.User, target domain.UserId, role domain.Role) (domain.User, error)
	deleteSelfFunc    func(self domain.UserId) error
	deleteByAdminFunc func(actor *domain.User, target domain.UserId) error
	deleteByExtFunc   func(externalId domain.ExternalId) error
	getCalls          []domain.UserId
}

func (m *MockUserService) Sync(_ context.Context, principal domain.Principal) (domain.User, error) {
	return domain.User{ExternalId: principal.SubjectId, Email: principal.Email}, nil
}

func (m *MockUserService) Get(_ context.Context, id domain.UserId) (domain.User, error) {
	m.mu.Lock()
	m.getCalls = append(m.getCalls, id)
	m.mu.Unlock()
	if m.getFunc != nil {
		return m.getFunc(id)
	}
	return domain.User{Id: id}, nil
}

func (m *MockUserService) UpdateProfile(_ context.Context, self domain.UserId, update domain.UserUpdate) (domain.User, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(self, update)
	}
	return domain.User{Id: self}, nil
}

func (m *MockUserService) CompleteOnboardingStep(_ context.Context, self domain.UserId, step string) (domain.User, error) {
	if m.onboardingFunc != nil {
		return m.onboardingFunc(self, step)
	}
	return domain.User{Id: self}, nil
}

func (m *MockUserService) SetRole(_ context.Context, actor *domain.User, target domain.UserId, role domain.Role) (domain.User, error) {
	if m.setRoleFunc != nil {
		return m.setRoleFunc(actor, target, role)
	}
	return domain.User{Id: target, Role: role}, nil
}

func (m *MockUserService) DeleteSelf(_ context.Context, self domain.UserId) error {
	if m.deleteSelfFunc != nil {
		return m.deleteSelfFunc(self)
	}
	return nil
}

func (m *MockUserService) DeleteByAdmin(_ context.Context, actor *domain.User, target domain.UserId) error {
	if m.deleteByAdminFunc != nil {
		return m.deleteByAdminFunc(actor, target)
	}
	return nil
}

func (m *MockUserService) DeleteByExternalId(_ context.Context, externalId domain.ExternalId) error {
	if m.deleteByExtFunc != nil {
		return m.deleteByExtFunc(externalId)
	}
	return nil
}

type MockThreadService struct {
	createFunc       func(data domain.ThreadCreationData) (domain.ThreadCreated, error)
	getFunc          func(id domain.ThreadId) (domain.ThreadView, error)
	getBySlugFunc    func(slug domain.Slug, number domain.ThreadNumber) (domain.ThreadView, error)
	listFunc         func(channelId domain.ChannelId, page int) ([]domain.ThreadView, error)
	upvoteFunc       func(id domain.ThreadId, userId domain.UserId) (bool, error)
	markStickyFunc   func(id domain.ThreadId, sticky bool) error
	toggleStickyFunc func(id domain.ThreadId) (bool, error)
	deleteFunc       func(id domain.ThreadId, requester *domain.User) error
}

func (m *MockThreadService) Create(_ context.Context, data domain.ThreadCreationData) (domain.ThreadCreated, error) {
	if m.createFunc != nil {
		return m.createFunc(data)
	}
	return domain.ThreadCreated{}, nil
}

func (m *MockThreadService) Get(_ context.Context, id domain.ThreadId) (domain.ThreadView, error) {
	if m.getFunc != nil {
		return m.getFunc(id)
	}
	return domain.ThreadView{}, nil
}

func (m *MockThreadService) GetBySlugNumber(_ context.Context, slug domain.Slug, number domain.ThreadNumber) (domain.ThreadView, error) {
	if m.getBySlugFunc != nil {
		return m.getBySlugFunc(slug, number)
	}
	return domain.ThreadView{}, nil
}

func (m *MockThreadService) List(_ context.Context, channelId domain.ChannelId, page int) ([]domain.ThreadView, error) {
	if m.listFunc != nil {
		return m.listFunc(channelId, page)
	}
	return nil, nil
}

func (m *MockThreadService) Upvote(_ context.Context, id domain.ThreadId, userId domain.UserId) (bool, error) {
	if m.upvoteFunc != nil {
		return m.upvoteFunc(id, userId)
	}
	return false, nil
}

func (m *MockThreadService) MarkSticky(_ context.Context, id domain.ThreadId, sticky bool) error {
	if m.markStickyFunc != nil {
		return m.markStickyFunc(id, sticky)
	}
	return nil
}

func (m *MockThreadService) ToggleSticky(_ context.Context, id domain.ThreadId) (bool, error) {
	if m.toggleStickyFunc != nil {
		return m.toggleStickyFunc(id)
	}
	return false, nil
}

func (m *MockThreadService) Delete(_ context.Context, id domain.ThreadId, requester *domain.User) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(id, requester)
	}
	return nil
}

type MockPollService struct {
	voteFunc    func(threadId domain.ThreadId, userId domain.UserId, optionIndex int) error
	resultsFunc func(threadId domain.ThreadId, viewer domain.UserId) (domain.PollResults, error)
}

func (m *MockPollService) Vote(_ context.Context, threadId domain.ThreadId, userId domain.UserId, optionIndex int) error {
	if m.voteFunc != nil {
		return m.voteFunc(threadId, userId, optionIndex)
	}
	return nil
}

func (m *MockPollService) Results(_ context.Context, threadId domain.ThreadId, viewer domain.UserId) (domain.PollResults, error) {
	if m.resultsFunc != nil {
		return m.resultsFunc(threadId, viewer)
	}
	return domain.PollResults{}, nil
}

type MockCommentService struct {
	createFunc func(data domain.CommentCreationData) (domain.Comment, error)
	listFunc   func(threadId domain.ThreadId) ([]domain.Comment, error)
	likeFunc   func(id domain.CommentId, userId domain.UserId) (bool, error)
	deleteFunc func(id domain.CommentId, requester *domain.User) error
}

func (m *MockCommentService) Create(_ context.Context, data domain.CommentCreationData) (domain.Comment, error) {
	if m.createFunc != nil {
		return m.createFunc(data)
	}
	return domain.Comment{}, nil
}

func (m *MockCommentService) List(_ context.Context, threadId domain.ThreadId) ([]domain.Comment, error) {
	if m.listFunc != nil {
		return m.listFunc(threadId)
	}
	return nil, nil
}

func (m *MockCommentService) ToggleLike(_ context.Context, id domain.CommentId, userId domain.UserId) (bool, error) {
	if m.likeFunc != nil {
		return m.likeFunc(id, userId)
	}
	return false, nil
}

func (m *MockCommentService) Delete(_ context.Context, id domain.CommentId, requester *domain.User) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(id, requester)
	}
	return nil
}

type MockChannelService struct {
	createFunc    func(data domain.ChannelCreationData) (domain.Channel, error)
	updateFunc    func(id domain.ChannelId, update domain.ChannelUpdate) (domain.Channel, error)
	getBySlugFunc func(slug domain.Slug) (domain.Channel, error)
	listFunc      func(includeHidden bool) ([]domain.SectionChannels, error)
	deleteFunc    func(id domain.ChannelId) error
}

func (m *MockChannelService) Create(_ context.Context, data domain.ChannelCreationData) (domain.Channel, error) {
	if m.createFunc != nil {
		return m.createFunc(data)
	}
	return domain.Channel{}, nil
}

func (m *MockChannelService) Update(_ context.Context, id domain.ChannelId, update domain.ChannelUpdate) (domain.Channel, error) {
	if m.updateFunc != nil {
		return m.updateFunc(id, update)
	}
	return domain.Channel{}, nil
}

func (m *MockChannelService) Get(_ context.Context, id domain.ChannelId) (domain.Channel, error) {
	return domain.Channel{Id: id}, nil
}

func (m *MockChannelService) GetBySlug(_ context.Context, slug domain.Slug) (domain.Channel, error) {
	if m.getBySlugFunc != nil {
		return m.getBySlugFunc(slug)
	}
	return domain.Channel{Slug: slug}, nil
}

func (m *MockChannelService) List(_ context.Context, includeHidden bool) ([]domain.SectionChannels, error) {
	if m.listFunc != nil {
		return m.listFunc(includeHidden)
	}
	return nil, nil
}

func (m *MockChannelService) Delete(_ context.Context, id domain.ChannelId) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(id)
	}
	return nil
}

type MockSectionService struct {
	createFunc  func(data domain.SectionCreationData) (domain.Section, error)
	updateFunc  func(id domain.SectionId, update domain.SectionUpdate) (domain.Section, error)
	listFunc    func(includeDrafts bool) ([]domain.Section, error)
	reorderFunc func(ordered []domain.SectionId) error
	deleteFunc  func(id domain.SectionId, reparent *service.SectionReparent) error
}

func (m *MockSectionService) Create(_ context.Context, data domain.SectionCreationData) (domain.Section, error) {
	if m.createFunc != nil {
		return m.createFunc(data)
	}
	return domain.Section{}, nil
}

func (m *MockSectionService) Update(_ context.Context, id domain.SectionId, update domain.SectionUpdate) (domain.Section, error) {
	if m.updateFunc != nil {
		return m.updateFunc(id, update)
	}
	return domain.Section{}, nil
}

func (m *MockSectionService) List(_ context.Context, includeDrafts bool) ([]domain.Section, error) {
	if m.listFunc != nil {
		return m.listFunc(includeDrafts)
	}
	return nil, nil
}

func (m *MockSectionService) Reorder(_ context.Context, ordered []domain.SectionId) error {
	if m.reorderFunc != nil {
		return m.reorderFunc(ordered)
	}
	return nil
}

func (m *MockSectionService) Delete(_ context.Context, id domain.SectionId, reparent *service.SectionReparent) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(id, reparent)
	}
	return nil
}

type MockOrderingService struct {
	reorderFunc func(sectionId *domain.SectionId, ordered []domain.ChannelId) error
	moveFunc    func(channelId domain.ChannelId, target *domain.SectionId, ordered []domain.ChannelId) error
	dropFunc    func(dragged domain.ChannelId, target string) (service.Drop, error)
}

func (m *MockOrderingService) Reorder(_ context.Context, sectionId *domain.SectionId, ordered []domain.ChannelId) error {
	if m.reorderFunc != nil {
		return m.reorderFunc(sectionId, ordered)
	}
	return nil
}

func (m *MockOrderingService) Move(_ context.Context, channelId domain.ChannelId, target *domain.SectionId, ordered []domain.ChannelId) error {
	if m.moveFunc != nil {
		return m.moveFunc(channelId, target, ordered)
	}
	return nil
}

func (m *MockOrderingService) Drop(_ context.Context, dragged domain.ChannelId, target string) (service.Drop, error) {
	if m.dropFunc != nil {
		return m.dropFunc(dragged, target)
	}
	return service.Drop{Kind: service.DropNone}, nil
}

func (m *MockOrderingService) Layout(_ context.Context) (service.Layout, error) {
	return service.Layout{}, nil
}

type MockCurationService struct {
	runFunc func(operation string) (domain.CurationReport, error)
}

func (m *MockCurationService) Run(_ context.Context, operation string) (domain.CurationReport, error) {
	if m.runFunc != nil {
		return m.runFunc(operation)
	}
	return domain.CurationReport{Operation: operation}, nil
}

type MockSweepStatus struct {
	stats service.SweepStats
}

func (m *MockSweepStatus) LastSweepStats() service.SweepStats { return m.stats }

type MockSearchService struct {
	threadsFunc func(query string, channelId *domain.ChannelId) ([]domain.Thread, error)
}

func (m *MockSearchService) Threads(_ context.Context, query string, channelId *domain.ChannelId) ([]domain.Thread, error) {
	if m.threadsFunc != nil {
		return m.threadsFunc(query, channelId)
	}
	return nil, nil
}

type MockPinger struct {
	err error
}

func (m *MockPinger) Ping(context.Context) error {
	return m.err
}

type mocks struct {
	users    *MockUserService
	threads  *MockThreadService
	polls    *MockPollService
	comments *MockCommentService
	channels *MockChannelService
	sections *MockSectionService
	ordering *MockOrderingService
	curation *MockCurationService
	search   *MockSearchService
	sweeps   *MockSweepStatus
	health   *MockPinger
}

func newMocks() *mocks {
	return &mocks{
		users:    &MockUserService{},
		threads:  &MockThreadService{},
		polls:    &MockPollService{},
		comments: &MockCommentService{},
		channels: &MockChannelService{},
		sections: &MockSectionService{},
		ordering: &MockOrderingService{},
		curation: &MockCurationService{},
		search:   &MockSearchService{},
		sweeps:   &MockSweepStatus{},
		health:   &MockPinger{},
	}
}

func (m *mocks) handler() *Handler {
	return New(Services{
		Users:    m.users,
		Threads:  m.threads,
		Polls:    m.polls,
		Comments: m.comments,
		Channels: m.channels,
		Sections: m.sections,
		Ordering: m.ordering,
		Curation: m.curation,
		Search:   m.search,
		Sweeps:   m.sweeps,
		Health:   m.health,
	})
}
