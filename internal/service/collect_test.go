package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"content_collector/internal/config"
	"content_collector/internal/domain"
	"content_collector/internal/queue"
	"content_collector/internal/service/mocks"
	"content_collector/internal/summarize"
	"content_collector/testdata/utils"
)

type CollectServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	sources   *mocks.MockSourceStore
	owners    *mocks.MockOwnerStore
	items     *mocks.MockItemStore
	connector *mocks.MockConnector
	deduper   *mocks.MockDeduper
	txManager *mocks.MockTransactionManager
	publisher *mocks.MockPublisher
	jobs      *mocks.MockJobQueue

	service *CollectService
	cfg     config.CollectorConfig
	logger  *slog.Logger

	source *domain.Source
	owner  *domain.Owner
}

func (s *CollectServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.sources = mocks.NewMockSourceStore(s.ctrl)
	s.owners = mocks.NewMockOwnerStore(s.ctrl)
	s.items = mocks.NewMockItemStore(s.ctrl)
	s.connector = mocks.NewMockConnector(s.ctrl)
	s.deduper = mocks.NewMockDeduper(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.jobs = mocks.NewMockJobQueue(s.ctrl)

	s.cfg = config.CollectorConfig{
		RecencyWindowDays: 10,
		Retry: config.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     5 * time.Millisecond,
		},
	}

	s.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	s.source = &domain.Source{
		ID:              1,
		Name:            "Test Board",
		Type:            domain.SourceTypeBoard,
		BaseURL:         "https://example.com/board",
		Enabled:         true,
		CollectInterval: 60,
		OwnerID:         7,
	}
	s.owner = &domain.Owner{ID: 7, Username: "tester"}

	factory := func(*domain.Source) Connector { return s.connector }

	s.service = NewCollectService(
		s.sources,
		s.owners,
		s.items,
		factory,
		s.deduper,
		summarize.Extractive{},
		s.txManager,
		s.publisher,
		s.jobs,
		s.logger,
		s.cfg,
	)
}

func (s *CollectServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestCollectServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CollectServiceTestSuite))
}

func (s *CollectServiceTestSuite) expectTransactionPassthrough() {
	s.txManager.EXPECT().WithTransaction(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	).AnyTimes()
}

func (s *CollectServiceTestSuite) TestCollect_NewItems() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.CandidateItem{
		{URL: "https://example.com/1", Title: "행사 안내", PublishedAt: utils.Ptr(now.AddDate(0, 0, -1)), RawText: "내용"},
		{URL: "https://example.com/2", Title: "날짜 없는 공지", RawText: "내용"},
	}

	s.sources.EXPECT().Get(ctx, int64(1)).Return(s.source, nil)
	s.owners.EXPECT().Get(ctx, int64(7)).Return(s.owner, nil)
	s.connector.EXPECT().FetchList(ctx).Return(candidates, nil)

	s.items.EXPECT().ExistsByURLHash(ctx, gomock.Any()).Return(false, nil).Times(2)
	s.expectTransactionPassthrough()

	var inserted []*domain.Item
	s.items.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, item *domain.Item) (int64, error) {
			inserted = append(inserted, item)
			return int64(100 + len(inserted)), nil
		},
	).Times(2)

	s.jobs.EXPECT().Enqueue(gomock.Any()).Return(nil).Times(2)
	s.sources.EXPECT().UpdateLastCollected(ctx, int64(1), gomock.Any()).Return(nil)

	stats, err := s.service.CollectSource(ctx, 1)

	s.Require().NoError(err)
	s.Equal(2, stats.Fetched)
	s.Equal(2, stats.New)
	s.Equal(0, stats.SkippedStale)
	s.Equal(0, stats.SkippedDuplicate)

	s.Require().Len(inserted, 2)
	s.Equal(domain.StatusCollected, inserted[0].Status)
	s.NotEmpty(inserted[0].HashURL)
	s.NotEmpty(inserted[0].HashContent)
	s.Equal(int64(7), inserted[0].OwnerID)
}

func (s *CollectServiceTestSuite) TestCollect_RecencyFilter() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.CandidateItem{
		{URL: "https://example.com/fresh", Title: "a", PublishedAt: utils.Ptr(now.AddDate(0, 0, -9))},
		{URL: "https://example.com/stale", Title: "b", PublishedAt: utils.Ptr(now.AddDate(0, 0, -11))},
		{URL: "https://example.com/undated", Title: "c"},
	}

	s.sources.EXPECT().Get(ctx, int64(1)).Return(s.source, nil)
	s.owners.EXPECT().Get(ctx, int64(7)).Return(s.owner, nil)
	s.connector.EXPECT().FetchList(ctx).Return(candidates, nil)

	s.items.EXPECT().ExistsByURLHash(ctx, gomock.Any()).Return(false, nil).Times(2)
	s.expectTransactionPassthrough()
	s.items.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(int64(1), nil).Times(2)
	s.jobs.EXPECT().Enqueue(gomock.Any()).Return(nil).Times(2)
	s.sources.EXPECT().UpdateLastCollected(ctx, int64(1), gomock.Any()).Return(nil)

	stats, err := s.service.CollectSource(ctx, 1)

	s.Require().NoError(err)
	s.Equal(3, stats.Fetched)
	s.Equal(2, stats.New, "9 day old and undated items pass the filter")
	s.Equal(1, stats.SkippedStale, "11 day old item is dropped")
}

func (s *CollectServiceTestSuite) TestCollect_IdempotentReRun() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.CandidateItem{
		{URL: "https://example.com/1", Title: "행사 안내", PublishedAt: utils.Ptr(now)},
	}

	s.sources.EXPECT().Get(ctx, int64(1)).Return(s.source, nil)
	s.owners.EXPECT().Get(ctx, int64(7)).Return(s.owner, nil)
	s.connector.EXPECT().FetchList(ctx).Return(candidates, nil)

	// The URL was persisted on a previous run.
	s.items.EXPECT().ExistsByURLHash(ctx, gomock.Any()).Return(true, nil)
	s.sources.EXPECT().UpdateLastCollected(ctx, int64(1), gomock.Any()).Return(nil)

	stats, err := s.service.CollectSource(ctx, 1)

	s.Require().NoError(err)
	s.Equal(0, stats.New, "re-running an unchanged source yields nothing new")
	s.Equal(1, stats.SkippedDuplicate)
}

func (s *CollectServiceTestSuite) TestCollect_OwnerExpired() {
	ctx := context.Background()
	expired := &domain.Owner{ID: 7, Username: "tester", ExpiresAt: utils.Ptr(time.Now().Add(-time.Hour))}

	s.sources.EXPECT().Get(ctx, int64(1)).Return(s.source, nil)
	s.owners.EXPECT().Get(ctx, int64(7)).Return(expired, nil)

	stats, err := s.service.CollectSource(ctx, 1)

	s.Require().NoError(err)
	s.Equal(0, stats.Fetched, "no fetch happens for an expired owner")
}

func (s *CollectServiceTestSuite) TestCollect_SourceDisabled() {
	ctx := context.Background()
	disabled := *s.source
	disabled.Enabled = false

	s.sources.EXPECT().Get(ctx, int64(1)).Return(&disabled, nil)

	stats, err := s.service.CollectSource(ctx, 1)

	s.Require().NoError(err)
	s.Equal(0, stats.Fetched)
}

func (s *CollectServiceTestSuite) TestCollect_FetchRetriesThenSucceeds() {
	ctx := context.Background()

	s.sources.EXPECT().Get(ctx, int64(1)).Return(s.source, nil)
	s.owners.EXPECT().Get(ctx, int64(7)).Return(s.owner, nil)

	gomock.InOrder(
		s.connector.EXPECT().FetchList(ctx).Return(nil, errors.New("upstream hiccup")),
		s.connector.EXPECT().FetchList(ctx).Return(nil, errors.New("upstream hiccup")),
		s.connector.EXPECT().FetchList(ctx).Return([]domain.CandidateItem{}, nil),
	)

	s.sources.EXPECT().UpdateLastCollected(ctx, int64(1), gomock.Any()).Return(nil)

	stats, err := s.service.CollectSource(ctx, 1)

	s.Require().NoError(err)
	s.Equal(0, stats.Fetched)
}

func (s *CollectServiceTestSuite) TestCollect_FetchExhaustsRetries() {
	ctx := context.Background()

	s.sources.EXPECT().Get(ctx, int64(1)).Return(s.source, nil)
	s.owners.EXPECT().Get(ctx, int64(7)).Return(s.owner, nil)
	s.connector.EXPECT().FetchList(ctx).Return(nil, errors.New("down")).Times(3)

	stats, err := s.service.CollectSource(ctx, 1)

	s.Require().Error(err)
	s.Nil(stats)
	s.Contains(err.Error(), "fetch candidates")
}

func (s *CollectServiceTestSuite) TestCollect_QueueUnavailableProcessesInline() {
	ctx := context.Background()
	now := time.Now()

	candidates := []domain.CandidateItem{
		{URL: "https://example.com/1", Title: "울산 축제 안내", PublishedAt: utils.Ptr(now), RawText: "축제가 열립니다. 많은 참여 바랍니다."},
	}

	s.sources.EXPECT().Get(ctx, int64(1)).Return(s.source, nil)
	s.owners.EXPECT().Get(ctx, int64(7)).Return(s.owner, nil)
	s.connector.EXPECT().FetchList(ctx).Return(candidates, nil)
	s.items.EXPECT().ExistsByURLHash(ctx, gomock.Any()).Return(false, nil)
	s.expectTransactionPassthrough()
	s.items.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(int64(55), nil)

	s.jobs.EXPECT().Enqueue(gomock.Any()).Return(queue.ErrUnavailable)

	stored := &domain.Item{ID: 55, SourceID: 1, Title: "울산 축제 안내", RawText: "축제가 열립니다. 많은 참여 바랍니다.", Status: domain.StatusCollected}
	s.items.EXPECT().GetByID(ctx, int64(55)).Return(stored, nil)
	s.deduper.EXPECT().Process(ctx, stored).Return(nil, nil)
	s.items.EXPECT().UpdateEnrichment(ctx, stored).Return(nil)
	s.publisher.EXPECT().Publish(ctx, stored, "collected").Return(nil)

	s.sources.EXPECT().UpdateLastCollected(ctx, int64(1), gomock.Any()).Return(nil)

	stats, err := s.service.CollectSource(ctx, 1)

	s.Require().NoError(err)
	s.Equal(1, stats.New)
	s.Equal(0, stats.Errors)
}

func (s *CollectServiceTestSuite) TestProcessItem_Enrichment() {
	ctx := context.Background()

	item := &domain.Item{
		ID:       55,
		SourceID: 1,
		Title:    "울산 남구 축제 안내",
		RawText:  "남구에서 무료 공연이 열립니다. 참여 신청은 홈페이지에서 하시면 됩니다. 문의는 문화과입니다.",
		Status:   domain.StatusCollected,
	}

	s.items.EXPECT().GetByID(ctx, int64(55)).Return(item, nil)
	s.deduper.EXPECT().Process(ctx, item).Return(nil, nil)
	s.items.EXPECT().UpdateEnrichment(ctx, item).DoAndReturn(
		func(_ context.Context, got *domain.Item) error {
			s.Equal("행사", got.Category)
			s.Equal("남구", got.Region)
			s.Contains(got.Tags, "축제")
			s.NotEmpty(got.SummaryText)
			return nil
		},
	)
	s.publisher.EXPECT().Publish(ctx, item, "collected").Return(nil)

	s.Require().NoError(s.service.ProcessItem(ctx, 55))
}

func (s *CollectServiceTestSuite) TestProcessItem_PublishFailureIsNotFatal() {
	ctx := context.Background()

	item := &domain.Item{ID: 55, Title: "공지", RawText: "본문", Status: domain.StatusCollected}

	s.items.EXPECT().GetByID(ctx, int64(55)).Return(item, nil)
	s.deduper.EXPECT().Process(ctx, item).Return(nil, nil)
	s.items.EXPECT().UpdateEnrichment(ctx, item).Return(nil)
	s.publisher.EXPECT().Publish(ctx, item, "collected").Return(errors.New("broker down"))

	s.NoError(s.service.ProcessItem(ctx, 55))
}
