package indexer

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/indexer/mocks"
)

type IndexerTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	items    *mocks.MockItemStore
	embedder *mocks.MockEmbedder
	indexer  *Indexer
	ctx      context.Context
}

func (s *IndexerTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.items = mocks.NewMockItemStore(s.ctrl)
	s.embedder = mocks.NewMockEmbedder(s.ctrl)
	s.indexer = New(s.items, s.embedder, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *IndexerTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestIndexerTestSuite(t *testing.T) {
	suite.Run(t, new(IndexerTestSuite))
}

func (s *IndexerTestSuite) TestHandleEvent_StoresVector() {
	item := &domain.IngestedItem{ID: "i1", Title: "Launch", Content: "Friday"}
	s.items.EXPECT().Get(s.ctx, "i1").Return(item, nil)
	s.embedder.EXPECT().Embed(s.ctx, "Launch\n\nFriday").Return([]float64{0.1, 0.2}, nil)
	s.items.EXPECT().SetEmbedding(s.ctx, "i1", []float64{0.1, 0.2}).Return(nil)

	s.NoError(s.indexer.HandleEvent(s.ctx, domain.ItemEvent{ItemID: "i1"}))
}

func (s *IndexerTestSuite) TestHandleEvent_DeletedItemIsIgnored() {
	s.items.EXPECT().Get(s.ctx, "gone").Return(nil, sql.ErrNoRows)

	s.NoError(s.indexer.HandleEvent(s.ctx, domain.ItemEvent{ItemID: "gone"}))
}

func (s *IndexerTestSuite) TestHandleEvent_EmbeddingFailureIsReturned() {
	s.items.EXPECT().Get(s.ctx, "i1").Return(&domain.IngestedItem{ID: "i1", Title: "x"}, nil)
	s.embedder.EXPECT().Embed(s.ctx, "x").Return(nil, errors.New("429"))

	err := s.indexer.HandleEvent(s.ctx, domain.ItemEvent{ItemID: "i1"})

	var eerr *domain.EmbeddingError
	s.ErrorAs(err, &eerr)
}

func (s *IndexerTestSuite) TestBackfill_ContinuesPastFailures() {
	s.items.EXPECT().ListMissingEmbeddings(s.ctx, 10).Return([]*domain.IngestedItem{
		{ID: "a", Title: "A"},
		{ID: "b", Title: "B"},
		{ID: "c", Content: "   "},
	}, nil)
	s.embedder.EXPECT().Embed(s.ctx, "A").Return(nil, errors.New("timeout"))
	s.embedder.EXPECT().Embed(s.ctx, "B").Return([]float64{1}, nil)
	s.embedder.EXPECT().Embed(s.ctx, "").Return(nil, nil)
	s.items.EXPECT().SetEmbedding(s.ctx, "b", []float64{1}).Return(nil)
	s.items.EXPECT().SetEmbedding(s.ctx, "c", []float64{}).Return(nil)

	n, err := s.indexer.Backfill(s.ctx, 10)

	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *IndexerTestSuite) TestEmbeddingText() {
	s.Equal("T", EmbeddingText(&domain.IngestedItem{Title: " T "}))
	s.Equal("C", EmbeddingText(&domain.IngestedItem{Content: "C"}))
	s.Equal("T\n\nC", EmbeddingText(&domain.IngestedItem{Title: "T", Content: "C"}))
}
