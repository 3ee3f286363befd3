package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"knowledge_sync/internal/domain"
	"knowledge_sync/internal/provider"
	"knowledge_sync/internal/service/mocks"
)

type IntegrationServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	client       *mocks.MockProviderClient
	integrations *mocks.MockIntegrationStore
	states       *mocks.MockSyncStateStore
	txManager    *mocks.MockTransactionManager

	service *IntegrationService
	ctx     context.Context
}

func (s *IntegrationServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.client = mocks.NewMockProviderClient(s.ctrl)
	s.integrations = mocks.NewMockIntegrationStore(s.ctrl)
	s.states = mocks.NewMockSyncStateStore(s.ctrl)
	s.txManager = mocks.NewMockTransactionManager(s.ctrl)

	s.client.EXPECT().Provider().Return(domain.ProviderNotion).AnyTimes()
	s.service = NewIntegrationService(provider.NewRegistry(s.client), s.integrations, s.states, s.txManager,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.ctx = context.Background()
}

func (s *IntegrationServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestIntegrationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(IntegrationServiceTestSuite))
}

func (s *IntegrationServiceTestSuite) passthroughTx() {
	s.txManager.EXPECT().WithTransaction(s.ctx, gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func (s *IntegrationServiceTestSuite) TestConnect_StoresAccountAndInitsState() {
	creds := domain.Credentials{AccessToken: "secret"}
	settings := map[string]any{"database_ids": []any{"db1"}}

	s.client.EXPECT().GetAccountInfo(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, acct provider.Account) (map[string]any, error) {
			s.Equal("secret", acct.Credentials.AccessToken)
			s.Equal([]any{"db1"}, acct.Settings["database_ids"])
			return map[string]any{"workspace": "Acme"}, nil
		})
	s.passthroughTx()
	s.integrations.EXPECT().Upsert(s.ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, in *domain.Integration) (int64, error) {
			s.Equal("u1", in.UserID)
			s.Equal(map[string]any{"workspace": "Acme"}, in.Metadata[MetadataAccount])
			return 7, nil
		})
	s.states.EXPECT().Init(s.ctx, "u1", domain.ProviderNotion).Return(nil)

	in, err := s.service.Connect(s.ctx, "u1", domain.ProviderNotion, creds, settings)

	s.Require().NoError(err)
	s.Equal(int64(7), in.ID)
	s.Equal([]any{"db1"}, in.Metadata["database_ids"])
}

func (s *IntegrationServiceTestSuite) TestConnect_RejectsBadCredentials() {
	s.client.EXPECT().GetAccountInfo(s.ctx, gomock.Any()).Return(nil, errors.New("401 unauthorized"))

	_, err := s.service.Connect(s.ctx, "u1", domain.ProviderNotion, domain.Credentials{AccessToken: "bad"}, nil)

	var perr *domain.ProviderFetchError
	s.Require().ErrorAs(err, &perr)
	s.Equal(domain.ProviderNotion, perr.Provider)
}

func (s *IntegrationServiceTestSuite) TestConnect_RequiresCredentials() {
	_, err := s.service.Connect(s.ctx, "u1", domain.ProviderNotion, domain.Credentials{}, nil)
	s.ErrorIs(err, domain.ErrMissingCredentials)

	_, err = s.service.Connect(s.ctx, "u1", "dropbox", domain.Credentials{AccessToken: "x"}, nil)
	s.ErrorIs(err, domain.ErrProviderNotRegistered)
}

func (s *IntegrationServiceTestSuite) TestConnect_RollsBackOnStateFailure() {
	s.client.EXPECT().GetAccountInfo(s.ctx, gomock.Any()).Return(map[string]any{}, nil)
	s.passthroughTx()
	s.integrations.EXPECT().Upsert(s.ctx, gomock.Any()).Return(int64(1), nil)
	s.states.EXPECT().Init(s.ctx, "u1", domain.ProviderNotion).Return(errors.New("constraint"))

	_, err := s.service.Connect(s.ctx, "u1", domain.ProviderNotion, domain.Credentials{AccessToken: "x"}, nil)
	s.Error(err)
}

func (s *IntegrationServiceTestSuite) TestDisconnect() {
	s.integrations.EXPECT().Delete(s.ctx, "u1", domain.ProviderNotion).Return(nil)
	s.NoError(s.service.Disconnect(s.ctx, "u1", domain.ProviderNotion))

	s.integrations.EXPECT().Delete(s.ctx, "u1", domain.ProviderNotion).Return(domain.ErrIntegrationNotFound)
	s.ErrorIs(s.service.Disconnect(s.ctx, "u1", domain.ProviderNotion), domain.ErrIntegrationNotFound)
}

func (s *IntegrationServiceTestSuite) TestStatus_DefaultsMissingStateToIdle() {
	s.integrations.EXPECT().ListByUser(s.ctx, "u1").Return([]*domain.Integration{
		{Provider: domain.ProviderNotion},
		{Provider: domain.ProviderSlack},
	}, nil)
	s.states.EXPECT().ListByUser(s.ctx, "u1").Return([]*domain.SyncState{
		{Provider: domain.ProviderNotion, Status: domain.SyncStatusError, ErrorCount: 2},
	}, nil)

	got, err := s.service.Status(s.ctx, "u1")

	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Notion", got[0].DisplayName)
	s.Equal(2, got[0].State.ErrorCount)
	s.Equal(domain.SyncStatusIdle, got[1].State.Status)
}
