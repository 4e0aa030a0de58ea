package sync

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/creator-tracker/video-sync-go/internal/db/models"
	"github.com/creator-tracker/video-sync-go/internal/db/repository"
	"github.com/creator-tracker/video-sync-go/internal/notify"
	"github.com/creator-tracker/video-sync-go/internal/platform"
	"github.com/creator-tracker/video-sync-go/pkg/logger"
)

func init() {
	_ = logger.Init("error", "")
}

type mockAdapter struct {
	mock.Mock
	platformName models.Platform
}

func (m *mockAdapter) Platform() models.Platform { return m.platformName }

func (m *mockAdapter) Fetch(ctx context.Context, username string, maxItems, skip int) ([]platform.RawItem, error) {
	args := m.Called(ctx, username, maxItems, skip)
	items, _ := args.Get(0).([]platform.RawItem)
	return items, args.Error(1)
}

func (m *mockAdapter) FetchByRefs(ctx context.Context, refs []platform.VideoRef) ([]platform.RawItem, error) {
	args := m.Called(ctx, refs)
	items, _ := args.Get(0).([]platform.RawItem)
	return items, args.Error(1)
}

func (m *mockAdapter) ExtractID(item platform.RawItem) string {
	id, _ := item["id"].(string)
	return id
}

func (m *mockAdapter) ExtractVerified(item platform.RawItem) *bool {
	if v, ok := item["verified"].(bool); ok {
		return &v
	}
	return nil
}

func (m *mockAdapter) ExtractBlueVerified(item platform.RawItem) *bool {
	if v, ok := item["blueVerified"].(bool); ok {
		return &v
	}
	return nil
}

func (m *mockAdapter) Extract(item platform.RawItem) (*platform.FetchedVideo, error) {
	id, _ := item["id"].(string)
	thumb, _ := item["thumbnail"].(string)
	views, _ := item["views"].(int64)
	return &platform.FetchedVideo{
		ID:           id,
		URL:          "https://example.com/" + id,
		ThumbnailURL: thumb,
		Metrics:      models.Metrics{Views: views},
	}, nil
}

// rawItems builds provider records carrying only ids, the shape most
// discovery tests need.
func rawItems(ids ...string) []platform.RawItem {
	items := make([]platform.RawItem, len(ids))
	for i, id := range ids {
		items[i] = platform.RawItem{"id": id}
	}
	return items
}

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) Exists(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error) {
	args := m.Called(ctx, orgID, projectID, platformVideoID)
	return args.Bool(0), args.Error(1)
}

type mockVideoRepo struct {
	mock.Mock
}

func (m *mockVideoRepo) Exists(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error) {
	args := m.Called(ctx, orgID, projectID, platformVideoID)
	return args.Bool(0), args.Error(1)
}

func (m *mockVideoRepo) GetByPlatformID(ctx context.Context, orgID, projectID, platformVideoID string) (*models.Video, error) {
	args := m.Called(ctx, orgID, projectID, platformVideoID)
	video, _ := args.Get(0).(*models.Video)
	return video, args.Error(1)
}

func (m *mockVideoRepo) ListByAccount(ctx context.Context, accountID int64) ([]*models.Video, error) {
	args := m.Called(ctx, accountID)
	videos, _ := args.Get(0).([]*models.Video)
	return videos, args.Error(1)
}

func (m *mockVideoRepo) CountByAccount(ctx context.Context, accountID int64) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func (m *mockVideoRepo) UpdateThumbnail(ctx context.Context, videoID int64, thumbnail string) error {
	args := m.Called(ctx, videoID, thumbnail)
	return args.Error(0)
}

func (m *mockVideoRepo) WriteBatch(ctx context.Context, ops []repository.WriteOp) error {
	args := m.Called(ctx, ops)
	return args.Error(0)
}

type mockUsageRepo struct {
	mock.Mock
}

func (m *mockUsageRepo) Get(ctx context.Context, orgID string) (*models.UsageCounter, error) {
	args := m.Called(ctx, orgID)
	usage, _ := args.Get(0).(*models.UsageCounter)
	return usage, args.Error(1)
}

func (m *mockUsageRepo) IncrementTracked(ctx context.Context, orgID string, n int) error {
	args := m.Called(ctx, orgID, n)
	return args.Error(0)
}

type mockBlacklist struct {
	mock.Mock
}

func (m *mockBlacklist) IsBlacklisted(ctx context.Context, orgID, projectID, platformVideoID string) (bool, error) {
	args := m.Called(ctx, orgID, projectID, platformVideoID)
	return args.Bool(0), args.Error(1)
}

type mockThumbnailer struct {
	mock.Mock
}

func (m *mockThumbnailer) Process(ctx context.Context, remoteURL string, p models.Platform, orgID, projectID, videoID string) (string, error) {
	args := m.Called(ctx, remoteURL, p, orgID, projectID, videoID)
	return args.String(0), args.Error(1)
}

type mockOrgRepo struct {
	mock.Mock
}

func (m *mockOrgRepo) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	args := m.Called(ctx)
	orgs, _ := args.Get(0).([]*models.Organization)
	return orgs, args.Error(1)
}

func (m *mockOrgRepo) GetOrganization(ctx context.Context, orgID string) (*models.Organization, error) {
	args := m.Called(ctx, orgID)
	org, _ := args.Get(0).(*models.Organization)
	return org, args.Error(1)
}

func (m *mockOrgRepo) ListProjects(ctx context.Context, orgID string) ([]*models.Project, error) {
	args := m.Called(ctx, orgID)
	projects, _ := args.Get(0).([]*models.Project)
	return projects, args.Error(1)
}

func (m *mockOrgRepo) GetProject(ctx context.Context, orgID, projectID string) (*models.Project, error) {
	args := m.Called(ctx, orgID, projectID)
	project, _ := args.Get(0).(*models.Project)
	return project, args.Error(1)
}

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) ListActiveAccounts(ctx context.Context, orgID, projectID string) ([]*models.TrackedAccount, error) {
	args := m.Called(ctx, orgID, projectID)
	accounts, _ := args.Get(0).([]*models.TrackedAccount)
	return accounts, args.Error(1)
}

func (m *mockAccountRepo) GetAccountByID(ctx context.Context, accountID int64) (*models.TrackedAccount, error) {
	args := m.Called(ctx, accountID)
	account, _ := args.Get(0).(*models.TrackedAccount)
	return account, args.Error(1)
}

func (m *mockAccountRepo) MarkSynced(ctx context.Context, accountID int64, verified, blueVerified sql.NullBool) error {
	args := m.Called(ctx, accountID, verified, blueVerified)
	return args.Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Send(to string, report notify.OrgReport) {
	m.Called(to, report)
}

func testAccount(id int64, creatorType models.CreatorType) *models.TrackedAccount {
	return &models.TrackedAccount{
		ID:             id,
		OrganizationID: "org-1",
		ProjectID:      "proj-1",
		Platform:       models.PlatformInstagram,
		Username:       "creator",
		CreatorType:    creatorType,
		IsActive:       true,
	}
}
