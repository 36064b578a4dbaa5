package bunhint_test

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	auth "github.com/goliatone/go-wallet-auth"
	"github.com/goliatone/go-wallet-auth/hint/bunhint"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// persistenceConfig is the in memory database used by the tests
type persistenceConfig struct{}

func (persistenceConfig) GetDebug() bool                { return false }
func (persistenceConfig) GetDriver() string             { return sqliteshim.ShimName }
func (persistenceConfig) GetServer() string             { return ":memory:" }
func (persistenceConfig) GetPingTimeout() time.Duration { return time.Second }
func (persistenceConfig) GetOtelIdentifier() string     { return "" }

func setupRepository(t *testing.T) (*bunhint.Repository, *bun.DB) {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	persistence.RegisterModel((*bunhint.RoleHint)(nil))
	client, err := persistence.New(persistenceConfig{}, db, sqlitedialect.New())
	require.NoError(t, err)

	migrations, err := fs.Sub(bunhint.MigrationsFS(), bunhint.MigrationsDir)
	require.NoError(t, err)
	client.RegisterDialectMigrations(migrations,
		persistence.WithDialectSourceLabel(bunhint.MigrationsDir),
	)
	require.NoError(t, client.Migrate(context.Background()))

	bunDB := client.DB()
	t.Cleanup(func() {
		_ = bunDB.Close()
	})

	return bunhint.NewRepository(bunDB), bunDB
}

var (
	clientA = uuid.NewString()
	clientB = uuid.NewString()
)

func TestRepository_GetMissing(t *testing.T) {
	repo, _ := setupRepository(t)

	role, err := repo.HintFor(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUnknown, role)
}

func TestRepository_SetUpsertsAndClears(t *testing.T) {
	repo, db := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveHint(ctx, clientA, auth.RolePeer))
	require.NoError(t, repo.SaveHint(ctx, clientA, auth.RoleSA))
	require.NoError(t, repo.SaveHint(ctx, clientB, auth.RoleUser))

	role, err := repo.HintFor(ctx, clientA)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleSA, role)

	count, err := db.NewSelect().Model((*bunhint.RoleHint)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	require.NoError(t, repo.ClearHint(ctx, clientA))
	role, err = repo.HintFor(ctx, clientA)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUnknown, role)

	role, err = repo.HintFor(ctx, clientB)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUser, role)
}

func TestRepository_SetUnknownRoleClears(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveHint(ctx, clientA, auth.RolePeer))
	require.NoError(t, repo.SaveHint(ctx, clientA, auth.RoleUnknown))

	role, err := repo.HintFor(ctx, clientA)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUnknown, role)
}

func TestRepository_RejectsMalformedKey(t *testing.T) {
	repo, _ := setupRepository(t)

	_, err := repo.HintFor(context.Background(), "not-a-uuid")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryBadInput, richErr.Category)
}

func TestRepository_GetByID(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveHint(ctx, clientA, auth.RolePeer))

	record, err := repo.GetByID(ctx, clientA)
	require.NoError(t, err)
	assert.Equal(t, clientA, record.ID.String())
	assert.Equal(t, string(auth.RolePeer), record.Role)
	assert.False(t, record.UpdatedAt.IsZero())
}

func TestForClient_DrivesLogoutTarget(t *testing.T) {
	repo, _ := setupRepository(t)
	ctx := context.Background()

	hints := repo.ForClient(clientA)
	require.NoError(t, hints.SetRole(ctx, auth.RoleSA))

	// a fresh store for the same client still knows where to send it
	store := auth.NewStore(logoutOnlyAPI{},
		auth.WithLogger(auth.NopLogger{}),
		auth.WithHintStore(repo.ForClient(clientA)),
	)
	assert.Equal(t, "/admin/login", store.Logout(ctx))

	role, err := hints.GetRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleUnknown, role)
}

type logoutOnlyAPI struct{}

func (logoutOnlyAPI) Verify(context.Context) (*auth.User, error) { return nil, nil }

func (logoutOnlyAPI) Login(context.Context, auth.Credentials) (*auth.User, error) { return nil, nil }

func (logoutOnlyAPI) Logout(context.Context) error { return nil }

func (logoutOnlyAPI) ClearSession() {}
