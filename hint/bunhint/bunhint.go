// Package bunhint keeps role hints in a SQL table through bun, so the post
// logout redirect survives a process restart.
package bunhint

import (
	"context"
	"embed"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	auth "github.com/goliatone/go-wallet-auth"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// MigrationsDir is the directory of the migrations inside MigrationsFS
const MigrationsDir = "data/sql/migrations"

// MigrationsFS returns the role_hints migrations
func MigrationsFS() embed.FS {
	return migrationsFS
}

// RoleHint is one row of the role_hints table. ID is the client key.
type RoleHint struct {
	bun.BaseModel `bun:"table:role_hints,alias:rh"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Role      string    `bun:"role,notnull" json:"role"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

var _ repository.Repository[*RoleHint] = (*Repository)(nil)

// Repository reads and writes role hints
type Repository struct {
	repository.Repository[*RoleHint]
	db *bun.DB
}

// NewRepository creates a repository over db. The role_hints table comes
// from the migrations in MigrationsFS.
func NewRepository(db *bun.DB) *Repository {
	repo := repository.NewRepository[*RoleHint](db, repository.ModelHandlers[*RoleHint]{
		NewRecord: func() *RoleHint { return &RoleHint{} },
		GetID: func(h *RoleHint) uuid.UUID {
			if h == nil {
				return uuid.Nil
			}
			return h.ID
		},
		SetID: func(h *RoleHint, id uuid.UUID) {
			if h != nil {
				h.ID = id
			}
		},
	})

	return &Repository{
		Repository: repo,
		db:         db,
	}
}

// HintFor returns the stored role for key, RoleUnknown when there is none
func (r *Repository) HintFor(ctx context.Context, key string) (auth.Role, error) {
	id, err := parseKey(key)
	if err != nil {
		return auth.RoleUnknown, err
	}

	hint, err := r.Repository.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return auth.RoleUnknown, nil
		}
		return auth.RoleUnknown, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read role hint").
			WithMetadata(map[string]any{"client_key": key})
	}
	return auth.ParseRole(hint.Role), nil
}

// SaveHint stores the role for key, replacing any previous one
func (r *Repository) SaveHint(ctx context.Context, key string, role auth.Role) error {
	if !role.IsValid() {
		return r.ClearHint(ctx, key)
	}

	id, err := parseKey(key)
	if err != nil {
		return err
	}

	record := &RoleHint{ID: id, Role: string(role), UpdatedAt: time.Now()}

	_, err = r.Repository.GetByID(ctx, id.String())
	switch {
	case err == nil:
		_, err = r.Repository.UpdateTx(ctx, r.db, record, repository.UpdateByID(id.String()))
	case repository.IsRecordNotFound(err):
		_, err = r.Repository.CreateTx(ctx, r.db, record)
	}

	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save role hint").
			WithMetadata(map[string]any{"client_key": key, "role": string(role)})
	}
	return nil
}

// ClearHint deletes the hint for key
func (r *Repository) ClearHint(ctx context.Context, key string) error {
	id, err := parseKey(key)
	if err != nil {
		return err
	}

	_, err = r.db.NewDelete().
		Model((*RoleHint)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to clear role hint").
			WithMetadata(map[string]any{"client_key": key})
	}
	return nil
}

// ForClient binds the repository to one client key
func (r *Repository) ForClient(key string) auth.HintStore {
	return clientHints{repo: r, key: key}
}

func parseKey(key string) (uuid.UUID, error) {
	id, err := uuid.Parse(key)
	if err != nil {
		return uuid.Nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "client key is not a uuid").
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"client_key": key})
	}
	return id, nil
}

type clientHints struct {
	repo *Repository
	key  string
}

func (c clientHints) GetRole(ctx context.Context) (auth.Role, error) {
	return c.repo.HintFor(ctx, c.key)
}

func (c clientHints) SetRole(ctx context.Context, role auth.Role) error {
	return c.repo.SaveHint(ctx, c.key, role)
}

func (c clientHints) ClearRole(ctx context.Context) error {
	return c.repo.ClearHint(ctx, c.key)
}
