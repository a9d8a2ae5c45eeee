package identity

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the bun backed UserRepository with transaction aware variants
type Users interface {
	UserRepository

	GetByIDTx(ctx context.Context, tx bun.IDB, id string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, user *User) error
	UpdateTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	base repository.Repository[*User]
	db   *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	base := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			id, err := uuid.Parse(u.ID)
			if err != nil {
				return uuid.Nil
			}
			return id
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil && u.ID == "" {
				u.ID = id.String()
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{base: base, db: db}
}

func (a *users) GetByID(ctx context.Context, id string) (*User, error) {
	return a.GetByIDTx(ctx, a.db, id)
}

func (a *users) GetByIDTx(ctx context.Context, tx bun.IDB, id string) (*User, error) {
	return a.getByColumn(ctx, tx, "id", id)
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.getByColumn(ctx, tx, "email", email)
}

// getByColumn loads the full aggregate. Absence is a nil user, not an
// error, lookups never leak storage level not-found errors upward.
func (a *users) getByColumn(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Relation("SecurityCodes").
		Relation("PasswordHistory").
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, user *User) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return a.CreateTx(ctx, tx, user)
	})
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	if _, err := a.base.CreateTx(ctx, tx, user); err != nil {
		return err
	}

	return a.replaceChildren(ctx, tx, user)
}

func (a *users) Update(ctx context.Context, user *User) error {
	return a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return a.UpdateTx(ctx, tx, user)
	})
}

// UpdateTx persists the whole aggregate: the user row plus a full rewrite
// of its security codes and password history
func (a *users) UpdateTx(ctx context.Context, tx bun.IDB, user *User) error {
	if _, err := a.base.UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID)); err != nil {
		return err
	}

	return a.replaceChildren(ctx, tx, user)
}

func (a *users) replaceChildren(ctx context.Context, tx bun.IDB, user *User) error {
	if _, err := tx.NewDelete().
		Model((*SecurityCode)(nil)).
		Where("user_id = ?", user.ID).
		Exec(ctx); err != nil {
		return err
	}

	if len(user.SecurityCodes) > 0 {
		for i := range user.SecurityCodes {
			user.SecurityCodes[i].UserID = user.ID
		}
		if _, err := tx.NewInsert().Model(&user.SecurityCodes).Exec(ctx); err != nil {
			return err
		}
	}

	if _, err := tx.NewDelete().
		Model((*HistoricalPassword)(nil)).
		Where("user_id = ?", user.ID).
		Exec(ctx); err != nil {
		return err
	}

	if len(user.PasswordHistory) > 0 {
		for i := range user.PasswordHistory {
			user.PasswordHistory[i].UserID = user.ID
		}
		if _, err := tx.NewInsert().Model(&user.PasswordHistory).Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
