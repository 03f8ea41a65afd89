package inmemdb

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/upskillhq/upskill/core"
	"github.com/upskillhq/upskill/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		users = append(users, *usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email != email {
			continue
		}
		excluded := false
		for _, exclUsr := range excludedUsers {
			if exclUsr.ID == usr.ID {
				excluded = true
				break
			}
		}
		if !excluded {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.New().String()
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, exec ...core.DBExecutor) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	filter.Clean()
	search := strings.ToLower(filter.Search)

	var users []user.User
	for _, usr := range repo.query() {
		if search != "" &&
			!strings.Contains(strings.ToLower(usr.FirstName), search) &&
			!strings.Contains(strings.ToLower(usr.LastName), search) &&
			!strings.Contains(strings.ToLower(usr.Email), search) {
			continue
		}
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if filter.TeamID != nil && (usr.TeamID == nil || *usr.TeamID != *filter.TeamID) {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		users = append(users, usr)
	}

	// only the first ordering is honored here; enough for tests
	if len(filter.Ordering) > 0 {
		ord := filter.Ordering[0]
		sort.SliceStable(users, func(i, j int) bool {
			var less bool
			switch ord.Field {
			case "email":
				less = users[i].Email < users[j].Email
			case "first_name":
				less = users[i].FirstName < users[j].FirstName
			case "last_name":
				less = users[i].LastName < users[j].LastName
			default:
				less = users[i].CreatedAt.Before(users[j].CreatedAt)
			}
			if ord.Ascending {
				return less
			}
			return !less
		})
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	// only save set fields
	origUsr, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.PasswordHash != nil {
		origUsr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		origUsr.IsActive = *isActive
	}
	origUsr.Email = usr.Email
	origUsr.FirstName = usr.FirstName
	origUsr.LastName = usr.LastName
	origUsr.Role = usr.Role
	origUsr.TeamID = usr.TeamID
	origUsr.UpdatedAt = usr.UpdatedAt
	return *origUsr, nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	origUsr, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	origUsr.LastLogin = time.Now().UTC()
	return *origUsr, nil
}

func (repo *userRepository) DeleteUsersByID(ctx context.Context, ids []string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.users, id)
	}
	return nil
}
