package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"gorm.io/gorm"
)

type gormUserRepository struct {
	db *gorm.DB
}

func newGormUserRepository(db *gorm.DB) *gormUserRepository {
	return &gormUserRepository{db: db}
}

func preloadInterests(db *gorm.DB) *gorm.DB {
	return db.Preload("Interests", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

func usersFromRows(rows []userRow) []models.User {
	users := make([]models.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toModel())
	}
	return users
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	row := newUserRow(user)
	return translate(r.db.WithContext(ctx).Create(&row).Error, "userRepo.Create")
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	if err := preloadInterests(r.db.WithContext(ctx)).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "userRepo.FindByID")
	}
	user := row.toModel()
	return &user, nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := preloadInterests(r.db.WithContext(ctx)).Where("email = ?", email).First(&row).Error; err != nil {
		return nil, translate(err, "userRepo.FindByEmail")
	}
	user := row.toModel()
	return &user, nil
}

func (r *gormUserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	var rows []userRow
	if err := preloadInterests(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translate(err, "userRepo.FindByIDs")
	}
	return usersFromRows(rows), nil
}

func (r *gormUserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&userRow{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"name":        user.Name,
			"email":       user.Email,
			"college":     user.College,
			"bio":         user.Bio,
			"avatar":      user.Avatar,
			"avatar_key":  user.AvatarKey,
			"is_online":   user.IsOnline,
			"last_active": user.LastActive,
			"updated_at":  user.UpdatedAt,
		})
		if res.Error != nil {
			return translate(res.Error, "userRepo.Update")
		}
		if err := checkAffected(tx, res, &userRow{}, user.ID); err != nil {
			return translate(err, "userRepo.Update")
		}
		if err := tx.Where("user_id = ?", user.ID).Delete(&userInterestRow{}).Error; err != nil {
			return translate(err, "userRepo.Update.Interests")
		}
		if rows := interestRows(user.ID, user.Interests); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return translate(err, "userRepo.Update.Interests")
			}
		}
		return nil
	})
}

func (r *gormUserRepository) SetPresence(ctx context.Context, id string, online bool, at time.Time) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&userRow{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_online":   online,
		"last_active": at,
	})
	if res.Error != nil {
		return translate(res.Error, "userRepo.SetPresence")
	}
	return translate(checkAffected(db, res, &userRow{}, id), "userRepo.SetPresence")
}

func (r *gormUserRepository) ListOnline(ctx context.Context, excludeID string, limit int) ([]models.User, error) {
	var rows []userRow
	q := preloadInterests(r.db.WithContext(ctx)).Where("is_online = ?", true)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("last_active DESC").Find(&rows).Error; err != nil {
		return nil, translate(err, "userRepo.ListOnline")
	}
	return usersFromRows(rows), nil
}

func (r *gormUserRepository) Search(ctx context.Context, filter UserSearch) ([]models.User, error) {
	var rows []userRow
	q := preloadInterests(r.db.WithContext(ctx))

	if query := strings.ToLower(strings.TrimSpace(filter.Query)); query != "" {
		like := "%" + query + "%"
		q = q.Where("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", like, like)
	}
	if college := strings.ToLower(strings.TrimSpace(filter.College)); college != "" {
		q = q.Where("LOWER(college) LIKE ?", "%"+college+"%")
	}
	if len(filter.Interests) > 0 {
		q = q.Where("id IN (?)", r.db.Model(&userInterestRow{}).Select("user_id").Where("interest IN ?", filter.Interests))
	}
	if filter.ExcludeID != "" {
		q = q.Where("id <> ?", filter.ExcludeID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	if err := q.Order("name").Find(&rows).Error; err != nil {
		return nil, translate(err, "userRepo.Search")
	}
	return usersFromRows(rows), nil
}

func (r *gormUserRepository) ListRecentlyActive(ctx context.Context, excludeIDs []string, limit int) ([]models.User, error) {
	var rows []userRow
	q := preloadInterests(r.db.WithContext(ctx)).Where("is_online = ?", true)
	if len(excludeIDs) > 0 {
		q = q.Where("id NOT IN ?", excludeIDs)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("last_active DESC").Find(&rows).Error; err != nil {
		return nil, translate(err, "userRepo.ListRecentlyActive")
	}
	return usersFromRows(rows), nil
}
