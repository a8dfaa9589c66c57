package repository

import (
	"context"
	"time"

	"github.com/Anchal0410/peer-connect/internal/models"
	"gorm.io/gorm"
)

type gormActivityRepository struct {
	db *gorm.DB
}

func newGormActivityRepository(db *gorm.DB) *gormActivityRepository {
	return &gormActivityRepository{db: db}
}

func preloadParticipants(db *gorm.DB) *gorm.DB {
	return db.Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

func (r *gormActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	row := newActivityRow(activity)
	return translate(r.db.WithContext(ctx).Create(&row).Error, "activityRepo.Create")
}

func (r *gormActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	var row activityRow
	if err := preloadParticipants(r.db.WithContext(ctx)).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, translate(err, "activityRepo.FindByID")
	}
	activity := row.toModel()
	return &activity, nil
}

func (r *gormActivityRepository) List(ctx context.Context, filter ActivityFilter) ([]models.Activity, int64, error) {
	db := r.db.WithContext(ctx)
	q := db.Model(&activityRow{})

	if len(filter.Categories) > 0 {
		cats := make([]string, 0, len(filter.Categories))
		for _, c := range filter.Categories {
			cats = append(cats, string(c))
		}
		q = q.Where("category IN ?", cats)
	}
	if filter.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}
	if filter.ParticipantID != "" {
		q = q.Where("id IN (?)", db.Model(&activityParticipantRow{}).Select("activity_id").Where("user_id = ?", filter.ParticipantID))
	}
	if filter.ExcludeParticipantID != "" {
		q = q.Where("id NOT IN (?)", db.Model(&activityParticipantRow{}).Select("activity_id").Where("user_id = ?", filter.ExcludeParticipantID))
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "activityRepo.List.Count")
	}

	page := q.Session(&gorm.Session{}).Order("created_at DESC")
	if filter.Limit > 0 {
		page = page.Limit(filter.Limit)
		if filter.Page > 1 {
			page = page.Offset((filter.Page - 1) * filter.Limit)
		}
	}

	var rows []activityRow
	if err := preloadParticipants(page).Find(&rows).Error; err != nil {
		return nil, 0, translate(err, "activityRepo.List")
	}

	activities := make([]models.Activity, 0, len(rows))
	for i := range rows {
		activities = append(activities, rows[i].toModel())
	}
	return activities, total, nil
}

func (r *gormActivityRepository) Save(ctx context.Context, activity *models.Activity) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&activityRow{}).
			Where("id = ? AND revision = ?", activity.ID, activity.Revision).
			Updates(map[string]interface{}{
				"name":             activity.Name,
				"description":      activity.Description,
				"category":         string(activity.Category),
				"location":         activity.Location,
				"image":            activity.Image,
				"max_participants": activity.MaxParticipants,
				"start_time":       activity.StartTime,
				"end_time":         activity.EndTime,
				"is_active":        activity.IsActive,
				"revision":         activity.Revision + 1,
				"updated_at":       now,
			})
		if res.Error != nil {
			return translate(res.Error, "activityRepo.Save")
		}
		if res.RowsAffected == 0 {
			if err := checkAffected(tx, res, &activityRow{}, activity.ID); err != nil {
				return err
			}
			return ErrConflict
		}

		if err := tx.Where("activity_id = ?", activity.ID).Delete(&activityParticipantRow{}).Error; err != nil {
			return translate(err, "activityRepo.Save.Participants")
		}
		if rows := participantRows(activity.ID, activity.Participants); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return translate(err, "activityRepo.Save.Participants")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	activity.Revision++
	activity.UpdatedAt = now
	return nil
}

func (r *gormActivityRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("activity_id = ?", id).Delete(&activityParticipantRow{}).Error; err != nil {
			return translate(err, "activityRepo.Delete.Participants")
		}
		res := tx.Where("id = ?", id).Delete(&activityRow{})
		if res.Error != nil {
			return translate(res.Error, "activityRepo.Delete")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
