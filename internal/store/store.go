package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"school-directory-backend/internal/model"
	"school-directory-backend/internal/validate"
)

// Store defines the interface for all database operations.
type Store interface {
	Create(ctx context.Context, in validate.Input, image string) (model.School, error)
	Get(ctx context.Context, id int64) (model.School, error)
	List(ctx context.Context) ([]model.School, error)
	Update(ctx context.Context, id int64, p validate.Patch, image *string) (model.School, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

// Create inserts a new school. The id and creation time are assigned here.
func (s *gormStore) Create(ctx context.Context, in validate.Input, image string) (model.School, error) {
	school := model.School{
		Name:      in.Name,
		Address:   in.Address,
		City:      in.City,
		State:     in.State,
		Contact:   in.Contact,
		EmailID:   in.EmailID,
		Image:     image,
		CreatedAt: s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&school).Error; err != nil {
		return model.School{}, fmt.Errorf("failed to create school: %w", err)
	}
	return school, nil
}

// Get returns the school with the given id.
func (s *gormStore) Get(ctx context.Context, id int64) (model.School, error) {
	var school model.School
	if err := s.db.WithContext(ctx).First(&school, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.School{}, ErrNotFound
		}
		return model.School{}, fmt.Errorf("failed to get school %d: %w", id, err)
	}
	return school, nil
}

// List returns every school, newest first. Ties on creation time are
// broken by id so the order is stable.
func (s *gormStore) List(ctx context.Context) ([]model.School, error) {
	schools := make([]model.School, 0)
	if err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&schools).Error; err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}
	return schools, nil
}

// Update writes only the supplied fields and returns the merged record.
// An empty patch with no image leaves the row untouched.
func (s *gormStore) Update(ctx context.Context, id int64, p validate.Patch, image *string) (model.School, error) {
	cols := patchColumns(p, image)
	if len(cols) == 0 {
		return s.Get(ctx, id)
	}

	var school model.School
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&school, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to load school %d: %w", id, err)
		}
		if err := tx.Model(&school).Updates(cols).Error; err != nil {
			return fmt.Errorf("failed to update school %d: %w", id, err)
		}
		applyPatch(&school, p, image)
		return nil
	})
	if err != nil {
		return model.School{}, err
	}
	return school, nil
}

// Delete removes the school with the given id.
func (s *gormStore) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.School{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete school %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
