package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/aravinth-krishna/learnit-scheduler/pkg/database"
)

// CourseRepo stores the courses and modules that feed the backlog
type CourseRepo struct {
	db *gorm.DB
}

func byModuleOrder(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).Order("id")
}

// List returns the user's courses with their modules in authored order
func (r *CourseRepo) List(ctx context.Context, userID uint) ([]database.Course, error) {
	var rows []database.Course
	err := r.db.WithContext(ctx).
		Preload("Modules", byModuleOrder).
		Where("user_id = ?", userID).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Get loads one course of the user with its modules
func (r *CourseRepo) Get(ctx context.Context, userID, courseID uint) (*database.Course, error) {
	var row database.Course
	err := r.db.WithContext(ctx).
		Preload("Modules", byModuleOrder).
		Where("user_id = ?", userID).
		First(&row, courseID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &row, nil
}

// Create inserts a course and any modules attached to it
func (r *CourseRepo) Create(ctx context.Context, c *database.Course) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// AddModule appends m to one of the user's courses. A zero Order places it
// after the course's last module.
func (r *CourseRepo) AddModule(ctx context.Context, userID, courseID uint, m *database.CourseModule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var course database.Course
		if err := tx.Where("user_id = ?", userID).First(&course, courseID).Error; err != nil {
			return notFound(err)
		}

		if m.Order == 0 {
			var last int
			err := tx.Model(&database.CourseModule{}).
				Where("course_id = ?", courseID).
				Select("COALESCE(MAX(?), 0)", clause.Column{Name: "order"}).
				Scan(&last).Error
			if err != nil {
				return err
			}
			m.Order = last + 1
		}

		m.CourseID = courseID
		return tx.Create(m).Error
	})
}
