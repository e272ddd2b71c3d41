package domain

import (
	"time"

	"github.com/google/uuid"
)

// Каталог курсов. Иерархия: курс -> модули -> уроки.
type Course struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title       string    `gorm:"index" json:"title"`
	Description string    `json:"description"`
	Category    string    `gorm:"index" json:"category"`
	Level       string    `json:"level"` // "beginner", "intermediate", "advanced"
	Duration    string    `json:"duration"`
	CoverURL    string    `json:"coverUrl"`

	Modules []Module `gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE;" json:"modules"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Module struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;index" json:"courseId"`
	Title    string    `json:"title"`
	Order    int       `json:"order"` // Для сортировки (1, 2, 3...)

	Lessons []Lesson `gorm:"foreignKey:ModuleID;constraint:OnDelete:CASCADE;" json:"lessons"`

	CreatedAt time.Time `json:"createdAt"`
}

type Lesson struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ModuleID    uuid.UUID `gorm:"type:uuid;index" json:"moduleId"`
	CourseID    uuid.UUID `gorm:"type:uuid;index" json:"courseId"`
	Title       string    `json:"title"`
	ContentLink string    `json:"contentLink"` // Ссылка на контент урока
	DurationSec int64     `json:"durationSec"`
	Order       int       `json:"order"`

	CreatedAt time.Time `json:"createdAt"`
}

// TotalLessons — количество уроков по всем модулям.
func (c *Course) TotalLessons() int {
	n := 0
	for i := range c.Modules {
		n += len(c.Modules[i].Lessons)
	}
	return n
}

// FindLesson ищет урок по его ID среди всех модулей курса.
func (c *Course) FindLesson(id LessonID) (*Lesson, bool) {
	for i := range c.Modules {
		for j := range c.Modules[i].Lessons {
			l := &c.Modules[i].Lessons[j]
			if LessonID(l.ID.String()) == id {
				return l, true
			}
		}
	}
	return nil, false
}
