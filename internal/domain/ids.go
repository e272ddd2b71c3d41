package domain

// Отдельные типы для каждого вида ID, чтобы не перепутать их между собой.
// Сами значения — непрозрачные строки из каталога и auth-слоя.
type (
	UserID   string
	CourseID string
	ModuleID string
	LessonID string
)

func (id UserID) String() string   { return string(id) }
func (id CourseID) String() string { return string(id) }
func (id ModuleID) String() string { return string(id) }
func (id LessonID) String() string { return string(id) }
