package domain

import "github.com/google/uuid"

func courseFixture() *Course {
	courseID := uuid.New()
	m1 := Module{ID: uuid.New(), CourseID: courseID, Title: "Basics", Order: 1}
	m1.Lessons = []Lesson{
		{ID: uuid.New(), ModuleID: m1.ID, CourseID: courseID, Title: "Intro", Order: 1},
		{ID: uuid.New(), ModuleID: m1.ID, CourseID: courseID, Title: "Setup", Order: 2},
	}
	m2 := Module{ID: uuid.New(), CourseID: courseID, Title: "Advanced", Order: 2}
	m2.Lessons = []Lesson{
		{ID: uuid.New(), ModuleID: m2.ID, CourseID: courseID, Title: "Deep dive", Order: 1},
	}
	return &Course{
		ID:       courseID,
		Title:    "Go from scratch",
		Category: "programming",
		Modules:  []Module{m1, m2},
	}
}
