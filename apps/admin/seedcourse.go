package main

import (
	"context"
	"time"

	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

// seedCourse loads the default course plus demo accounts. Safe to run more
// than once; an already-seeded course is left alone.
func (cli *commandLine) seedCourse() error {
	ctx := context.Background()

	exists, err := cli.courseRepo.CourseExists(ctx, cli.conf.DefaultCourseID)
	if err != nil {
		return err
	}
	if !exists {
		if _, err = cli.courseRepo.CreateCourse(ctx, defaultCourse(cli.conf.DefaultCourseID)); err != nil {
			return err
		}
		logger.Println("Seeded course.")
	}

	seedUsers := []struct {
		name             string
		email            string
		role             string
		completedLessons []string
	}{
		{name: "Admin User", email: "admin@magellan.com", role: user.RoleAdmin},
		{name: "Student User", email: "student@magellan.com", role: user.RoleStudent, completedLessons: []string{"l1-1"}},
		{name: "Jane Doe", email: "jane.doe@example.com", role: user.RoleStudent},
	}
	for _, su := range seedUsers {
		usr, err := cli.usrRepo.GetUserByEmail(ctx, su.email)
		if err == nil {
			continue // already seeded
		}
		if err != user.ErrNotFound {
			return err
		}

		now := time.Now().UTC()
		usr = user.User{
			Name:      su.name,
			Email:     su.email,
			Role:      su.role,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword("password123"); err != nil {
			return err
		}
		if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return err
		}

		if usr.IsStudent() {
			if _, err = cli.progressRepo.EnsureProgress(ctx, usr.ID, cli.conf.DefaultCourseID); err != nil {
				return err
			}
			for _, lessonID := range su.completedLessons {
				if _, err = cli.progressRepo.AddCompletedLesson(ctx, usr.ID, cli.conf.DefaultCourseID, lessonID); err != nil {
					return err
				}
			}
		}
	}
	logger.Println("Seeded users.")
	return nil
}

func defaultCourse(id string) course.Course {
	now := time.Now().UTC()
	return course.Course{
		ID:    id,
		Title: "Master Oil & Gas Exploration: From Core to Crust",
		Description: "An in-depth journey into the world of oil and gas exploration, covering everything " +
			"from geological fundamentals to advanced extraction techniques.",
		CreatedAt: now,
		UpdatedAt: now,
		Modules: []course.Module{
			{
				ID:       "m1",
				Title:    "Module 1: Geological Fundamentals",
				Position: 1,
				Lessons: []course.Lesson{
					{
						ID:       "l1-1",
						Title:    "Introduction to Sedimentary Basins",
						VideoURL: "https://www.youtube.com/watch?v=f47_eD-0_wA",
						Position: 1,
						Resources: []course.Resource{
							{ID: "r1", Name: "Lesson 1 Script.pdf", URL: "#"},
						},
					},
					{
						ID:       "l1-2",
						Title:    "Source Rock and Hydrocarbon Generation",
						VideoURL: "https://placehold.co/1920x1080",
						Position: 2,
						Resources: []course.Resource{
							{ID: "r2", Name: "Source Rock Data.zip", URL: "#"},
						},
					},
				},
			},
			{
				ID:       "m2",
				Title:    "Module 2: Seismic Interpretation",
				Position: 2,
				Lessons: []course.Lesson{
					{
						ID:       "l2-1",
						Title:    "Basics of Seismic Reflection",
						VideoURL: "https://placehold.co/1920x1080",
						Position: 3,
					},
					{
						ID:       "l2-2",
						Title:    "Structural Traps and Fault Analysis",
						VideoURL: "https://placehold.co/1920x1080",
						Position: 4,
						Resources: []course.Resource{
							{ID: "r3", Name: "Trap Analysis Worksheet.pdf", URL: "#"},
							{ID: "r4", Name: "Example Seismic Data.csv", URL: "#"},
						},
					},
					{
						ID:       "l2-3",
						Title:    "Stratigraphic Traps",
						VideoURL: "https://placehold.co/1920x1080",
						Position: 5,
					},
				},
			},
			{
				ID:       "m3",
				Title:    "Module 3: Well Logging & Formation Evaluation",
				Position: 3,
				Lessons: []course.Lesson{
					{
						ID:       "l3-1",
						Title:    "Introduction to Well Logging",
						VideoURL: "https://placehold.co/1920x1080",
						Position: 6,
						Resources: []course.Resource{
							{ID: "r5", Name: "Logging Tools Overview.pdf", URL: "#"},
						},
					},
					{
						ID:       "l3-2",
						Title:    "Reservoir Characterization",
						VideoURL: "https://placehold.co/1920x1080",
						Position: 7,
					},
				},
			},
		},
	}
}
