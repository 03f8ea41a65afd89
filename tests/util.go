// Package testutil carries fixture helpers shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/upskillhq/upskill/core/course"
	"github.com/upskillhq/upskill/core/team"
	"github.com/upskillhq/upskill/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	first, last, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		FirstName: first,
		LastName:  last,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	title, status, createdBy string,
) course.Course {
	t.Helper()

	now := time.Now().UTC()
	crs := course.Course{
		Title:       title,
		Description: "test course",
		Status:      status,
		Level:       course.LevelBeginner,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateTeam(t *testing.T, repo team.Repository, name string, managerID *string) team.Team {
	t.Helper()

	now := time.Now().UTC()
	tm, err := repo.CreateTeam(context.Background(), team.Team{
		Name:      name,
		ManagerID: managerID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTeam() failed: %v", err)
	}
	return tm
}
