package services

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type TagServiceTestSuite struct {
	serviceSuite
	tags       *TagService
	categories *CategoryService
}

func TestTagServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TagServiceTestSuite))
}

func (s *TagServiceTestSuite) SetupTest() {
	s.serviceSuite.SetupTest()
	s.tags = NewTagService(s.repos)
	s.categories = NewCategoryService(s.repos)
}

func (s *TagServiceTestSuite) TestCreateTag() {
	user := s.createUser("alice")

	tag, err := s.tags.Create(s.ctx, user, TagInput{Name: ptr(" urgent "), Color: ptr("#FF0000")})
	s.Require().NoError(err)
	s.Equal("urgent", tag.Name)
	s.Equal("#ff0000", tag.Color)

	_, err = s.tags.Create(s.ctx, user, TagInput{Name: ptr("urgent")})
	s.ErrorIs(err, ErrDuplicateName)

	_, err = s.tags.Create(s.ctx, user, TagInput{Name: ptr("x"), Color: ptr("red")})
	s.requireField(err, "color")

	_, err = s.tags.Create(s.ctx, user, TagInput{})
	s.requireField(err, "name")
}

func (s *TagServiceTestSuite) TestTagsArePrivate() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")
	tag, err := s.tags.Create(s.ctx, alice, TagInput{Name: ptr("urgent")})
	s.Require().NoError(err)

	_, err = s.tags.Update(s.ctx, bob, tag.ID, TagInput{Name: ptr("mine")})
	s.ErrorIs(err, ErrTagNotFound)
	s.ErrorIs(s.tags.Delete(s.ctx, bob, tag.ID), ErrTagNotFound)

	listed, err := s.tags.List(s.ctx, bob)
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *TagServiceTestSuite) TestDeleteTagDetachesTasks() {
	user := s.createUser("alice")
	tag, err := s.tags.Create(s.ctx, user, TagInput{Name: ptr("urgent")})
	s.Require().NoError(err)
	tasks := s.taskService()
	task, err := tasks.CreateTask(s.ctx, user, CreateTaskInput{Title: "t", TagIDs: []uint64{tag.ID}})
	s.Require().NoError(err)
	s.Len(task.Tags, 1)

	s.Require().NoError(s.tags.Delete(s.ctx, user, tag.ID))

	got, err := tasks.GetTask(s.ctx, user, task.ID)
	s.Require().NoError(err)
	s.Empty(got.Tags)
}

func (s *TagServiceTestSuite) TestCategories() {
	alice := s.createUser("alice")
	bob := s.createUser("bob")

	category, err := s.categories.Create(s.ctx, alice, CategoryInput{Name: ptr("Work"), Icon: ptr(" briefcase ")})
	s.Require().NoError(err)
	s.Equal("briefcase", category.Icon)

	updated, err := s.categories.Update(s.ctx, alice, category.ID, CategoryInput{Description: ptr("day job")})
	s.Require().NoError(err)
	s.Equal("day job", updated.Description)

	_, err = s.categories.Update(s.ctx, bob, category.ID, CategoryInput{Name: ptr("stolen")})
	s.ErrorIs(err, ErrCategoryNotFound)

	// Deleting a category keeps its projects.
	project, err := s.projectService().CreateProject(s.ctx, alice, CreateProjectInput{Name: "p", CategoryID: &category.ID})
	s.Require().NoError(err)
	s.Require().NoError(s.categories.Delete(s.ctx, alice, category.ID))

	detail, err := s.projectService().GetProject(s.ctx, alice, project.Project.ID)
	s.Require().NoError(err)
	s.Nil(detail.Project.CategoryID)
}
