package service

import (
	"testing"

	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddInstanceOnePerCourse(t *testing.T) {
	f := newFixture(t)

	_, err := f.instances.AddInstance(f.ctx, InstanceInput{Course: f.course.ID, Name: "Second"})
	assert.ErrorIs(t, err, util.ErrInstanceExists)
	assert.EqualValues(t, 1, f.count(t, &model.ActivityInstance{}))
	assert.EqualValues(t, 1, f.count(t, &model.CourseModule{}))
}

func TestAddInstanceUnknownCourse(t *testing.T) {
	f := newFixture(t)

	_, err := f.instances.AddInstance(f.ctx, InstanceInput{Course: 999, Name: "Lost"})
	assert.ErrorIs(t, err, util.ErrCourseNotFound)
}

func TestAddInstanceCreatesDueEventAndGradeItem(t *testing.T) {
	f := newFixture(t)
	course := model.Course{FullName: "Chemistry", ShortName: "CHEM", IsEPortfolio: true}
	require.NoError(t, f.db.Create(&course).Error)

	mc, err := f.instances.AddInstance(f.ctx, InstanceInput{Course: course.ID, Name: "Lab journal", DueDate: fixedNow, Grade: -3})
	require.NoError(t, err)
	assert.Equal(t, mc.Instance.ID, mc.CM.Instance)
	assert.Equal(t, model.ModuleName, mc.CM.ModuleName)

	events, err := f.instances.EventRepo.FindForInstance(f.ctx, mc.Instance.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, fixedNow, events[0].TimeStart)
	assert.Equal(t, model.EventTypeDue, events[0].EventType)

	item, err := f.gradebook.Provider.(*LocalGradebookProvider).Repo.FindItem(f.ctx, course.ID, mc.Instance.ID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, model.GradeTypeScale, item.GradeType)
	assert.EqualValues(t, 3, item.ScaleID)

	used, err := f.instances.InstanceRepo.ScaleUsed(f.ctx, mc.Instance.ID, 3)
	require.NoError(t, err)
	assert.True(t, used)
	used, err = f.instances.InstanceRepo.ScaleUsedAnywhere(f.ctx, 4)
	require.NoError(t, err)
	assert.False(t, used)
}

func TestUpdateInstanceSyncsDueEvent(t *testing.T) {
	f := newFixture(t)

	updated, err := f.instances.UpdateInstance(f.ctx, f.mc.Instance.ID, InstanceInput{Course: f.course.ID, Name: "Renamed", DueDate: fixedNow, Grade: 50})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.NotZero(t, updated.TimeModified)

	events, err := f.instances.EventRepo.FindForInstance(f.ctx, f.mc.Instance.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Renamed", events[0].Name)

	_, err = f.instances.UpdateInstance(f.ctx, f.mc.Instance.ID, InstanceInput{Course: f.course.ID, Name: "Renamed", Grade: 50})
	require.NoError(t, err)
	events, err = f.instances.EventRepo.FindForInstance(f.ctx, f.mc.Instance.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	item, err := f.gradebook.Provider.(*LocalGradebookProvider).Repo.FindItem(f.ctx, f.course.ID, f.mc.Instance.ID)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, item.GradeMax, 0.001)
}

func TestDeleteInstanceCascades(t *testing.T) {
	f := newFixture(t)
	file := gradedSubmission(t, f)
	_, err := f.instances.UpdateInstance(f.ctx, f.mc.Instance.ID, InstanceInput{Course: f.course.ID, Name: "Portfolio", DueDate: fixedNow, Grade: 100})
	require.NoError(t, err)

	// 其他课程的共享不受影响
	foreign := model.Share{UserID: f.student.ID, CourseID: f.course.ID + 1, CMID: 99, FileID: 1, FileIDContext: 1, ShareOption: model.ShareOptionGrade}
	require.NoError(t, f.db.Create(&foreign).Error)

	require.NoError(t, f.instances.DeleteInstance(f.ctx, f.mc.Instance.ID))

	assert.EqualValues(t, 0, f.count(t, &model.ActivityInstance{}))
	assert.EqualValues(t, 0, f.count(t, &model.CourseModule{}))
	assert.EqualValues(t, 0, f.count(t, &model.GradingRecord{}))
	assert.EqualValues(t, 0, f.count(t, &model.SubmissionFile{}))
	assert.EqualValues(t, 0, f.count(t, &model.H5PContent{}))
	assert.EqualValues(t, 0, f.count(t, &model.CalendarEvent{}))
	assert.EqualValues(t, 0, f.count(t, &model.GradeItem{}))
	assert.EqualValues(t, 0, f.count(t, &model.GradeGrade{}))
	assert.EqualValues(t, 1, f.count(t, &model.Share{}))

	_, err = f.storage.Open(f.ctx, file.ObjectKey)
	assert.Error(t, err)

	assert.ErrorIs(t, f.instances.DeleteInstance(f.ctx, f.mc.Instance.ID), util.ErrInstanceNotFound)
}

func TestResolveModule(t *testing.T) {
	f := newFixture(t)

	byCM, err := f.instances.ResolveModule(f.ctx, f.mc.CM.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, f.mc.Instance.ID, byCM.Instance.ID)
	assert.Equal(t, f.course.ID, byCM.Course.ID)

	byInstance, err := f.instances.ResolveModule(f.ctx, 0, f.mc.Instance.ID)
	require.NoError(t, err)
	assert.Equal(t, f.mc.CM.ID, byInstance.CM.ID)

	_, err = f.instances.ResolveModule(f.ctx, 999, 0)
	assert.ErrorIs(t, err, util.ErrCourseModuleNotFound)
	_, err = f.instances.ResolveModule(f.ctx, 0, 999)
	assert.ErrorIs(t, err, util.ErrInstanceNotFound)
	_, err = f.instances.ResolveModule(f.ctx, 0, 0)
	assert.ErrorIs(t, err, util.ErrCourseModuleNotFound)
}

func TestUninstall(t *testing.T) {
	f := newFixture(t)
	f.submit(t, f.student, "journal.h5p")
	f.submit(t, f.other, "essay.h5p")
	share := model.Share{UserID: f.student.ID, CourseID: f.course.ID, FileID: 1, FileIDContext: 1, ShareOption: model.ShareOptionShare}
	require.NoError(t, f.db.Create(&share).Error)

	require.NoError(t, f.instances.Uninstall(f.ctx))

	assert.EqualValues(t, 0, f.count(t, &model.H5PContent{}))
	assert.EqualValues(t, 1, f.count(t, &model.Share{}))
}
