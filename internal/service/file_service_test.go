package service

import (
	"io"
	"strings"
	"testing"

	"eportfolio_grading/internal/model"
	"eportfolio_grading/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsNonH5P(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.files.Store(f.ctx, StoreInput{
		CourseID: f.course.ID, CMID: f.mc.CM.ID, UserID: f.student.ID,
		Filename: "journal.pdf", Reader: strings.NewReader("%PDF"),
	})
	assert.ErrorIs(t, err, util.ErrInvalidFileType)
	assert.EqualValues(t, 0, f.count(t, &model.SubmissionFile{}))
}

func TestStoreRegistersFileAndShare(t *testing.T) {
	f := newFixture(t)

	file, share, err := f.files.Store(f.ctx, StoreInput{
		CourseID: f.course.ID, CMID: f.mc.CM.ID, UserID: f.student.ID,
		Filename: "../../journal.h5p", Title: "My journal", Size: 7, Reader: strings.NewReader("content"),
	})
	require.NoError(t, err)
	assert.Equal(t, "journal.h5p", file.Filename)
	assert.Equal(t, f.mc.CM.ID, file.ContextID)
	assert.Equal(t, f.student.ID, file.ItemID)
	assert.Equal(t, util.MimeH5P, file.MimeType)
	assert.Equal(t, model.PathnameHash(file.ContextID, model.Component, model.FileAreaEPortfolio, file.ItemID, "/", "journal.h5p"), file.PathnameHash)

	assert.Equal(t, model.ShareOptionGrade, share.ShareOption)
	assert.Equal(t, file.ID, share.FileIDContext)
	assert.Equal(t, f.mc.CM.ID, share.CMID)

	reader, err := f.files.Open(f.ctx, file)
	require.NoError(t, err)
	defer reader.Close()
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))
}

func TestResolvePrefersH5PTimestamps(t *testing.T) {
	f := newFixture(t)
	file := f.submit(t, f.student, "journal.h5p")
	require.NoError(t, f.db.Model(&model.H5PContent{}).
		Where("pathnamehash = ?", file.PathnameHash).
		Updates(map[string]interface{}{"timecreated": 1000, "timemodified": 2000, "title": "Reflections"}).Error)

	resolved, err := f.files.Resolve(f.ctx, file.ID)
	require.NoError(t, err)
	require.NotNil(t, resolved.H5P)
	assert.EqualValues(t, 1000, resolved.TimeCreated)
	assert.EqualValues(t, 2000, resolved.TimeModified)
	assert.Equal(t, "Reflections", resolved.Title)
}

func TestResolveWithoutH5P(t *testing.T) {
	f := newFixture(t)
	file := f.submit(t, f.student, "journal.h5p")
	require.NoError(t, f.db.Where("pathnamehash = ?", file.PathnameHash).Delete(&model.H5PContent{}).Error)

	resolved, err := f.files.Resolve(f.ctx, file.ID)
	require.NoError(t, err)
	assert.Nil(t, resolved.H5P)
	assert.Equal(t, "journal.h5p", resolved.Title)
	assert.Equal(t, file.TimeModified, resolved.TimeModified)
}

func TestResolveSkipsDirectories(t *testing.T) {
	f := newFixture(t)
	dir := model.SubmissionFile{
		ContextID: f.mc.CM.ID, Component: model.Component, FileArea: model.FileAreaEPortfolio,
		FilePath: "/", Filename: model.DirectoryFilename,
		PathnameHash: model.PathnameHash(f.mc.CM.ID, model.Component, model.FileAreaEPortfolio, 0, "/", model.DirectoryFilename),
	}
	require.NoError(t, f.db.Create(&dir).Error)

	_, err := f.files.Resolve(f.ctx, dir.ID)
	assert.ErrorIs(t, err, util.ErrFileNotFound)

	_, err = f.files.Resolve(f.ctx, 999)
	assert.ErrorIs(t, err, util.ErrFileNotFound)
}

func TestDeleteBlobIgnoresMissingContent(t *testing.T) {
	f := newFixture(t)
	file := f.submit(t, f.student, "journal.h5p")

	f.files.DeleteBlob(f.ctx, file)
	f.files.DeleteBlob(f.ctx, file)
	f.files.DeleteBlob(f.ctx, nil)

	_, err := f.files.Open(f.ctx, file)
	assert.Error(t, err)
}
