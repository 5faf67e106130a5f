package service

import (
	"testing"

	"eportfolio_grading/internal/lang"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderOverview(t *testing.T) {
	f := newFixture(t)
	f.submit(t, f.student, "journal.h5p")
	renderer, err := NewRenderService()
	require.NoError(t, err)

	overview, err := f.overview.Build(f.ctx, f.viewer(f.teacher), f.mc, "", "")
	require.NoError(t, err)

	out, err := renderer.RenderString("overview", OverviewPage{
		T:        lang.For("en"),
		Title:    f.mc.Instance.Name,
		Overview: overview,
		NextDir:  "asc",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "<title>ePortfolio Grading</title>")
	assert.Contains(t, out, "journal.h5p")
	assert.Contains(t, out, "Sam Student")
	assert.Contains(t, out, GradeNotGraded)
	assert.Contains(t, out, "Add grading")
	assert.Contains(t, out, "Allow new submission")
	assert.Contains(t, out, "dir=asc")
}

func TestRenderOverviewEmpty(t *testing.T) {
	renderer, err := NewRenderService()
	require.NoError(t, err)

	out, err := renderer.RenderString("overview", OverviewPage{
		T:        lang.For("de"),
		Overview: &Overview{},
		Notice:   "Gespeichert",
		Success:  true,
	})
	require.NoError(t, err)
	assert.Contains(t, out, lang.Get("de", "overview:empty", nil))
	assert.Contains(t, out, `class="alert alert-success"`)
	assert.NotContains(t, out, "<table")
}

func TestRenderConfirmEscapesOnlyUserData(t *testing.T) {
	f := newFixture(t)
	file := f.submit(t, f.student, "<b>journal.h5p")
	renderer, err := NewRenderService()
	require.NoError(t, err)

	prompt, err := f.withdrawals.Request(f.ctx, f.viewer(f.teacher), f.mc.CM.ID, file.ID, f.student.ID)
	require.NoError(t, err)

	out, err := renderer.RenderString("confirm_delete", ConfirmPage{
		T:         lang.For("en"),
		Prompt:    prompt,
		ActionURL: "/mod/eportfolio/view?id=1&action=delete",
		CancelURL: "/mod/eportfolio/view?id=1",
	})
	require.NoError(t, err)
	assert.Contains(t, out, `name="token" value="`+prompt.Token+`"`)
	assert.Contains(t, out, "<b>Do you really want to allow a new submission for this file?</b>")
	assert.NotContains(t, out, "<b>journal")
	assert.Contains(t, out, "&lt;b&gt;journal.h5p")
}

func TestRenderView(t *testing.T) {
	f := newFixture(t)
	file := gradedSubmission(t, f)
	renderer, err := NewRenderService()
	require.NoError(t, err)

	detail, err := f.grading.Detail(f.ctx, f.viewer(f.student), f.mc.CM.ID, file.ID, f.student.ID)
	require.NoError(t, err)

	out, err := renderer.RenderString("view", ViewPage{T: lang.For("en"), Detail: detail, FileURL: "/files/1", BackURL: "/back"})
	require.NoError(t, err)
	assert.Contains(t, out, `<dd class="grade">40 %</dd>`)
	assert.Contains(t, out, "Tina Teacher")
}
