package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"eportfolio_grading/internal/config"
	"eportfolio_grading/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemDetailsFor(t *testing.T) {
	value := ItemDetailsFor(&model.ActivityInstance{Name: "A", Grade: 40}, false)
	assert.Equal(t, model.GradeTypeValue, value.GradeType)
	assert.InDelta(t, 40.0, value.GradeMax, 0.001)
	assert.InDelta(t, 0.0, value.GradeMin, 0.001)

	scale := ItemDetailsFor(&model.ActivityInstance{Name: "B", Grade: -7}, true)
	assert.Equal(t, model.GradeTypeScale, scale.GradeType)
	assert.EqualValues(t, 7, scale.ScaleID)
	assert.True(t, scale.Reset)

	none := ItemDetailsFor(&model.ActivityInstance{Name: "C"}, false)
	assert.Equal(t, model.GradeTypeNone, none.GradeType)
}

type countingGradebook struct {
	published []map[uint]float64
}

func (g *countingGradebook) Name() string { return "counting" }

func (g *countingGradebook) UpdateItem(ctx context.Context, instance *model.ActivityInstance, cmID uint, details GradeItemDetails) error {
	return nil
}

func (g *countingGradebook) PublishGrades(ctx context.Context, instance *model.ActivityInstance, cmID uint, grades map[uint]float64) error {
	g.published = append(g.published, grades)
	return nil
}

func (g *countingGradebook) DeleteItem(ctx context.Context, instance *model.ActivityInstance, cmID uint) error {
	return nil
}

func TestPushGradeScalesPercent(t *testing.T) {
	provider := &countingGradebook{}
	svc := NewGradebookService(provider)
	ctx := context.Background()

	require.NoError(t, svc.PushGrade(ctx, &model.ActivityInstance{ID: 1, Grade: 20}, 3, 9, 75))
	require.Len(t, provider.published, 1)
	assert.InDelta(t, 15.0, provider.published[0][9], 0.001)

	// 量表和不计分的实例不推送
	require.NoError(t, svc.PushGrade(ctx, &model.ActivityInstance{ID: 2, Grade: -4}, 3, 9, 75))
	require.NoError(t, svc.PushGrade(ctx, &model.ActivityInstance{ID: 3}, 3, 9, 75))
	assert.Len(t, provider.published, 1)
}

func TestLocalGradebookResetsGrades(t *testing.T) {
	f := newFixture(t)
	provider := f.gradebook.Provider.(*LocalGradebookProvider)

	require.NoError(t, f.gradebook.PushGrade(f.ctx, f.mc.Instance, f.mc.CM.ID, f.student.ID, 50))
	require.NoError(t, f.gradebook.PushGrade(f.ctx, f.mc.Instance, f.mc.CM.ID, f.student.ID, 60))
	assert.EqualValues(t, 1, f.count(t, &model.GradeGrade{}))

	item, err := provider.Repo.FindItem(f.ctx, f.course.ID, f.mc.Instance.ID)
	require.NoError(t, err)
	grade, err := provider.Repo.FindGrade(f.ctx, item.ID, f.student.ID)
	require.NoError(t, err)
	assert.InDelta(t, 60.0, *grade.FinalGrade, 0.001)

	require.NoError(t, f.gradebook.UpdateItem(f.ctx, f.mc.Instance, f.mc.CM.ID, true))
	assert.EqualValues(t, 0, f.count(t, &model.GradeGrade{}))
}

func TestMoodleGradebookPostsWebServiceCall(t *testing.T) {
	var mu sync.Mutex
	var forms []map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form := map[string]string{"path": r.URL.Path}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		mu.Lock()
		forms = append(forms, form)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if form["courseid"] == "13" {
			w.Write([]byte(`{"exception":"moodle_exception","errorcode":"invalidcourse","message":"Invalid course"}`))
			return
		}
		w.Write([]byte(`0`))
	}))
	defer server.Close()

	provider := NewMoodleGradebookProvider(&config.GradebookConfig{
		Provider:  "moodle",
		MoodleURL: server.URL + "/",
		Token:     "secret-token",
		Timeout:   5 * time.Second,
	})
	ctx := context.Background()
	instance := &model.ActivityInstance{ID: 4, Course: 12, Name: "Portfolio", Grade: 100}

	require.NoError(t, provider.PublishGrades(ctx, instance, 21, map[uint]float64{9: 85}))
	require.Len(t, forms, 1)
	form := forms[0]
	assert.Equal(t, "/webservice/rest/server.php", form["path"])
	assert.Equal(t, "secret-token", form["wstoken"])
	assert.Equal(t, "core_grades_update_grades", form["wsfunction"])
	assert.Equal(t, "mod/eportfolio", form["source"])
	assert.Equal(t, "12", form["courseid"])
	assert.Equal(t, "21", form["activityid"])
	assert.Equal(t, "9", form["grades[0][studentid]"])
	assert.Equal(t, "85", form["grades[0][grade]"])

	require.NoError(t, provider.UpdateItem(ctx, instance, 21, ItemDetailsFor(instance, false)))
	assert.Equal(t, "100", forms[1]["itemdetails[grademax]"])

	err := provider.DeleteItem(ctx, &model.ActivityInstance{ID: 5, Course: 13}, 22)
	assert.ErrorContains(t, err, "invalidcourse")
}
