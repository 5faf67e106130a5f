package upgrade

import (
	"context"
	"errors"
	"sort"
	"testing"

	"eportfolio_grading/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func fixtureDb(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	return db
}

func fixtureProvisioner(t *testing.T, db *gorm.DB, steps ...Step) *Provisioner {
	store := NewPluginVersionStore(db, model.Component)
	require.NoError(t, store.Ensure(context.Background()))
	return NewProvisioner(db, store, steps...)
}

func columnNames(t *testing.T, db *gorm.DB, table interface{}) []string {
	types, err := db.Migrator().ColumnTypes(table)
	require.NoError(t, err)
	var names []string
	for _, ct := range types {
		names = append(names, ct.Name())
	}
	sort.Strings(names)
	return names
}

func TestUpgradeFrom2023080301(t *testing.T) {
	ctx := context.Background()
	db := fixtureDb(t)
	p := fixtureProvisioner(t, db)

	// 2023080301 已应用：eportfolio 表已含 duedate 与 grade
	require.NoError(t, addInstanceGradeFields(db.Migrator()))
	require.NoError(t, p.Store.Save(ctx, Version2023080301))

	ok, err := p.Upgrade(ctx, Version2023080301)
	require.NoError(t, err)
	assert.True(t, ok)

	m := db.Migrator()
	assert.True(t, m.HasTable(&model.GradingRecord{}))
	assert.True(t, m.HasColumn(&model.GradingRecord{}, "itemid"))
	assert.True(t, m.HasColumn(&model.GradingRecord{}, "feedbacktext"))
	assert.True(t, m.HasIndex(&model.GradingRecord{}, model.GradingRecordTripleIndex))

	version, err := p.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, Version2023080304, version)
	assert.Equal(t, Version2023080304, p.LatestVersion())
}

func TestUpgradeFromScratch(t *testing.T) {
	ctx := context.Background()
	db := fixtureDb(t)
	p := fixtureProvisioner(t, db)

	ok, err := p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	m := db.Migrator()
	assert.True(t, m.HasColumn(&model.ActivityInstance{}, "duedate"))
	assert.True(t, m.HasColumn(&model.ActivityInstance{}, "grade"))
	assert.True(t, m.HasColumn(&model.GradingRecord{}, "itemid"))

	version, err := p.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, Version2023080304, version)

	// 升级后的表可以直接按模型读写
	record := model.GradingRecord{Instance: 1, CourseID: 2, CMID: 5, ItemID: 42, UserID: 9, GraderID: 3, Grade: 80, FeedbackText: "Good"}
	require.NoError(t, db.Create(&record).Error)
	duplicate := record
	duplicate.ID = 0
	err = db.Create(&duplicate).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUpgradeIsIdempotent(t *testing.T) {
	ctx := context.Background()

	// 两个库都处于 2023080301 已应用的状态
	once := fixtureDb(t)
	require.NoError(t, addInstanceGradeFields(once.Migrator()))
	p1 := fixtureProvisioner(t, once)
	_, err := p1.Upgrade(ctx, Version2023080301)
	require.NoError(t, err)

	twice := fixtureDb(t)
	require.NoError(t, addInstanceGradeFields(twice.Migrator()))
	p2 := fixtureProvisioner(t, twice)
	_, err = p2.Upgrade(ctx, Version2023080301)
	require.NoError(t, err)
	ok, err := p2.Upgrade(ctx, Version2023080301)
	require.NoError(t, err)
	assert.True(t, ok)

	// 每一步的变更在目标已存在时再次执行也不报错
	for _, step := range DefaultSteps() {
		require.NoError(t, step.Apply(twice.Migrator()), "step %d", step.Version)
	}

	assert.Equal(t, columnNames(t, once, &model.GradingRecord{}), columnNames(t, twice, &model.GradingRecord{}))
	assert.Equal(t, columnNames(t, once, &model.ActivityInstance{}), columnNames(t, twice, &model.ActivityInstance{}))

	v1, err := p1.CurrentVersion(ctx)
	require.NoError(t, err)
	v2, err := p2.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestUpgradeSkipsAppliedSteps(t *testing.T) {
	ctx := context.Background()
	db := fixtureDb(t)

	var applied []int64
	step := func(v int64) Step {
		return Step{Version: v, Name: "noop", Apply: func(gorm.Migrator) error {
			applied = append(applied, v)
			return nil
		}}
	}

	// 乱序传入也按版本升序执行
	p := fixtureProvisioner(t, db, step(3), step(1), step(2))

	ok, err := p.Upgrade(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []int64{2, 3}, applied)

	version, err := p.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, version)
}

func TestUpgradeResumesFromSavepoint(t *testing.T) {
	ctx := context.Background()
	db := fixtureDb(t)

	calls := map[int64]int{}
	broken := true
	steps := []Step{
		{Version: 10, Name: "first", Apply: func(gorm.Migrator) error { calls[10]++; return nil }},
		{Version: 20, Name: "second", Apply: func(gorm.Migrator) error {
			calls[20]++
			if broken {
				return errors.New("disk full")
			}
			return nil
		}},
		{Version: 30, Name: "third", Apply: func(gorm.Migrator) error { calls[30]++; return nil }},
	}
	p := fixtureProvisioner(t, db, steps...)

	ok, err := p.Run(ctx)
	assert.False(t, ok)
	assert.ErrorContains(t, err, "upgrade step 20")

	version, err := p.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 10, version)
	assert.Equal(t, 0, calls[30])

	broken = false
	ok, err = p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, calls[10])
	assert.Equal(t, 2, calls[20])
	assert.Equal(t, 1, calls[30])

	version, err = p.CurrentVersion(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 30, version)
}

func TestVersionStoreNeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	db := fixtureDb(t)
	store := NewPluginVersionStore(db, model.Component)
	require.NoError(t, store.Ensure(ctx))

	v, err := store.Current(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, v)

	require.NoError(t, store.Save(ctx, Version2023080303))
	require.NoError(t, store.Save(ctx, Version2023080302))

	v, err = store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, Version2023080303, v)

	var count int64
	require.NoError(t, db.Model(&model.PluginConfig{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
