package upgrade

import (
	"context"
	"eportfolio_grading/pkg/logger"
	"eportfolio_grading/pkg/monitoring"
	"eportfolio_grading/pkg/tracing"
	"sort"

	pkgerrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Step 一个带版本号的 schema 变更，Apply 必须可重复执行
type Step struct {
	Version int64
	Name    string
	Apply   func(m gorm.Migrator) error
}

// Provisioner 按版本顺序执行升级步骤，每步成功后写入 savepoint
type Provisioner struct {
	DB    *gorm.DB
	Store VersionStore
	steps []Step
}

func NewProvisioner(db *gorm.DB, store VersionStore, steps ...Step) *Provisioner {
	if len(steps) == 0 {
		steps = DefaultSteps()
	}
	sorted := make([]Step, len(steps))
	copy(sorted, steps)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	return &Provisioner{DB: db, Store: store, steps: sorted}
}

// LatestVersion 最高的步骤版本
func (p *Provisioner) LatestVersion() int64 {
	if len(p.steps) == 0 {
		return 0
	}
	return p.steps[len(p.steps)-1].Version
}

func (p *Provisioner) CurrentVersion(ctx context.Context) (int64, error) {
	return p.Store.Current(ctx)
}

// Run 读取已记录的版本并升级到最新
func (p *Provisioner) Run(ctx context.Context) (bool, error) {
	if s, ok := p.Store.(*PluginVersionStore); ok {
		if err := s.Ensure(ctx); err != nil {
			return false, err
		}
	}
	current, err := p.Store.Current(ctx)
	if err != nil {
		return false, err
	}
	return p.Upgrade(ctx, current)
}

// Upgrade 从 oldVersion 升级，只执行版本号严格大于当前记录的步骤。
// 某一步失败即停止，已写入的 savepoint 保留，下次从该处继续。
func (p *Provisioner) Upgrade(ctx context.Context, oldVersion int64) (bool, error) {
	ctx, span := tracing.Tracer.Start(ctx, "upgrade.Upgrade")
	defer span.End()
	span.SetAttributes(attribute.Int64("upgrade.old_version", oldVersion))

	current := oldVersion
	monitoring.SchemaVersion.Set(float64(current))

	for _, step := range p.steps {
		if step.Version <= current {
			continue
		}

		logger.Log.Info("Applying upgrade step",
			zap.Int64("version", step.Version),
			zap.String("step", step.Name))

		if err := step.Apply(p.DB.WithContext(ctx).Migrator()); err != nil {
			monitoring.UpgradeStepsTotal.WithLabelValues("failed").Inc()
			logger.Log.Error("Upgrade step failed",
				zap.Int64("version", step.Version),
				zap.Int64("savepoint", current),
				zap.Error(err))
			span.RecordError(err)
			return false, pkgerrors.Wrapf(err, "upgrade step %d (%s)", step.Version, step.Name)
		}

		if err := p.Store.Save(ctx, step.Version); err != nil {
			monitoring.UpgradeStepsTotal.WithLabelValues("failed").Inc()
			span.RecordError(err)
			return false, pkgerrors.Wrapf(err, "savepoint %d", step.Version)
		}

		current = step.Version
		monitoring.UpgradeStepsTotal.WithLabelValues("applied").Inc()
		monitoring.SchemaVersion.Set(float64(current))
	}

	span.SetAttributes(attribute.Int64("upgrade.new_version", current))
	return true, nil
}
