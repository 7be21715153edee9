// Package schedule registers the marketplace's recurring tasks.
package schedule

import (
	"context"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/markethub/app/services"
	"github.com/shashiranjanraj/markethub/pkg/logger"
	"github.com/shashiranjanraj/markethub/pkg/schedule"
)

// ReconcileSales is the name of the task that repairs vendor total_sales.
const ReconcileSales = "vendors:reconcile-sales"

func Register(s *schedule.Scheduler, db *gorm.DB) error {
	admin := services.NewAdminService(db)
	return s.Hourly().Name(ReconcileSales).WithoutOverlapping().Run(func(ctx context.Context) error {
		changed, err := admin.ReconcileVendorSales(ctx)
		if err != nil {
			return err
		}
		logger.WithCtx(ctx).Info("schedule: vendor sales reconciled", "changed", changed)
		return nil
	})
}
