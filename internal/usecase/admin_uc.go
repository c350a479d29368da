// File: internal/usecase/admin_uc.go
package usecase

import (
	"context"

	"counseling-platform/internal/domain/model"
	"counseling-platform/internal/domain/ports/repository"
)

// Compile-time check
var _ AdminService = (*adminUC)(nil)

// AdminService is the read-only reconciliation surface: every purchase with
// user display fields joined, plus paid revenue totals.
type AdminService interface {
	ListPayments(ctx context.Context) ([]*model.PurchaseRecord, error)
	Revenue(ctx context.Context) (week, month, year int64, err error)
}

type adminUC struct {
	purchases repository.PurchaseRepository
}

func NewAdminService(purchases repository.PurchaseRepository) *adminUC {
	return &adminUC{purchases: purchases}
}

func (u *adminUC) ListPayments(ctx context.Context) ([]*model.PurchaseRecord, error) {
	return u.purchases.ListWithUsers(ctx, nil)
}

func (u *adminUC) Revenue(ctx context.Context) (week, month, year int64, err error) {
	if week, err = u.purchases.SumPaidByPeriod(ctx, nil, "week"); err != nil {
		return 0, 0, 0, err
	}
	if month, err = u.purchases.SumPaidByPeriod(ctx, nil, "month"); err != nil {
		return 0, 0, 0, err
	}
	if year, err = u.purchases.SumPaidByPeriod(ctx, nil, "year"); err != nil {
		return 0, 0, 0, err
	}
	return week, month, year, nil
}
