package service

import (
	"context"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/repository"
)

const latestLimit = 10

// AdminService сводка для панели администратора
type AdminService interface {
	Snapshot(ctx context.Context, identity domain.Identity) (*domain.AdminReport, error)
}

// Admin реализация AdminService
type Admin struct {
	access   AccessService
	accounts repository.AccountRepository
	listings repository.ListingRepository
	tips     repository.TipRepository
	now      func() time.Time
}

// NewAdminService создает сервис сводки
func NewAdminService(
	access AccessService,
	accounts repository.AccountRepository,
	listings repository.ListingRepository,
	tips repository.TipRepository,
	now func() time.Time,
) *Admin {
	return &Admin{access: access, accounts: accounts, listings: listings, tips: tips, now: clock(now)}
}

// Snapshot собирает сводку по текущему состоянию хранилища
func (s *Admin) Snapshot(ctx context.Context, identity domain.Identity) (*domain.AdminReport, error) {
	if err := s.access.RequireAdmin(identity); err != nil {
		return nil, err
	}

	report := &domain.AdminReport{GeneratedAt: s.now()}
	var err error

	if report.TotalUsers, err = s.accounts.Count(ctx); err != nil {
		return nil, err
	}
	if report.TotalListings, err = s.listings.Count(ctx, domain.ListingFilter{}); err != nil {
		return nil, err
	}
	if report.TotalCompletedTipAmount, err = s.tips.SumAmount(ctx, domain.TipFilter{Status: domain.TipCompleted}); err != nil {
		return nil, err
	}
	if report.LatestUsers, err = s.accounts.FindLatest(ctx, latestLimit); err != nil {
		return nil, err
	}
	if report.LatestListings, err = s.listings.FindLatest(ctx, latestLimit); err != nil {
		return nil, err
	}
	if report.LatestTips, err = s.tips.FindLatest(ctx, latestLimit); err != nil {
		return nil, err
	}

	return report, nil
}
