package service

import (
	"context"

	"clinicflow/internal/apperr"
	"clinicflow/internal/dto"
	"clinicflow/internal/model"
	"clinicflow/internal/repository"
)

// DashboardService assembles the per-clinic landing summary.
type DashboardService interface {
	Summary(ctx context.Context, actor Actor) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	inventory   InventoryService
	apptRepo    repository.AppointmentRepository
	invoiceRepo repository.InvoiceRepository
}

func NewDashboardService(
	inventory InventoryService,
	apptRepo repository.AppointmentRepository,
	invoiceRepo repository.InvoiceRepository,
) DashboardService {
	return &dashboardService{inventory: inventory, apptRepo: apptRepo, invoiceRepo: invoiceRepo}
}

func (s *dashboardService) Summary(ctx context.Context, actor Actor) (*dto.DashboardResponse, error) {
	clinicID, err := requireClinic(actor)
	if err != nil {
		return nil, err
	}

	stats, err := s.inventory.Stats(ctx, actor)
	if err != nil {
		return nil, err
	}

	counts, err := s.apptRepo.CountTodayByStatus(ctx, clinicID)
	if err != nil {
		return nil, apperr.Persistence("could not count today's appointments", err)
	}

	outstanding, outstandingTotal, err := s.invoiceRepo.OutstandingSummary(ctx, clinicID)
	if err != nil {
		return nil, apperr.Persistence("could not summarize outstanding invoices", err)
	}

	return &dto.DashboardResponse{
		Inventory: *stats,
		AppointmentsToday: dto.AppointmentCounts{
			Scheduled: counts[model.AppointmentScheduled],
			Confirmed: counts[model.AppointmentConfirmed],
			Completed: counts[model.AppointmentCompleted],
			Cancelled: counts[model.AppointmentCancelled],
			NoShow:    counts[model.AppointmentNoShow],
		},
		Billing: dto.BillingSummary{
			OutstandingInvoices: outstanding,
			OutstandingTotal:    outstandingTotal,
		},
	}, nil
}
