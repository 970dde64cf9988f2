package orchestrator

import "github.com/shaiso/Cascade/internal/domain"

// aggregate собирает исходы всех веток обеих фаз в итоговый отчёт.
//
// Статус success только когда КАЖДАЯ ветка завершилась успешно:
// тихого успеха при частичном сбое не бывает. Отменённая ветка
// переводит весь отчёт в cancelled.
func aggregate(branches []domain.BranchResult) *domain.Report {
	report := &domain.Report{
		Status:   domain.ReportSuccess,
		Branches: branches,
	}

	for _, b := range branches {
		switch b.Status {
		case domain.BranchStatusCancelled:
			report.Status = domain.ReportCancelled
			report.FailedBranches = append(report.FailedBranches, b.BranchID)
		case domain.BranchStatusFailed:
			if report.Status != domain.ReportCancelled {
				report.Status = domain.ReportPartialFailure
			}
			report.FailedBranches = append(report.FailedBranches, b.BranchID)
		}
	}

	return report
}
