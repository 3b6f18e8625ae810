package notifications

import "github.com/trendscope/skilltrends/internal/models"

// Notifier defines the contract for collection-report delivery.
type Notifier interface {
	SendReport(report *models.CollectionReport) error
}
