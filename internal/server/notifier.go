package server

import (
	"github.com/sells-group/company-lookup/internal/model"
)

// HubNotifier forwards pipeline events to all WebSocket clients through
// a Hub. It implements lookup.Notifier.
type HubNotifier struct {
	hub *Hub
}

// NewHubNotifier creates a HubNotifier.
func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) SearchStarted(totalCompanies int) {
	n.hub.Broadcast(searchStartMessage{
		Type:           typeSearchStart,
		TotalCompanies: totalCompanies,
	})
}

func (n *HubNotifier) Progress(ev model.ProgressEvent) {
	n.hub.Broadcast(searchProgressMessage{
		Type:       typeSearchProgress,
		Company:    ev.Company,
		Step:       ev.Step,
		StepNumber: ev.StepNumber,
	})
}

func (n *HubNotifier) CompanyDone(company string, success bool, errMsg string) {
	msg := searchCompleteMessage{
		Type:    typeSearchComplete,
		Company: company,
		Success: success,
	}
	if errMsg != "" {
		msg.Error = &errMsg
	}
	n.hub.Broadcast(msg)
}

func (n *HubNotifier) BatchDone(summary model.BatchSummary) {
	n.hub.Broadcast(allSearchCompleteMessage{
		Type:           typeAllSearchComplete,
		TotalCompanies: summary.TotalCompanies,
		SuccessCount:   summary.SuccessCount,
		ErrorCount:     summary.ErrorCount,
		Results:        summary.Results,
	})
}
