// Package server exposes the lookup pipeline over HTTP and WebSocket.
package server

import (
	"github.com/sells-group/company-lookup/internal/model"
)

// Outbound message types.
const (
	typeConnectionEstablished = "connection_established"
	typeSearchStart           = "search_start"
	typeSearchProgress        = "search_progress"
	typeSearchComplete        = "search_complete"
	typeAllSearchComplete     = "all_search_complete"
	typePong                  = "pong"
	typeError                 = "error"
)

// Inbound message types.
const (
	typeSearch          = "search"
	typePing            = "ping"
	typeClientInfo      = "client_info"
	typeClientConnected = "client_connected"
)

// clientMessage is the envelope for everything a WebSocket client sends.
type clientMessage struct {
	Type      string   `json:"type"`
	Companies []string `json:"companies,omitempty"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

type connectionEstablishedMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type searchStartMessage struct {
	Type           string `json:"type"`
	TotalCompanies int    `json:"totalCompanies"`
}

type searchProgressMessage struct {
	Type       string           `json:"type"`
	Company    string           `json:"company"`
	Step       string           `json:"step"`
	StepNumber model.StepNumber `json:"stepNumber"`
}

// searchCompleteMessage reports one company's terminal state. Error is an
// explicit null on success.
type searchCompleteMessage struct {
	Type    string  `json:"type"`
	Company string  `json:"company"`
	Success bool    `json:"success"`
	Error   *string `json:"error"`
}

type allSearchCompleteMessage struct {
	Type           string                `json:"type"`
	TotalCompanies int                   `json:"totalCompanies"`
	SuccessCount   int                   `json:"successCount"`
	ErrorCount     int                   `json:"errorCount"`
	Results        []model.CompanyRecord `json:"results,omitempty"`
}

type pongMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
