package websocket

import (
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/cache"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listview"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/scheduler"
)

// Message types for WebSocket communication
const (
	// client to server
	MessageTypeSetPage      = "set_page"
	MessageTypeSetPageSize  = "set_page_size"
	MessageTypeSetSearch    = "set_search"
	MessageTypeSetStatus    = "set_status"
	MessageTypeSetType      = "set_type"
	MessageTypeSetSort      = "set_sort"
	MessageTypeResetFilters = "reset_filters"
	MessageTypeRetry        = "retry"
	MessageTypePing         = "ping"

	// server to client
	MessageTypeConnectionConfirmed = "connection_confirmed"
	MessageTypeFrame               = "frame"
	MessageTypePong                = "pong"
	MessageTypeError               = "error"
)

// Error codes carried by error messages
const (
	CodeInvalidMessage = "INVALID_MESSAGE"
	CodePageOutOfRange = "PAGE_OUT_OF_RANGE"
	CodeInvalidValue   = "INVALID_VALUE"
	CodeNothingToRetry = "NOTHING_TO_RETRY"
	CodeSessionClosed  = "SESSION_CLOSED"
)

// InboundMessage is one user interaction with a list view. Only the field
// matching Type is read.
type InboundMessage struct {
	Type       string `json:"type" validate:"required,oneof=set_page set_page_size set_search set_status set_type set_sort reset_filters retry ping"`
	Page       int    `json:"page" validate:"required_if=Type set_page"`
	PageSize   int    `json:"pageSize" validate:"required_if=Type set_page_size,lte=200"`
	SearchTerm string `json:"searchTerm" validate:"max=200"`
	Status     string `json:"status" validate:"required_if=Type set_status"`
	TypeFilter string `json:"typeFilter" validate:"required_if=Type set_type"`
	Sort       string `json:"sort" validate:"required_if=Type set_sort,max=100"`
}

// OutboundMessage is everything the server sends to a session
type OutboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Resource  string          `json:"resource,omitempty"`
	Frame     *listview.Frame `json:"frame,omitempty"`
	Error     string          `json:"error,omitempty"`
	Code      string          `json:"code,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ViewSource resolves a resource name to the fetcher and default
// coordinates of its list view.
type ViewSource interface {
	View(resource string) (listview.Fetcher, listquery.Coordinates, error)
}

// ClientStats provides statistics about connected sessions
type ClientStats struct {
	TotalClients int            `json:"totalClients"`
	ByResource   map[string]int `json:"byResource"`
	Sessions     []SessionInfo  `json:"sessions"`
}

// SessionInfo describes one open list view
type SessionInfo struct {
	ID          string                `json:"id"`
	Resource    string                `json:"resource"`
	ConnectedAt time.Time             `json:"connectedAt"`
	LastPing    time.Time             `json:"lastPing"`
	Coordinates listquery.Coordinates `json:"coordinates"`
	State       listview.State        `json:"state"`
	Cache       cache.CacheStats      `json:"cache"`
	CachedKeys  []string              `json:"cachedKeys"`
	Renders     scheduler.Stats       `json:"renders"`
}
