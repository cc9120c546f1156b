package route

import "zephyra.io/zephyra/ident"

// RouteSelected records one scoring decision over a candidate list.
type RouteSelected struct {
	TransactionID     ident.ID
	Venue             Venue
	AlternativesCount uint8
	Reasoning         string
	At                int64
}

func (RouteSelected) EventName() string { return "route_selected" }

// RouteExecuted records one accepted venue execution.
type RouteExecuted struct {
	TransactionID ident.ID
	Venue         Venue
	InputAmount   uint64
	OutputAmount  uint64
	At            int64
}

func (RouteExecuted) EventName() string { return "route_executed" }
