package application

import "time"

// CreateInventoryObserverCommand registers an inventory observer
type CreateInventoryObserverCommand struct {
	ObserverID       string
	ThresholdPercent float64
	CheckFrequency   int
	PollingInterval  time.Duration
}

// CreateOrderObserverCommand registers an order source observer
type CreateOrderObserverCommand struct {
	ObserverID      string
	DSN             string
	Username        string
	Password        string
	PollingInterval time.Duration
}

// CreateWesObserverCommand registers a WES task observer
type CreateWesObserverCommand struct {
	ObserverID      string
	URL             string
	AuthToken       string
	PollingInterval time.Duration
}
