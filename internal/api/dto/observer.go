package dto

// CreateInventoryObserverRequest registers an inventory observer
type CreateInventoryObserverRequest struct {
	ObserverID             string  `json:"observerId"`
	ThresholdPercent       float64 `json:"thresholdPercent" binding:"gte=0,lte=100"`
	CheckFrequency         int     `json:"checkFrequency" binding:"gt=0"`
	PollingIntervalSeconds int     `json:"pollingIntervalSeconds" binding:"required,min=10"`
}

// CreateOrderObserverRequest registers an order source observer
type CreateOrderObserverRequest struct {
	ObserverID             string `json:"observerId"`
	DSN                    string `json:"dsn" binding:"required,notblank"`
	Username               string `json:"username"`
	Password               string `json:"password"`
	PollingIntervalSeconds int    `json:"pollingIntervalSeconds" binding:"required,min=10"`
}

// CreateWesObserverRequest registers a WES task observer
type CreateWesObserverRequest struct {
	ObserverID             string `json:"observerId"`
	URL                    string `json:"url" binding:"required,url"`
	AuthToken              string `json:"authToken"`
	PollingIntervalSeconds int    `json:"pollingIntervalSeconds" binding:"required,min=10"`
}

// CreatedResponse carries the id of a created resource
type CreatedResponse struct {
	ID string `json:"id"`
}
