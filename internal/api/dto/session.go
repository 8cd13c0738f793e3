package dto

import "time"

type VehicleRequest struct {
	VehicleID string `json:"vehicle_id"`
}

type ClearSessionRequest struct {
	VehicleID       string `json:"vehicle_id"`
	ResetDeliveries bool   `json:"reset_deliveries"`
}

type FastForwardRequest struct {
	Multiplier float64 `json:"multiplier"`
}

type FastForwardResponse struct {
	Multiplier float64 `json:"multiplier"`
}

type PositionResponse struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type WaypointResponse struct {
	PackageID        int              `json:"package_id"`
	Destination      string           `json:"destination"`
	RecipientName    string           `json:"recipient_name,omitempty"`
	Position         PositionResponse `json:"position"`
	RouteProgress    float64          `json:"route_progress"`
	DistanceFromPath float64          `json:"distance_from_path_m"`
	Delivered        bool             `json:"delivered"`
}

type SkippedPackageResponse struct {
	PackageID        int     `json:"package_id"`
	Reason           string  `json:"reason"`
	DistanceFromPath float64 `json:"distance_from_path_m,omitempty"`
}

type VehicleStateResponse struct {
	VehicleID           string           `json:"vehicle_id"`
	Position            PositionResponse `json:"position"`
	RouteProgress       float64          `json:"route_progress"`
	SpeedMph            float64          `json:"speed_mph"`
	DeliveredPackageIDs []int            `json:"delivered_package_ids"`
	IsActive            bool             `json:"is_active"`
	LastUpdate          time.Time        `json:"last_update"`
}

type SessionResponse struct {
	SessionID string                   `json:"session_id"`
	VehicleID string                   `json:"vehicle_id"`
	Status    string                   `json:"status"`
	SpeedMph  float64                  `json:"speed_mph"`
	CreatedAt time.Time                `json:"created_at"`
	Waypoints []WaypointResponse       `json:"waypoints"`
	Skipped   []SkippedPackageResponse `json:"skipped"`
}

type SessionStateResponse struct {
	Session SessionResponse      `json:"session"`
	State   VehicleStateResponse `json:"state"`
}

type ListSessionsResponse struct {
	Vehicles []VehicleStateResponse `json:"vehicles"`
}
