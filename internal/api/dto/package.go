package dto

import "time"

type PackageResponse struct {
	PackageID     int        `json:"package_id"`
	VehicleID     string     `json:"vehicle_id,omitempty"`
	Destination   string     `json:"destination"`
	RecipientName string     `json:"recipient_name,omitempty"`
	Lat           *float64   `json:"lat"`
	Lon           *float64   `json:"lon"`
	Weight        float64    `json:"weight"`
	LoadedAt      *time.Time `json:"loaded_at"`
	DeliveredAt   *time.Time `json:"delivered_at"`
}

type ListPackagesResponse struct {
	Packages []PackageResponse `json:"packages"`
}
