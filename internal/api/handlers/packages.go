package handlers

import (
	"delivery-sim-service/internal/api/dto"
	"delivery-sim-service/internal/ports"
	"net/http"

	"github.com/rs/zerolog/log"
)

// PackageHandler exposes read-only package retrieval endpoints.
type PackageHandler struct {
	Repo ports.PackageRepository
}

func (h *PackageHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	pkgs, err := h.Repo.ListPackages(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list packages failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListPackagesResponse{
		Packages: make([]dto.PackageResponse, 0, len(pkgs)),
	}
	for _, p := range pkgs {
		res.Packages = append(res.Packages, dto.PackageResponse{
			PackageID:     p.PackageID,
			VehicleID:     p.VehicleID,
			Destination:   p.Destination,
			RecipientName: p.RecipientName,
			Lat:           p.DestinationLat,
			Lon:           p.DestinationLon,
			Weight:        p.Weight,
			LoadedAt:      p.LoadedAt,
			DeliveredAt:   p.DeliveredAt,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
