package api

import (
	"fmt"

	"skyplan/internal/model"
)

func validateStartRequest(req *model.StartSessionRequest) error {
	if len(req.Planes) == 0 {
		return fmt.Errorf("planes must not be empty")
	}
	return validatePlanes(req.Planes)
}

func validateRoundRequest(req *model.RoundRequest) error {
	if req.Round < 0 {
		return fmt.Errorf("round must be >= 0")
	}
	if len(req.Planes) == 0 {
		return fmt.Errorf("planes must not be empty")
	}
	if len(req.Headings) != len(req.Planes) {
		return fmt.Errorf("headings must have one entry per plane: got %d for %d planes", len(req.Headings), len(req.Planes))
	}
	return validatePlanes(req.Planes)
}

func validatePlanes(planes []model.PlaneIn) error {
	for i, p := range planes {
		if p.Departure < 0 {
			return fmt.Errorf("planes[%d].departure must be >= 0", i)
		}
	}
	return nil
}
