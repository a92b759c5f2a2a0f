package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPlan is returned when a route plan cannot be decoded or fails
// validation.
var ErrInvalidPlan = errors.New("invalid route plan")

// maxPlanBytes bounds how much of a plan body is read.
const maxPlanBytes = 8 << 20

// PlanJSON is the routing service's plan shape.
type PlanJSON struct {
	Steps []StepJSON `json:"steps" validate:"dive"`
}

// StepJSON is a single step in a route plan. Either Polyline or
// EncodedPolyline carries the geometry; Polyline wins if both are set.
type StepJSON struct {
	Instruction       string       `json:"instruction"`
	DistanceMeters    float64      `json:"distanceMeters" validate:"gte=0"`
	DurationSeconds   float64      `json:"durationSeconds" validate:"gte=0"`
	ManeuverKind      ManeuverKind `json:"maneuverKind" validate:"omitempty,maneuver"`
	RoadName          string       `json:"roadName"`
	Polyline          []PointJSON  `json:"polyline,omitempty" validate:"dive"`
	EncodedPolyline   string       `json:"encodedPolyline,omitempty"`
	PolylinePrecision int          `json:"polylinePrecision,omitempty" validate:"omitempty,oneof=5 6"`
}

// PointJSON is a lat/lng pair on the wire.
type PointJSON struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

var planValidator = newPlanValidator()

func newPlanValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("maneuver", func(fl validator.FieldLevel) bool {
		return ManeuverKind(fl.Field().String()).IsValid()
	})
	return v
}

// DecodePlan reads a JSON route plan and converts it into a Route.
// A plan with zero steps is valid and yields an empty Route.
func DecodePlan(r io.Reader) (Route, error) {
	var plan PlanJSON
	dec := json.NewDecoder(io.LimitReader(r, maxPlanBytes))
	if err := dec.Decode(&plan); err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	return plan.Route()
}

// Route validates the plan and converts it.
func (p PlanJSON) Route() (Route, error) {
	if err := planValidator.Struct(p); err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}

	rt := Route{Steps: make([]Step, 0, len(p.Steps))}
	for i, s := range p.Steps {
		step := Step{
			Instruction:     s.Instruction,
			DistanceMeters:  s.DistanceMeters,
			DurationSeconds: s.DurationSeconds,
			Maneuver:        s.ManeuverKind,
			RoadName:        s.RoadName,
		}
		if step.Maneuver == "" {
			step.Maneuver = ManeuverStraight
		}

		switch {
		case len(s.Polyline) > 0:
			step.Polyline = make([]Point, len(s.Polyline))
			for j, pt := range s.Polyline {
				step.Polyline[j] = Point{Lat: pt.Lat, Lng: pt.Lng}
			}
		case s.EncodedPolyline != "":
			pts, err := DecodePolyline(s.EncodedPolyline, s.PolylinePrecision)
			if err != nil {
				return Route{}, fmt.Errorf("%w: step %d: %v", ErrInvalidPlan, i, err)
			}
			for j, pt := range pts {
				if !pt.Valid() {
					return Route{}, fmt.Errorf("%w: step %d point %d out of range", ErrInvalidPlan, i, j)
				}
			}
			step.Polyline = pts
		}

		rt.Steps = append(rt.Steps, step)
	}
	return rt, nil
}

// PlanFromRoute converts a Route back into its wire shape.
func PlanFromRoute(r Route) PlanJSON {
	plan := PlanJSON{Steps: make([]StepJSON, len(r.Steps))}
	for i, s := range r.Steps {
		poly := make([]PointJSON, len(s.Polyline))
		for j, p := range s.Polyline {
			poly[j] = PointJSON{Lat: p.Lat, Lng: p.Lng}
		}
		plan.Steps[i] = StepJSON{
			Instruction:     s.Instruction,
			DistanceMeters:  s.DistanceMeters,
			DurationSeconds: s.DurationSeconds,
			ManeuverKind:    s.Maneuver,
			RoadName:        s.RoadName,
			Polyline:        poly,
		}
	}
	return plan
}
