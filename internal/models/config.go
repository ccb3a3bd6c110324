package models

import (
	"railplanner.org/internal/appconf"
	"railplanner.org/internal/graph"
)

type RoutingModel struct {
	BaseFare              float64 `json:"baseFare"`
	CostPerKm             float64 `json:"costPerKm"`
	AverageSpeedKmh       float64 `json:"averageSpeedKmh"`
	OperatorChangePenalty float64 `json:"operatorChangePenalty"`
	LineChangePenalty     float64 `json:"lineChangePenalty"`
	TransferRadius        float64 `json:"transferRadius"`
	TransferResolveRadius float64 `json:"transferResolveRadius"`
}

type GraphModel struct {
	Nodes         int `json:"nodes"`
	RailEdges     int `json:"railEdges"`
	TransferEdges int `json:"transferEdges"`
	Stations      int `json:"stations"`
	StationNodes  int `json:"stationNodes"`
}

// ConfigModel describes the running service. Graph is omitted until the
// graph has been built.
type ConfigModel struct {
	Id          string       `json:"id"`
	Name        string       `json:"name"`
	Environment string       `json:"environment"`
	PassCount   int          `json:"passCount"`
	Routing     RoutingModel `json:"routing"`
	Graph       *GraphModel  `json:"graph,omitempty"`
}

func NewRoutingModel(r appconf.RoutingConfig) RoutingModel {
	return RoutingModel{
		BaseFare:              r.Fare.Base,
		CostPerKm:             r.Fare.PerKm,
		AverageSpeedKmh:       r.Speed.AverageKmh,
		OperatorChangePenalty: r.Penalties.OperatorChange,
		LineChangePenalty:     r.Penalties.LineChange,
		TransferRadius:        r.TransferRadius,
		TransferResolveRadius: r.TransferResolveRadius,
	}
}

func NewGraphModel(s graph.Stats) *GraphModel {
	return &GraphModel{
		Nodes:         s.Nodes,
		RailEdges:     s.RailEdges,
		TransferEdges: s.TransferEdges,
		Stations:      s.Stations,
		StationNodes:  s.StationNodes,
	}
}
