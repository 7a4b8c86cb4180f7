package settle

import "math"

// StageStatus is the per-pillar progress value.
type StageStatus string

const (
	StageNotStarted StageStatus = "not_started"
	StageInProgress StageStatus = "in_progress"
	StageComplete   StageStatus = "complete"
)

// Valid reports whether s is one of the three recognised values.
func (s StageStatus) Valid() bool {
	switch s {
	case StageNotStarted, StageInProgress, StageComplete:
		return true
	}
	return false
}

// Pillar identifies one of the five fixed settlement stages.
type Pillar string

const (
	PillarPreSettlement Pillar = "preSettlement"
	PillarExchange      Pillar = "exchange"
	PillarConditions    Pillar = "conditions"
	PillarPreCompletion Pillar = "preCompletion"
	PillarSettlement    Pillar = "settlement"
)

// PillarOrder is the fixed progression order. Callers are free to update
// pillars out of order; the order only determines the current stage.
var PillarOrder = [5]Pillar{
	PillarPreSettlement,
	PillarExchange,
	PillarConditions,
	PillarPreCompletion,
	PillarSettlement,
}

// Progress is the derived completion view of a matter.
type Progress struct {
	CompletedCount int         `json:"completedCount"`
	OverallPercent int         `json:"overallPercent"`
	CurrentStage   Pillar      `json:"currentStage,omitempty"`
	Stages         StageStates `json:"stages"`
}

// StageStates maps each pillar to its status in progression order.
type StageStates struct {
	PreSettlement StageStatus `json:"preSettlement"`
	Exchange      StageStatus `json:"exchange"`
	Conditions    StageStatus `json:"conditions"`
	PreCompletion StageStatus `json:"preCompletion"`
	Settlement    StageStatus `json:"settlement"`
}

// Stage returns the status of a single pillar.
func (m *Matter) Stage(p Pillar) StageStatus {
	switch p {
	case PillarPreSettlement:
		return m.PillarPreSettlement
	case PillarExchange:
		return m.PillarExchange
	case PillarConditions:
		return m.PillarConditions
	case PillarPreCompletion:
		return m.PillarPreCompletion
	case PillarSettlement:
		return m.PillarSettlement
	}
	return ""
}

// Progress computes the derived view: completed count in [0,5], the rounded
// overall percentage and the first in-progress stage in pillar order. No
// side effects.
func (m *Matter) Progress() Progress {
	p := Progress{
		Stages: StageStates{
			PreSettlement: m.PillarPreSettlement,
			Exchange:      m.PillarExchange,
			Conditions:    m.PillarConditions,
			PreCompletion: m.PillarPreCompletion,
			Settlement:    m.PillarSettlement,
		},
	}
	for _, pillar := range PillarOrder {
		switch m.Stage(pillar) {
		case StageComplete:
			p.CompletedCount++
		case StageInProgress:
			if p.CurrentStage == "" {
				p.CurrentStage = pillar
			}
		}
	}
	p.OverallPercent = int(math.Round(float64(p.CompletedCount) / float64(len(PillarOrder)) * 100))
	return p
}
