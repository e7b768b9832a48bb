package eventlog

import (
	readings "watersense-cloud/internal/readings/domain"
)

// Alert messages shown on the dashboard. Wording is part of the dedup
// contract with already-stored rows, so it must stay byte-for-byte stable.
const (
	MsgWaterLeaking   = "The water is leaking!"
	MsgNoPresence     = "There is no presence, please check to close your water."
	MsgWaterInUse     = "The water is being used."
	MsgTemperatureHot = "The temperature is high!"
	MsgTemperatureLow = "The temperature is low!"
	MsgHumidityLow    = "The humidity is low!"
	MsgHumidityHigh   = "The humidity has risen up."
	MsgRelayOn        = "The relay is ON!"
	MsgRelayOff       = "The relay is OFF."
)

// Alert thresholds. All comparisons are strict, so boundary readings never
// raise an alert.
const (
	TemperatureHigh = 35
	TemperatureLow  = 15
	HumidityLow     = 30
	HumidityHigh    = 70
)

// Candidate is a derived alert message prior to dedup.
type Candidate struct {
	Category Category
	Message  string
}

// EvaluateDistanceLeak maps an ultrasonic/leak fact to at most one candidate.
func EvaluateDistanceLeak(fact readings.DistanceLeakFact) (Candidate, bool) {
	switch fact.EventType {
	case "leak_detected":
		return Candidate{Category: CategoryWater, Message: MsgWaterLeaking}, true
	case "waste_alarm":
		return Candidate{Category: CategoryUltrasonic, Message: MsgNoPresence}, true
	case "presence":
		return Candidate{Category: CategoryUltrasonic, Message: MsgWaterInUse}, true
	default:
		return Candidate{}, false
	}
}

// EvaluateEnvironment derives temperature and humidity candidates from one
// fact. The axes are independent, but within each axis the rules are an
// else-if chain: at most one temperature and one humidity candidate.
func EvaluateEnvironment(fact readings.EnvironmentFact) []Candidate {
	var candidates []Candidate
	if fact.Temperature > TemperatureHigh {
		candidates = append(candidates, Candidate{Category: CategoryTemperature, Message: MsgTemperatureHot})
	} else if fact.Temperature < TemperatureLow {
		candidates = append(candidates, Candidate{Category: CategoryTemperature, Message: MsgTemperatureLow})
	}
	if fact.Humidity < HumidityLow {
		candidates = append(candidates, Candidate{Category: CategoryHumidity, Message: MsgHumidityLow})
	} else if fact.Humidity > HumidityHigh {
		candidates = append(candidates, Candidate{Category: CategoryHumidity, Message: MsgHumidityHigh})
	}
	return candidates
}

// EvaluateRelay always yields a candidate; dedup keeps repeats out of the log.
func EvaluateRelay(fact readings.RelayFact) Candidate {
	if fact.State == readings.RelayOn {
		return Candidate{Category: CategoryRelay, Message: MsgRelayOn}
	}
	return Candidate{Category: CategoryRelay, Message: MsgRelayOff}
}
