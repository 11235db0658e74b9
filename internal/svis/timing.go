package svis

// Timing carries the elapsed seconds of each run-loop stage for a single
// iteration, published as the fifth downstream sink stream (spec.md §6).
type Timing struct {
	ReadHID            float64
	CheckChecksum      float64
	ParseHeader        float64
	ParseIMU           float64
	ParseStrobe        float64
	ComputeStrobeTotal float64
	PushIMU            float64
	PushStrobe         float64
	ComputeOffsets     float64
	FilterIMU          float64
	Associate          float64
	GetCountOffset     float64
	Update             float64
}
