package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/gravfield/internal/transfer"
)

// MeanSpeed is the mean record speed of the latest frame.
type MeanSpeed struct {
	speeds []float64
	value  float64
}

func NewMeanSpeed() *MeanSpeed { return &MeanSpeed{} }

func (m *MeanSpeed) Name() string { return "mean_speed" }

func (m *MeanSpeed) Observe(recs []transfer.Record, dt float32) {
	m.speeds = speeds(m.speeds, recs)
	if len(m.speeds) == 0 {
		m.value = 0
		return
	}
	m.value = stat.Mean(m.speeds, nil)
}

func (m *MeanSpeed) Value() float64 { return m.value }

func (m *MeanSpeed) Reset() {
	m.speeds = m.speeds[:0]
	m.value = 0
}

type MaxSpeed struct {
	speeds []float64
	value  float64
}

func NewMaxSpeed() *MaxSpeed { return &MaxSpeed{} }

func (m *MaxSpeed) Name() string { return "max_speed" }

func (m *MaxSpeed) Observe(recs []transfer.Record, dt float32) {
	m.speeds = speeds(m.speeds, recs)
	if len(m.speeds) == 0 {
		m.value = 0
		return
	}
	m.value = floats.Max(m.speeds)
}

func (m *MaxSpeed) Value() float64 { return m.value }

func (m *MaxSpeed) Reset() {
	m.speeds = m.speeds[:0]
	m.value = 0
}

func speeds(buf []float64, recs []transfer.Record) []float64 {
	buf = buf[:0]
	for _, r := range recs {
		buf = append(buf, float64(r.Speed))
	}
	return buf
}
