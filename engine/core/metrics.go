package core

import "time"

const AVG_COUNT uint8 = 30

// Metrics keeps a rolling average of combine pass durations.
type Metrics struct {
	avgCounter uint8
	msTimes    [AVG_COUNT]float64
	msAvg      float64
	passes     uint64
	lastMS     float64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Update(elapsed time.Duration) {
	ms := float64(elapsed.Microseconds()) / 1000.0
	m.lastMS = ms
	m.msTimes[m.avgCounter] = ms
	if m.avgCounter == AVG_COUNT-1 {
		m.msAvg = 0
		for i := uint8(0); i < AVG_COUNT; i++ {
			m.msAvg += m.msTimes[i]
		}
		m.msAvg /= float64(AVG_COUNT)
	}
	m.avgCounter++
	m.avgCounter %= AVG_COUNT
	m.passes++
}

// Passes is the number of recorded passes.
func (m *Metrics) Passes() uint64 {
	return m.passes
}

// LastMS is the duration of the most recent pass in milliseconds.
func (m *Metrics) LastMS() float64 {
	return m.lastMS
}

// AverageMS is the average over the last full window of AVG_COUNT passes;
// zero until the first window completes.
func (m *Metrics) AverageMS() float64 {
	return m.msAvg
}
