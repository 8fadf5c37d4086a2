package predictor

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu          sync.Mutex
	Predictions map[string]int
	Failures    map[string]int
	Fallbacks   map[string]int
	Levels      map[string]int
	Scores      []float64
	LatencySum  float64
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		Predictions: map[string]int{},
		Failures:    map[string]int{},
		Fallbacks:   map[string]int{},
		Levels:      map[string]int{},
	}
}

func (m *MockMetrics) PredictionInc(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Predictions[model]++
}

func (m *MockMetrics) FailureInc(model, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures[model+"/"+kind]++
}

func (m *MockMetrics) LatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LatencySum += v
}

func (m *MockMetrics) ScoreObserve(_ string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scores = append(m.Scores, score)
}

func (m *MockMetrics) RiskLevelInc(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Levels[level]++
}

func (m *MockMetrics) ExplainFallbackInc(model, level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fallbacks[model+"/"+level]++
}

// Count returns a counter value under the lock.
func (m *MockMetrics) Count(counter map[string]int, key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return counter[key]
}
