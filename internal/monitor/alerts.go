package monitor

import "fmt"

// Thresholds trigger warnings when a sample exceeds them. Zero disables a check.
type Thresholds struct {
	CPUPercent    float64 `yaml:"cpu_percent" json:"cpu_percent"`
	MemoryPercent float64 `yaml:"memory_percent" json:"memory_percent"`
	TemperatureC  float64 `yaml:"temperature_c" json:"temperature_c"`
}

// Alert is a single threshold violation.
type Alert struct {
	Resource string  `json:"resource"`
	Value    float64 `json:"value"`
	Limit    float64 `json:"limit"`
	Message  string  `json:"message"`
}

// Check compares sample against the thresholds and returns one alert per
// exceeded limit, in the order CPU, memory, temperature.
func (t Thresholds) Check(sample *ResourceSample) []Alert {
	if sample == nil {
		return nil
	}
	var alerts []Alert
	if t.CPUPercent > 0 && sample.CPUError == "" && sample.CPUPercent > t.CPUPercent {
		alerts = append(alerts, Alert{
			Resource: "cpu",
			Value:    sample.CPUPercent,
			Limit:    t.CPUPercent,
			Message:  fmt.Sprintf("CPU usage %.1f%% exceeds %.0f%%", sample.CPUPercent, t.CPUPercent),
		})
	}
	if t.MemoryPercent > 0 && sample.MemoryError == "" && sample.Memory.UsedPercent > t.MemoryPercent {
		alerts = append(alerts, Alert{
			Resource: "memory",
			Value:    sample.Memory.UsedPercent,
			Limit:    t.MemoryPercent,
			Message:  fmt.Sprintf("Memory usage %.1f%% exceeds %.0f%%", sample.Memory.UsedPercent, t.MemoryPercent),
		})
	}
	if t.TemperatureC > 0 && sample.Board.Stats != nil {
		if hot, ok := sample.Board.Stats.MaxTemperature(); ok && hot.Celsius > t.TemperatureC {
			alerts = append(alerts, Alert{
				Resource: "temperature",
				Value:    hot.Celsius,
				Limit:    t.TemperatureC,
				Message:  fmt.Sprintf("%s temperature %.1fC exceeds %.0fC", hot.Name, hot.Celsius, t.TemperatureC),
			})
		}
	}
	return alerts
}
