package models

// SensorReading holds the environmental readings of the classroom.
type SensorReading struct {
	Temperature float64 `json:"temperature" yaml:"temperature"` // °C
	Humidity    float64 `json:"humidity" yaml:"humidity"`       // %
	CO2         int     `json:"co2" yaml:"co2"`                 // ppm
	Light       int     `json:"light" yaml:"light"`             // lux
	Noise       float64 `json:"noise" yaml:"noise"`             // dBA
	AirQuality  int     `json:"airQuality" yaml:"airQuality"`   // AQI
}
