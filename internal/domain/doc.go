// Package domain models the records exchanged by the agricultural assistant's
// data services: locations, weather snapshots, mandi price quotes, pest
// detections, crops, community posts and chat turns.
//
// # Units
//
// Crop prices are rupees per quintal (100 kg). Temperatures are Celsius,
// wind speed m/s, pressure hPa, rainfall mm and visibility km.
//
// # Price trend heuristic
//
// Registry feeds report min, max and modal (most frequently traded) prices for
// a reporting window. The modal price's position inside the window drives the
// trend:
//
//	position = modal - min
//	range    = max - min
//	pct      = position / range * 100   (50 when range <= 0)
//	up if pct > 60, down if pct < 40, stable otherwise
//	reported percentage = |pct - 50|
//
// This is a display heuristic, not a statistical signal. See [DeriveTrend].
//
// # Severity
//
// Detected pests carry a coarse severity derived from classifier confidence:
//
//	confidence > 0.8  high
//	confidence > 0.5  medium
//	otherwise         low
//
// Both bounds are exclusive, so 0.8 maps to medium and 0.5 to low. The
// critical level exists in the vocabulary but is never derived. See
// [SeverityFromConfidence].
package domain
