// Package synth generates labeled synthetic training frames per aircraft
// class, reproducing the distribution-per-feature sampling strategy of the
// original flight-anomaly research code: each feature is drawn from a
// normal, uniform, or gamma distribution tuned to that feature's physical
// range, with a minority anomaly segment concatenated onto the majority
// normal segment so the resulting labels are imbalanced the way real
// flight logs are.
package synth

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/oualidl290/flightsentry/internal/aircraft"
	"github.com/oualidl290/flightsentry/internal/frame"
	"github.com/oualidl290/flightsentry/internal/schema"
)

// MinSampleSize is the smallest training set synth will generate; spec.md
// §4.3 treats anything smaller as a configuration error since the
// downstream ensemble needs enough rows per estimator split.
const MinSampleSize = 10

// normalAnomalyRatio is the 80/20 normal/anomaly split used across every
// class, matching the original trainer's fixed split.
const normalAnomalyRatio = 0.8

// columnDist describes how one feature column is sampled in its normal
// and anomalous regimes.
type columnDist struct {
	normal  sampler
	anomaly sampler
}

// sampler draws n values from some distribution given a seeded source.
type sampler func(rng *rand.Rand, n int) []float64

func normalSampler(mean, stddev float64) sampler {
	return func(rng *rand.Rand, n int) []float64 {
		d := distuv.Normal{Mu: mean, Sigma: stddev, Src: rng}
		out := make([]float64, n)
		for i := range out {
			out[i] = d.Rand()
		}
		return out
	}
}

func uniformSampler(lo, hi float64) sampler {
	return func(rng *rand.Rand, n int) []float64 {
		d := distuv.Uniform{Min: lo, Max: hi, Src: rng}
		out := make([]float64, n)
		for i := range out {
			out[i] = d.Rand()
		}
		return out
	}
}

func gammaSampler(shape, rate float64) sampler {
	return func(rng *rand.Rand, n int) []float64 {
		d := distuv.Gamma{Alpha: shape, Beta: rate, Src: rng}
		out := make([]float64, n)
		for i := range out {
			out[i] = d.Rand()
		}
		return out
	}
}

// fixedWingDists mirrors the original trainer's per-column distributions
// for fixed-wing normal cruise flight and its corresponding anomaly tail
// (stall-adjacent airspeed, erratic control surfaces, engine-out RPM).
var fixedWingDists = map[string]columnDist{
	"altitude":           {normalSampler(300, 50), normalSampler(80, 40)},
	"battery_voltage":    {normalSampler(12.4, 0.3), normalSampler(10.8, 0.6)},
	"motor_rpm":          {normalSampler(6500, 300), normalSampler(2000, 800)},
	"airspeed":           {normalSampler(22, 4), normalSampler(10, 3)},
	"ground_speed":       {normalSampler(20, 4), normalSampler(9, 3)},
	"throttle_position":  {uniformSampler(40, 80), uniformSampler(0, 100)},
	"elevator_position":  {normalSampler(0, 5), normalSampler(0, 20)},
	"rudder_position":    {normalSampler(0, 4), normalSampler(0, 18)},
	"aileron_position":   {normalSampler(0, 5), normalSampler(0, 20)},
	"pitch_angle":        {normalSampler(2, 3), normalSampler(15, 10)},
	"roll_angle":         {normalSampler(0, 5), normalSampler(0, 25)},
	"yaw_rate":           {normalSampler(0, 2), normalSampler(0, 10)},
	"gps_hdop":           {gammaSampler(2, 2), gammaSampler(1.2, 0.4)},
	"temperature":        {normalSampler(18, 5), normalSampler(18, 5)},
	"wind_speed":         {gammaSampler(2, 0.5), gammaSampler(4, 0.4)},
	"angle_of_attack":    {normalSampler(3, 2), normalSampler(14, 6)},
}

// multirotorDists mirrors the original trainer's multirotor normal hover
// distribution and its anomaly tail (vibration spikes, motor asymmetry).
var multirotorDists = map[string]columnDist{
	"altitude":        {normalSampler(40, 15), normalSampler(10, 8)},
	"battery_voltage": {normalSampler(16.8, 0.4), normalSampler(14.2, 0.8)},
	"motor_1_rpm":     {normalSampler(5200, 200), normalSampler(5200, 1200)},
	"motor_2_rpm":     {normalSampler(5200, 200), normalSampler(5200, 1200)},
	"motor_3_rpm":     {normalSampler(5200, 200), normalSampler(3000, 1400)},
	"motor_4_rpm":     {normalSampler(5200, 200), normalSampler(5200, 1200)},
	"vibration_x":     {gammaSampler(2, 4), gammaSampler(6, 1.5)},
	"vibration_y":     {gammaSampler(2, 4), gammaSampler(6, 1.5)},
	"vibration_z":     {gammaSampler(2, 4), gammaSampler(6, 1.5)},
	"vibration_w":     {gammaSampler(2, 4), gammaSampler(6, 1.5)},
	"pitch_angle":     {normalSampler(0, 4), normalSampler(0, 18)},
	"roll_angle":      {normalSampler(0, 4), normalSampler(0, 18)},
	"speed":           {normalSampler(5, 3), normalSampler(1, 2)},
	"temperature":     {normalSampler(22, 4), normalSampler(22, 4)},
	"gps_hdop":        {gammaSampler(2, 2), gammaSampler(1.2, 0.4)},
}

// vtolDists mirrors the original trainer's VTOL normal distribution
// (covering both hover and cruise phases) and its transition-failure
// anomaly tail.
var vtolDists = map[string]columnDist{
	"altitude":           {normalSampler(150, 60), normalSampler(40, 30)},
	"battery_voltage":    {normalSampler(22.2, 0.5), normalSampler(19.0, 1.0)},
	"motor_1_rpm":        {normalSampler(5000, 250), normalSampler(5000, 1300)},
	"motor_2_rpm":        {normalSampler(5000, 250), normalSampler(5000, 1300)},
	"motor_3_rpm":        {normalSampler(5000, 250), normalSampler(5000, 1300)},
	"motor_4_rpm":        {normalSampler(5000, 250), normalSampler(5000, 1300)},
	"motor_5_rpm":        {normalSampler(6200, 280), normalSampler(2500, 1500)},
	"airspeed":           {normalSampler(16, 5), normalSampler(4, 3)},
	"elevator_position":  {normalSampler(0, 5), normalSampler(0, 22)},
	"aileron_position":   {normalSampler(0, 5), normalSampler(0, 22)},
	"gps_hdop":           {gammaSampler(2, 2), gammaSampler(1.2, 0.4)},
	"vibration_x":        {gammaSampler(2, 4), gammaSampler(5, 1.5)},
	"vibration_y":        {gammaSampler(2, 4), gammaSampler(5, 1.5)},
	"vibration_z":        {gammaSampler(2, 4), gammaSampler(5, 1.5)},
	"vibration_w":        {gammaSampler(2, 4), gammaSampler(5, 1.5)},
	"temperature":        {normalSampler(16, 5), normalSampler(16, 5)},
	"transition_mode":    {uniformSampler(0, 1), uniformSampler(0, 1)},
	"pitch_angle":        {normalSampler(1, 4), normalSampler(12, 10)},
	"roll_angle":         {normalSampler(0, 4), normalSampler(0, 20)},
}

func distsFor(c aircraft.Class) (map[string]columnDist, error) {
	switch aircraft.EffectiveModelClass(c) {
	case aircraft.FixedWing:
		return fixedWingDists, nil
	case aircraft.Multirotor:
		return multirotorDists, nil
	case aircraft.VTOL:
		return vtolDists, nil
	default:
		return nil, fmt.Errorf("synth: class %s has no registered distributions", c)
	}
}

// Generate builds a labeled training frame of size n for class c,
// splitting 80/20 between a normal regime and an anomaly regime. Labels
// are 0 for normal rows and 1 for anomalous rows. seed makes the draw
// reproducible across retrains for the same class and size.
//
// Only the three concrete classes (spec.md §4.3) may be trained; Unknown
// is never a valid training target and returns an error rather than
// silently falling back.
func Generate(c aircraft.Class, n int, seed int64) (*frame.Frame, []float64, error) {
	if c == aircraft.Unknown {
		return nil, nil, fmt.Errorf("synth: cannot generate training data for class Unknown")
	}
	if n < MinSampleSize {
		return nil, nil, fmt.Errorf("synth: sample size %d below minimum %d", n, MinSampleSize)
	}

	dists, err := distsFor(c)
	if err != nil {
		return nil, nil, err
	}

	normalCount := int(float64(n) * normalAnomalyRatio)
	anomalyCount := n - normalCount

	rng := rand.New(rand.NewSource(seed))

	cols := schema.FeatureSet(c)
	columns := make(map[string][]float64, len(cols))
	for _, col := range cols {
		dist, ok := dists[col]
		if !ok {
			columns[col] = make([]float64, n)
			continue
		}
		normalValues := dist.normal(rng, normalCount)
		anomalyValues := dist.anomaly(rng, anomalyCount)
		columns[col] = append(normalValues, anomalyValues...)
	}

	labels := make([]float64, n)
	for i := normalCount; i < n; i++ {
		labels[i] = 1
	}

	return frame.New(columns, n), labels, nil
}
