package optimizer

import (
	"math"
	"time"

	"ordervox/internal/audio"
)

// Technique names an optimization applied to an asset.
type Technique string

const (
	TechniqueNone             Technique = "none"
	TechniqueFormatConversion Technique = "format-conversion"
	TechniqueCompression      Technique = "compression"
)

const (
	// formatConversionRatio is the size reduction assumed for
	// converting a non-mp3 clip to mp3.
	formatConversionRatio = 1.5
	// maxCompressionFactor caps the modeled compression gain.
	maxCompressionFactor = 4.0
	// compressionReferenceKB scales the compression factor: a clip of
	// N KB compresses by N/200, capped above.
	compressionReferenceKB = 200.0
)

// DurationEstimator models clip duration from an asset descriptor.
type DurationEstimator interface {
	EstimateDuration(asset audio.Asset) time.Duration
}

// BitrateTable estimates duration from byte size and a fixed nominal
// bitrate per format. It is the default DurationEstimator.
type BitrateTable map[audio.Format]int64

// DefaultBitrateTable returns the nominal encoded bitrates in kbit/s.
func DefaultBitrateTable() BitrateTable {
	return BitrateTable{
		audio.FormatMP3:  128,
		audio.FormatWAV:  1411,
		audio.FormatWebM: 128,
		audio.FormatOGG:  128,
	}
}

// defaultBitrateKbps is assumed for formats missing from the table so
// malformed or unknown assets degrade instead of failing.
const defaultBitrateKbps = 128

func (t BitrateTable) bitrate(format audio.Format) int64 {
	if kbps, ok := t[format]; ok && kbps > 0 {
		return kbps
	}
	return defaultBitrateKbps
}

// EstimateDuration models duration as sizeBytes*8 bits over the nominal
// bitrate. With the bitrate in kbit/s, bits divided by kbps yields
// milliseconds directly.
func (t BitrateTable) EstimateDuration(asset audio.Asset) time.Duration {
	if asset.SizeBytes <= 0 {
		return 0
	}
	ms := asset.SizeBytes * 8 / t.bitrate(asset.Format)
	return time.Duration(ms) * time.Millisecond
}

// Config carries the optimization thresholds and the transcription
// price model used for cost estimates.
type Config struct {
	SizeThresholdBytes int64
	PerMinuteRate      float64
}

// Analysis is the result of inspecting an asset before transcription.
type Analysis struct {
	EstimatedDuration time.Duration
	EstimatedCost     float64
	NeedsOptimization bool
}

// Result describes the outcome of optimizing a single asset.
type Result struct {
	OriginalSizeBytes   int64
	OptimizedSizeBytes  int64
	CompressionRatio    float64
	CostSavingsEstimate float64
	TechniquesApplied   []Technique
}

// Optimized reports whether any technique other than none was applied.
func (r Result) Optimized() bool {
	for _, technique := range r.TechniquesApplied {
		if technique != TechniqueNone {
			return true
		}
	}
	return false
}

// Optimizer performs pure cost/benefit computations for audio assets.
// It has no side effects and is safe for concurrent use.
type Optimizer struct {
	cfg       Config
	estimator DurationEstimator
}

// New creates an optimizer. A nil estimator selects the default
// bitrate table.
func New(cfg Config, estimator DurationEstimator) *Optimizer {
	if estimator == nil {
		estimator = DefaultBitrateTable()
	}
	return &Optimizer{cfg: cfg, estimator: estimator}
}

// Analyze estimates duration and transcription cost for an asset and
// decides whether optimization is worthwhile. Assets already in mp3 and
// under the size threshold are left alone.
func (o *Optimizer) Analyze(asset audio.Asset) Analysis {
	duration := o.estimator.EstimateDuration(asset)
	return Analysis{
		EstimatedDuration: duration,
		EstimatedCost:     o.costForDuration(duration),
		NeedsOptimization: asset.SizeBytes > o.cfg.SizeThresholdBytes || asset.Format != audio.FormatMP3,
	}
}

// Optimize computes the modeled optimization result for an asset. The
// identity result (ratio 1.0, technique none) is returned for assets
// that need no work.
func (o *Optimizer) Optimize(asset audio.Asset) Result {
	analysis := o.Analyze(asset)
	if !analysis.NeedsOptimization {
		return Result{
			OriginalSizeBytes:  asset.SizeBytes,
			OptimizedSizeBytes: asset.SizeBytes,
			CompressionRatio:   1.0,
			TechniquesApplied:  []Technique{TechniqueNone},
		}
	}

	ratio := 1.0
	techniques := make([]Technique, 0, 2)

	if asset.Format != audio.FormatMP3 {
		ratio *= formatConversionRatio
		techniques = append(techniques, TechniqueFormatConversion)
	}
	if asset.SizeBytes > o.cfg.SizeThresholdBytes {
		// Clips below the compression reference would model a factor
		// under 1.0, inflating the size; compression is skipped for
		// them so the ratio never drops below 1.0.
		factor := math.Min(maxCompressionFactor, float64(asset.SizeBytes)/1024.0/compressionReferenceKB)
		if factor > 1.0 {
			ratio *= factor
			techniques = append(techniques, TechniqueCompression)
		}
	}
	if len(techniques) == 0 {
		techniques = append(techniques, TechniqueNone)
	}

	optimizedSize := int64(math.Round(float64(asset.SizeBytes) / ratio))
	optimizedCost := o.costForAsset(audio.NewAsset(optimizedSize, audio.FormatMP3))

	savings := analysis.EstimatedCost - optimizedCost
	if savings < 0 {
		savings = 0
	}

	return Result{
		OriginalSizeBytes:   asset.SizeBytes,
		OptimizedSizeBytes:  optimizedSize,
		CompressionRatio:    ratio,
		CostSavingsEstimate: savings,
		TechniquesApplied:   techniques,
	}
}

// EstimateCost returns the modeled transcription cost for an asset.
func (o *Optimizer) EstimateCost(asset audio.Asset) float64 {
	return o.costForAsset(asset)
}

func (o *Optimizer) costForAsset(asset audio.Asset) float64 {
	return o.costForDuration(o.estimator.EstimateDuration(asset))
}

func (o *Optimizer) costForDuration(duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	return duration.Minutes() * o.cfg.PerMinuteRate
}
