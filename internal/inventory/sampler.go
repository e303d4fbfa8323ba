package inventory

import (
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/andresuchdata/replenish/internal/domain"
)

// DemandSampler draws a non-negative daily demand for a given mean.
type DemandSampler interface {
	Sample(mean float64) int
}

// SamplerFactory returns the sampler used for one store-SKU. Each key gets
// its own sampler so keys can be simulated on separate goroutines.
type SamplerFactory func(key domain.StoreSKU) DemandSampler

// PoissonSampler draws Poisson variates from a private source.
type PoissonSampler struct {
	rng *rand.Rand
}

// NewPoissonSampler wraps rng. The sampler is not safe for concurrent use.
func NewPoissonSampler(rng *rand.Rand) *PoissonSampler {
	return &PoissonSampler{rng: rng}
}

// SeededSamplers derives an independent stream per store-SKU from seed and a
// hash of the key, so results do not depend on scheduling or worker count.
func SeededSamplers(seed int64) SamplerFactory {
	return func(key domain.StoreSKU) DemandSampler {
		h := int64(xxhash.Sum64String(key.String()))
		return NewPoissonSampler(rand.New(rand.NewSource(seed ^ h)))
	}
}

// Sample returns a Poisson(mean) draw; non-positive means yield 0.
func (s *PoissonSampler) Sample(mean float64) int {
	if mean <= 0 || math.IsNaN(mean) {
		return 0
	}
	if mean < 10 {
		return s.knuth(mean)
	}
	return s.ptrs(mean)
}

// knuth multiplies uniforms until the product drops below e^-mean.
func (s *PoissonSampler) knuth(mean float64) int {
	limit := math.Exp(-mean)
	k := 0
	prod := s.rng.Float64()
	for prod > limit {
		k++
		prod *= s.rng.Float64()
	}
	return k
}

// ptrs is Hörmann's transformed rejection with squeeze for larger means.
func (s *PoissonSampler) ptrs(mean float64) int {
	slam := math.Sqrt(mean)
	loglam := math.Log(mean)
	b := 0.931 + 2.53*slam
	a := -0.059 + 0.02483*b
	invalpha := 1.1239 + 1.1328/(b-3.4)
	vr := 0.9277 - 3.6224/(b-2)

	for {
		u := s.rng.Float64() - 0.5
		v := s.rng.Float64()
		us := 0.5 - math.Abs(u)
		k := math.Floor((2*a/us+b)*u + mean + 0.43)
		if us >= 0.07 && v <= vr {
			return int(k)
		}
		if k < 0 || (us < 0.013 && v > us) {
			continue
		}
		lg, _ := math.Lgamma(k + 1)
		if math.Log(v)+math.Log(invalpha)-math.Log(a/(us*us)+b) <= -mean+k*loglam-lg {
			return int(k)
		}
	}
}
