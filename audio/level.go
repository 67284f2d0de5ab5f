package audio

import (
	"math"

	dsptime "github.com/cwbudde/algo-dsp/stats/time"
)

const FULL_SCALE = 32768.0

// LevelReport summarises a captured buffer relative to int16 full scale.
type LevelReport struct {
	Peak          float64
	PeakDB        float64
	RMS           float64
	RMSDB         float64
	DC            float64
	ZeroCrossings int
	Clipped       int
}

func Level(buf []int16) LevelReport {
	sig := make([]float64, len(buf))
	clipped := 0
	for i, s := range buf {
		sig[i] = float64(s) / FULL_SCALE
		if s == math.MaxInt16 || s == math.MinInt16 {
			clipped++
		}
	}
	st := dsptime.Calculate(sig)
	return LevelReport{
		Peak:          st.Peak,
		PeakDB:        st.Peak_dB,
		RMS:           st.RMS,
		RMSDB:         st.RMS_dB,
		DC:            st.DC,
		ZeroCrossings: st.ZeroCrossings,
		Clipped:       clipped,
	}
}
