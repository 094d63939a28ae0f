package engine

import (
	"time"

	"github.com/faiface/beep"
)

// Offline returns a streamer that renders the engine's output while
// stepping its frame loop every 1/fps seconds of audio, so the scheduler
// runs without a display. onFrame, when set, is called with the audio time
// before every frame; it is the place to feed scroll samples.
func (e *Engine) Offline(fps int, onFrame func(t float64)) beep.Streamer {
	src := e.Output()
	var rate beep.SampleRate = 44100
	if e.ctx != nil {
		rate = e.ctx.SampleRate()
	}
	perFrame := rate.N(time.Second) / fps
	if perFrame < 1 {
		perFrame = 1
	}
	untilFrame := 0
	elapsed := 0

	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		for n < len(samples) {
			if untilFrame == 0 {
				t := rate.D(elapsed).Seconds()
				if onFrame != nil {
					onFrame(t)
				}
				e.Frame(t)
				untilFrame = perFrame
			}
			chunk := min(untilFrame, len(samples)-n)
			got, more := src.Stream(samples[n : n+chunk])
			n += got
			elapsed += got
			untilFrame -= got
			if !more {
				return n, n > 0
			}
		}
		return n, true
	})
}
