package player

import (
	"github.com/minplayer/minplayer/sched"
	"github.com/samber/mo"
)

// startProgressPoll polls buffering until every byte is loaded or the source completes.
func (b *Base) startProgressPoll() {
	if b.progressPoll != nil {
		return
	}

	b.progressPoll = sched.Every(b.scheduler, b.Options.ProgressInterval, func() bool {
		b.pollProgress()
		return b.progressPoll != nil
	})
}

func (b *Base) stopProgressPoll() {
	if b.progressPoll != nil {
		b.progressPoll.Stop()
		b.progressPoll = nil
	}
}

func (b *Base) pollProgress() {
	b.sample(b.driver.BytesLoaded, b.bytesLoaded, func(loaded float64) {
		b.sample(b.driver.BytesTotal, b.bytesTotal, func(total float64) {
			b.sample(b.driver.BytesStart, b.bytesStart, func(start float64) {
				p := Progress{Loaded: loaded, Total: total, Start: start}
				b.Plugin.TriggerNoQueue(EventProgress, p)
				if p.Complete() {
					b.stopProgressPoll()
				}
			})
		})
	})
}

// startTimePoll polls the position while playing. It is a no-op when already running.
func (b *Base) startTimePoll() {
	if b.timePoll != nil {
		return
	}

	b.timePoll = sched.Every(b.scheduler, b.Options.TimeInterval, func() bool {
		b.pollTime()
		return b.timePoll != nil && b.state == Playing
	})
}

func (b *Base) stopTimePoll() {
	if b.timePoll != nil {
		b.timePoll.Stop()
		b.timePoll = nil
	}
}

func (b *Base) pollTime() {
	// streams may never report a duration
	b.sampleOr(b.driver.Duration, b.duration, mo.Some(0.0), func(d float64) {
		d = normalizeDuration(d)
		b.OnDuration(d)

		b.sample(b.driver.CurrentTime, b.currentTime, func(t float64) {
			b.onTime(t, d)
		})
	})
}

// onTime publishes a native position, ending playback once it crosses the range end.
func (b *Base) onTime(native, duration float64) {
	if b.state != Playing {
		return
	}

	if max := b.Options.Range.Max; max > 0 && native >= max {
		b.endOfRange()
		return
	}

	b.Plugin.TriggerNoQueue(EventTimeUpdate, TimeUpdate{
		CurrentTime: b.exposedTime(native, duration),
		Duration:    b.exposedDuration(duration),
	})
}

// endOfRange stops the native player at the range end and runs the completion sequence,
// once per generation.
func (b *Base) endOfRange() {
	if b.rangeEnded {
		return
	}
	b.rangeEnded = true

	b.tracef("range end %.2f reached", b.Options.Range.Max)
	if err := b.driver.Stop(); err != nil {
		b.OnError(err)
	}
	b.Trigger(EventStop, nil)
	b.OnComplete()
}
