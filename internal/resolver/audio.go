package resolver

// AudioDriftThresholdMS is the policy threshold from spec §4.5/§7: drift
// beyond this is reported in FrameState.Warning, never fatal. The Resolver
// issues no audio seek of its own.
const AudioDriftThresholdMS int64 = 20

// AudioDriftMS computes Δ_audio = max(0, video_duration - audio_duration)
// (spec §4.5, open question 2: negative drift clamps to 0 rather than
// being left undefined).
func AudioDriftMS(videoDurationMS, audioDurationMS int64) int64 {
	d := videoDurationMS - audioDurationMS
	if d < 0 {
		return 0
	}
	return d
}

// AudioTargetMS maps a source time to the time an audio track with the
// given drift should seek to: max(0, source_time - drift).
func AudioTargetMS(sourceTimeMS, driftMS int64) int64 {
	t := sourceTimeMS - driftMS
	if t < 0 {
		return 0
	}
	return t
}

// NeedsResync reports whether the observed drift between an audio track's
// actual position and its expected (AudioTargetMS-derived) position exceeds
// thresholdMS, the resync policy threshold (internal/config.Config's
// AudioDriftThresholdMS, defaulting to AudioDriftThresholdMS).
func NeedsResync(observedDriftMS, thresholdMS int64) bool {
	if observedDriftMS < 0 {
		observedDriftMS = -observedDriftMS
	}
	return observedDriftMS > thresholdMS
}
