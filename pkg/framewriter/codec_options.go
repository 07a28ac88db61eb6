package framewriter

import "strings"

// Low-latency friendly defaults for the x264/x265 software encoders. Any key
// the user sets explicitly wins over these.
var lowLatencyDefaults = map[string]string{
	"tune":   "zerolatency",
	"preset": "ultrafast",
	"crf":    "20",
}

var lowLatencyCodecFamilies = []string{"libx264", "libx265"}

// resolveCodecOptions merges user options with codec-family defaults. It does
// not validate values; the encoder reports invalid ones when it opens.
func resolveCodecOptions(codec string, user map[string]string) map[string]string {
	resolved := make(map[string]string, len(user)+len(lowLatencyDefaults))
	for key, value := range user {
		resolved[key] = value
	}

	for _, family := range lowLatencyCodecFamilies {
		if !strings.Contains(codec, family) {
			continue
		}
		for key, value := range lowLatencyDefaults {
			if _, ok := resolved[key]; !ok {
				resolved[key] = value
			}
		}
		break
	}

	for key, value := range resolved {
		logger.Debugf("setting codec option: %s=%s", key, value)
	}
	return resolved
}
