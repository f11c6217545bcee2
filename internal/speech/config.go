// Package speech provides text-to-speech synthesis and playback:
// an Azure Speech REST client with deterministic voice selection, an
// oto-backed PCM player, and the Speaker that ties them together.
package speech

// Preferred voice. Selection falls back to locale, then to the first
// available voice, then to none.
const (
	PreferredVoiceName = "en-US-AvaNeural"
	PreferredLocale    = "en-US"
)

// SpeakingRate is applied to every utterance.
const SpeakingRate = 1.2

// Audio format requested from Azure and expected by the player.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Audio parameters matching the default format.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// Env var names for Azure Speech credentials.
const (
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
)
