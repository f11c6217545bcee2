package assistant

// eventKind enumerates everything that can move the state machine.
type eventKind int

const (
	// evToggle — the user pressed the talk control.
	evToggle eventKind = iota
	// evTranscript — the listener finalized a transcript.
	evTranscript
	// evListenError — recognition failed with a code.
	evListenError
	// evListenEnded — capture ended without usable speech.
	evListenEnded
	// evReply — the model produced a reply.
	evReply
	// evModelError — the model call failed.
	evModelError
	// evSpeechDone — synthesis/playback finished (err set on failure).
	evSpeechDone
)

// event is one unit of work for the reducer.
type event struct {
	kind eventKind
	text string // transcript or reply
	code string // recognition error code
	err  error  // model or synthesis failure
}
