// Parley — a push-to-talk terminal voice assistant.
//
// Usage:
//
//	parley [-verbose] [-quiet]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/softspoken/parley/internal/assistant"
	"github.com/softspoken/parley/internal/display"
	"github.com/softspoken/parley/internal/domain"
	"github.com/softspoken/parley/internal/feed"
	"github.com/softspoken/parley/internal/listen"
	"github.com/softspoken/parley/internal/logger"
	"github.com/softspoken/parley/internal/model"
	"github.com/softspoken/parley/internal/speech"
)

func main() {
	_ = godotenv.Load()

	verbose := flag.Bool("verbose", false, "enable verbose/debug logging")
	quiet := flag.Bool("quiet", false, "disable all logging")
	logFile := flag.String("log-file", ".parley-logs/parley.log", "file to write logs to (use \"stderr\" to log to console)")
	noSpeech := flag.Bool("no-speech", false, "disable text-to-speech even if Azure keys are set")
	modelName := flag.String("model", model.DefaultModel, "Gemini model name")
	whisperBin := flag.String("whisper-bin", "whisper-cli", "path to the whisper-cpp CLI binary")
	whisperModel := flag.String("whisper-model", "models/ggml-base.en.bin", "path to the Whisper GGML model file")
	recordSecs := flag.Int("record-secs", 2, "seconds per voice recording chunk")
	listenSecs := flag.Int("listen-secs", 12, "maximum seconds per listening pass")
	feedAddr := flag.String("feed-addr", "", "optional address for the websocket transcript feed (e.g. :7323)")
	flag.Parse()

	// Configure logger.
	logLevel := logger.LevelNormal
	if *verbose {
		logLevel = logger.LevelVerbose
	}
	if *quiet {
		logLevel = logger.LevelOff
	}

	// Direct logs to a file by default so the TUI stays clean.
	var logOut io.Writer = os.Stderr
	if *logFile != "" && *logFile != "stderr" {
		dir := filepath.Dir(*logFile)
		if dir != "" && dir != "." {
			os.MkdirAll(dir, 0o755)
		}
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", *logFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}

	// Redirect Go's default log package (used by third-party libs like
	// the whisper transcriber) to the same output so it doesn't garble
	// the terminal.
	stdlog.SetOutput(logOut)
	stdlog.SetFlags(stdlog.Ltime)

	log := logger.New(logLevel, logOut)

	// Set up context — cancelled when the UI quits.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess := domain.NewSession()

	// Speech capture. A failed probe leaves the listener nil and marks
	// the capability unavailable for the whole session.
	var listener domain.Listener
	if err := listen.Probe(*whisperBin, *whisperModel); err != nil {
		log.Error("speech capture unavailable: %v", err)
	} else {
		listener = listen.New(*whisperBin, *whisperModel, log,
			listen.WithChunkDuration(time.Duration(*recordSecs)*time.Second),
			listen.WithMaxWindow(time.Duration(*listenSecs)*time.Second),
		)
		log.Info("speech capture enabled (bin=%s, model=%s)", *whisperBin, *whisperModel)
	}

	// Model client. A failed init leaves it nil; the assistant shows a
	// permanent advisory and the send path stays disabled.
	var client domain.ModelClient
	if c, err := model.NewClient(ctx, os.Getenv("GEMINI_API_KEY"), log, model.WithModel(*modelName)); err != nil {
		log.Error("model client init failed: %v", err)
	} else {
		client = c
		log.Info("model client enabled (model=%s)", *modelName)
	}

	// Text-to-speech. Entirely optional: replies are still rendered
	// when synthesis is unavailable.
	var speaker domain.Speaker
	azureKey := os.Getenv(speech.EnvAzureSpeechKey)
	azureRegion := os.Getenv(speech.EnvAzureSpeechRegion)
	if azureKey != "" && azureRegion != "" && !*noSpeech {
		if s := buildSpeaker(ctx, azureKey, azureRegion, log); s != nil {
			speaker = s
		}
	} else if !*noSpeech {
		log.Info("TTS disabled: set %s and %s env vars to enable", speech.EnvAzureSpeechKey, speech.EnvAzureSpeechRegion)
	}

	// Optional transcript feed.
	opts := []assistant.Option{}
	if *feedAddr != "" {
		hub := feed.NewHub(log)
		defer hub.Close()
		go func() {
			if err := http.ListenAndServe(*feedAddr, hub); err != nil {
				log.Error("feed: server stopped: %v", err)
			}
		}()
		opts = append(opts, assistant.WithPublisher(hub))
		log.Info("transcript feed listening on %s", *feedAddr)
	}

	asst := assistant.New(sess, listener, client, speaker, log, opts...)
	go asst.Run(ctx)

	// Bubble Tea owns the terminal and blocks until quit. Termination
	// signals go through ui.Quit so the alternate screen is restored.
	ui := display.NewUI(asst)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		ui.Quit()
	}()

	if err := ui.Run(); err != nil {
		log.Error("display: %v", err)
	}
	cancel()
}

// buildSpeaker wires the TTS client, voice selection, and audio player.
// Returns nil when any piece is unavailable; the assistant degrades to
// text-only replies.
func buildSpeaker(ctx context.Context, key, region string, log *logger.Logger) *speech.Speaker {
	tts := speech.NewClient(key, region, log)

	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	voices, err := tts.Voices(listCtx)
	if err != nil {
		log.Error("voice list failed, speech disabled: %v", err)
		return nil
	}

	voice, err := speech.ChooseVoice(voices, speech.PreferredVoiceName, speech.PreferredLocale)
	if err != nil {
		log.Error("no usable voice, speech disabled: %v", err)
		return nil
	}

	player, err := speech.NewPlayer(log)
	if err != nil {
		log.Error("audio player init failed, speech disabled: %v", err)
		return nil
	}

	log.Info("TTS enabled (voice=%s, region=%s)", voice.ShortName, region)
	return speech.NewSpeaker(tts, player, voice.ShortName, log)
}
