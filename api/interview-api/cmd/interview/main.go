// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	internal_recorder "github.com/prepvault/api/interview-api/internal/audio/recorder"
	internal_session "github.com/prepvault/api/interview-api/internal/session"
	internal_speech "github.com/prepvault/api/interview-api/internal/speech"
	"github.com/prepvault/config"
	prepvault_client "github.com/prepvault/pkg/clients/prepvault"
	"github.com/prepvault/pkg/commons"
	"github.com/prepvault/pkg/types"
	"github.com/prepvault/pkg/utils"
)

type interviewFlags struct {
	role      string
	level     string
	techstack string
	kind      string
	amount    int
	email     string
	password  string
}

func parseFlags() *interviewFlags {
	f := &interviewFlags{}
	flag.StringVar(&f.role, "role", "Backend Engineer", "Job role to interview for")
	flag.StringVar(&f.level, "level", "Senior", "Experience level")
	flag.StringVar(&f.techstack, "techstack", "Go,Postgres", "Comma separated tech stack")
	flag.StringVar(&f.kind, "type", "technical", "Interview focus (technical/behavioural)")
	flag.IntVar(&f.amount, "amount", 0, "Number of questions (0 uses the server default)")
	flag.StringVar(&f.email, "email", "", "Account email (optional)")
	flag.StringVar(&f.password, "password", "", "Account password (optional)")
	flag.Parse()
	return f
}

func main() {
	flags := parseFlags()

	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("unable to initialize config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("unable to read application config: %v", err)
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name+"-interview"),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		log.Fatalf("unable to create logger: %v", err)
	}
	defer logger.Sync()

	client := prepvault_client.NewPrepvaultServiceClient(logger, cfg.PrepvaultHost)

	ctx := context.Background()
	var userId string
	if !utils.IsEmpty(flags.email) {
		user, err := client.SignIn(ctx, flags.email, flags.password)
		if err != nil {
			logger.Fatalf("sign in failed %v", err)
		}
		userId = user.ID
		fmt.Printf("signed in as %s\n", user.Email)
	}

	speaker := buildSpeaker(ctx, cfg, logger)
	recorder := internal_recorder.NewAnswerRecorder(
		logger,
		cfg.RecordingConfig.SampleRate,
		cfg.RecordingConfig.Channels,
	)

	printer := newTranscriptPrinter()
	controller := internal_session.NewController(
		logger,
		client, client, client,
		speaker,
		recorder,
		internal_session.WithRecordingLimit(time.Duration(cfg.RecordingConfig.MaxDurationSeconds)*time.Second),
		internal_session.WithQuestionAmount(cfg.QuestionAmount),
		internal_session.WithObserver(printer.observe),
	)

	go readIntents(controller)

	err = controller.StartCall(ctx, types.GenerateParams{
		Role:      flags.role,
		Level:     flags.level,
		TechStack: flags.techstack,
		Type:      flags.kind,
		Amount:    flags.amount,
		UserID:    userId,
	})
	if err != nil {
		logger.Fatalf("call failed %v", err)
	}
	fmt.Println("interview finished")
}

func buildSpeaker(ctx context.Context, cfg *config.AppConfig, logger commons.Logger) types.Speaker {
	if utils.IsEmpty(cfg.GoogleCredential) {
		logger.Info("no speech credential configured, questions will be text only")
		return internal_speech.NewSilentSpeaker()
	}
	speaker, err := internal_speech.NewGoogleSpeaker(ctx, logger, cfg.GoogleCredential, internal_speech.DiscardSink{})
	if err != nil {
		logger.Warnf("speech synthesis unavailable: %v", err)
		return internal_speech.NewSilentSpeaker()
	}
	return speaker
}

// readIntents maps stdin commands onto controller intents:
// answer / stop / end.
func readIntents(controller *internal_session.Controller) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "answer", "a":
			controller.ConfirmAnswer()
		case "stop", "s":
			controller.StopAnswer()
		case "end", "q":
			controller.EndCall()
			return
		case "":
		default:
			fmt.Println("commands: answer | stop | end")
		}
	}
}

// transcriptPrinter renders snapshots as a terminal conversation,
// printing each transcript entry once.
type transcriptPrinter struct {
	printed   int
	lastPhase internal_session.TurnPhase
}

func newTranscriptPrinter() *transcriptPrinter {
	return &transcriptPrinter{lastPhase: internal_session.PhaseIdle}
}

func (p *transcriptPrinter) observe(snap internal_session.Snapshot) {
	for ; p.printed < len(snap.Transcript); p.printed++ {
		entry := snap.Transcript[p.printed]
		fmt.Printf("[%s] %s\n", entry.Speaker, entry.Text)
	}

	if snap.Phase == p.lastPhase {
		return
	}
	p.lastPhase = snap.Phase
	switch snap.Phase {
	case internal_session.PhaseAwaitingAnswerStart:
		fmt.Printf("(question %d/%d — type 'answer' to start recording)\n", snap.QuestionIndex+1, snap.QuestionCount)
	case internal_session.PhaseRecording:
		fmt.Println("(recording — type 'stop' to finish your answer)")
	case internal_session.PhaseUploading:
		fmt.Println("(processing your answer...)")
	}
}
