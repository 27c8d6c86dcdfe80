// ============================================================================
// Subpool Chatbot - Message Glue
// ============================================================================
//
// Package: internal/chatbot
// File: bot.go
// Purpose: Ties the chain parser, the message store, the substitution
// orchestrator and a reply sender together into the thin driver that
// sits in front of the core, the way cmd/demo/main.go sat in front of
// the job-queue Controller: load config, build the core components,
// feed it synthetic/real input, print or relay results. The
// chat-protocol integration, the message store and the reply sender
// are all external collaborators - this package is one concrete
// realisation of "upstream".
//
// ============================================================================

package chatbot

import (
	"time"

	"github.com/corvidlabs/subpool/internal/executor"
	"github.com/corvidlabs/subpool/internal/orchestrator"
	"github.com/corvidlabs/subpool/internal/store"
)

// ReplySender is the "Reply sender" collaborator: send_or_edit. The
// core itself never inspects its return value, but this driver -
// which sits above the core, not inside it - needs the sent message's
// id back so a later chain targeting the same message can edit it
// instead of sending a new one.
type ReplySender interface {
	SendOrEdit(targetID, text string, isEdit bool) (replyID string)
}

// Bot wires one chat session's worth of input to one orchestrator.
type Bot struct {
	orch           *orchestrator.Orchestrator
	store          *store.Store
	sender         ReplySender
	maxChainLength int
	taskTimeout    time.Duration
}

// New builds a Bot.
func New(orch *orchestrator.Orchestrator, st *store.Store, sender ReplySender, maxChainLength int, taskTimeout time.Duration) *Bot {
	return &Bot{
		orch:           orch,
		store:          st,
		sender:         sender,
		maxChainLength: maxChainLength,
		taskTimeout:    taskTimeout,
	}
}

// HandleMessage is invoked once per inbound chat message. The message is
// always recorded in the store, chain-parseable or not, so later
// messages can target it. If text parses as a substitution chain, the
// chain's first pattern is used to find the most recent matching prior
// message in the same chat that is not itself a substitution chain, the
// chain runs against it, and the result
// is sent (or, if this target already has a recorded bot reply, used to
// edit that reply instead of sending a new one).
func (b *Bot) HandleMessage(chat, msgID, text string) {
	commands, includePerformance, ok := ParseChain(text, b.maxChainLength)

	// Target lookup runs against messages stored before this one, so a
	// command never matches its own raw text (which trivially contains
	// its own pattern as a substring). Earlier commands are skipped for
	// the same reason.
	var targetID, targetText string
	var found bool
	if ok && len(commands) > 0 {
		first := commands[0]
		targetID, targetText, found = b.store.FindTarget(chat, func(candidate string) bool {
			if _, _, isChain := ParseChain(candidate, 0); isChain {
				return false
			}
			return executor.MatchesPattern(first.Pattern(), first.Flags().String(), candidate)
		})
	}

	b.store.Store(chat, msgID, text)

	if !ok || len(commands) == 0 || !found {
		return
	}

	result := b.orch.RunChain(targetText, commands, includePerformance, b.taskTimeout)

	output := result.Text
	if result.Aborted {
		output = result.UserMessage
	}
	if result.TimingLine != "" {
		output = output + " " + result.TimingLine
	}
	for i := len(result.Warnings) - 1; i >= 0; i-- {
		output = result.Warnings[i] + "\n" + output
	}

	_, isEdit := b.store.FindBotReply(targetID, chat)
	replyID := b.sender.SendOrEdit(targetID, output, isEdit)

	if !isEdit {
		b.store.RememberBotReply(targetID, chat, replyID)
	}
}
