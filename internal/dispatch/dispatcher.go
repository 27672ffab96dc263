// Package dispatch admits chat events into per-group state and runs at most
// one worker per group. A worker drains its group's queue: it builds a
// prompt from history and pending events, calls the model and relays the
// reply back in paced segments.
package dispatch

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/edgard/llmchat/internal/config"
	"github.com/edgard/llmchat/internal/conversation"
	"github.com/edgard/llmchat/internal/database"
	"github.com/edgard/llmchat/internal/llm"
)

// Sender delivers text to a group.
type Sender interface {
	Send(ctx context.Context, groupID int64, text string) error
}

// Typer is implemented by senders that can show a typing indicator.
type Typer interface {
	Typing(ctx context.Context, groupID int64) error
}

// Telegram clears the indicator after about five seconds.
const typingInterval = 4 * time.Second

// Models resolves a preset name to its configuration and client.
type Models interface {
	Resolve(name string) (config.PresetConfig, llm.Client)
}

// Recorder archives model calls.
type Recorder interface {
	SaveExchange(ctx context.Context, ex *database.Exchange) error
}

// Options tunes the worker.
type Options struct {
	Nicknames          []string
	Delimiter          string
	DefaultPrompt      string
	HistoryWindow      int
	RequestTimeout     time.Duration
	SendDelay          time.Duration
	RandomTriggerProb  float64
	ServiceUnavailable string
}

// OptionsFromConfig maps the loaded configuration onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Nicknames:          cfg.Telegram.Nicknames,
		Delimiter:          cfg.Chat.Delimiter,
		DefaultPrompt:      cfg.Chat.DefaultPrompt,
		HistoryWindow:      cfg.Chat.HistorySize,
		RequestTimeout:     cfg.Chat.RequestTimeout,
		SendDelay:          cfg.Chat.SendDelay,
		RandomTriggerProb:  cfg.Chat.RandomTriggerProb,
		ServiceUnavailable: cfg.Messages.ServiceUnavailable,
	}
}

// Dispatcher routes events to group workers.
type Dispatcher struct {
	ctx      context.Context
	store    *conversation.Store
	models   Models
	sender   Sender
	recorder Recorder
	opts     Options
	log      *slog.Logger

	wg     sync.WaitGroup
	random func() float64
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a Dispatcher. Workers run under ctx; once it is cancelled
// they stop after their current step. recorder may be nil.
func New(ctx context.Context, store *conversation.Store, models Models, sender Sender, recorder Recorder, opts Options, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		ctx:      ctx,
		store:    store,
		models:   models,
		sender:   sender,
		recorder: recorder,
		opts:     opts,
		log:      log.With("component", "dispatcher"),
		random:   rand.Float64,
		sleep:    sleepContext,
	}
}

// Submit records ev as pending for groupID and queues it, starting a
// worker if the group has none.
func (d *Dispatcher) Submit(groupID int64, ev conversation.RawEvent) {
	d.accept(groupID, d.store.Get(groupID), ev, true)
}

// Observe is the admission filter for every group message. It records
// nothing and returns false when the group's preset is off. Otherwise ev
// becomes pending and is queued when it is directed at the bot or wins the
// random trigger draw; the return value reports whether it was queued.
func (d *Dispatcher) Observe(groupID int64, ev conversation.RawEvent, directed bool) bool {
	st := d.store.Get(groupID)
	if st.Preset() == conversation.PresetOff {
		return false
	}
	dispatch := directed || d.random() < d.opts.RandomTriggerProb
	d.accept(groupID, st, ev, dispatch)
	return dispatch
}

// Wait blocks until every running worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) accept(groupID int64, st *conversation.State, ev conversation.RawEvent, dispatch bool) {
	start, evicted := st.Accept(ev, dispatch)
	if evicted {
		d.log.Warn("Pending event evicted before reaching the model", "group_id", groupID, "evicted_total", st.Stats().Evicted)
	}
	if !start {
		return
	}
	d.wg.Add(1)
	go d.work(groupID, st)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
