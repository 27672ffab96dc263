package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edgard/llmchat/internal/config"
	"github.com/edgard/llmchat/internal/conversation"
	"github.com/edgard/llmchat/internal/database"
	"github.com/edgard/llmchat/internal/llm"
	"github.com/edgard/llmchat/internal/prompt"
	"github.com/edgard/llmchat/internal/reply"
)

func (d *Dispatcher) work(groupID int64, st *conversation.State) {
	defer d.wg.Done()
	log := d.log.With("group_id", groupID)
	log.Debug("Worker started")

	for {
		if d.ctx.Err() != nil {
			st.Abandon()
			log.Debug("Worker stopped by shutdown")
			return
		}
		b, ok := st.Next(d.opts.HistoryWindow)
		if !ok {
			log.Debug("Worker finished, queue drained")
			return
		}
		d.process(d.ctx, log, groupID, st, b)
	}
}

// process runs one batch. Failures are reported to the group and leave the
// state untouched.
func (d *Dispatcher) process(ctx context.Context, log *slog.Logger, groupID int64, st *conversation.State, b conversation.Batch) {
	if b.Preset == conversation.PresetOff {
		log.Debug("Group disabled while queued, skipping batch")
		return
	}
	preset, client := d.models.Resolve(b.Preset)

	personality := d.opts.DefaultPrompt
	if b.GroupPrompt != nil && *b.GroupPrompt != "" {
		personality = *b.GroupPrompt
	}
	system := prompt.System(d.opts.Nicknames, d.opts.Delimiter, personality)
	messages := prompt.Build(system, b.History, d.opts.HistoryWindow, b.Events)
	userContent := messages[len(messages)-1].Content

	log.DebugContext(ctx, "Sending model request", "preset", preset.Name, "model", preset.ModelName,
		"history_turns", len(messages)-2, "events", len(b.Events))

	started := time.Now()
	stopTyping := d.typing(ctx, log, groupID)
	r, resp, err := d.complete(ctx, client, preset, messages)
	stopTyping()
	if err != nil && ctx.Err() != nil {
		log.InfoContext(ctx, "Model request stopped by shutdown", "preset", preset.Name, "duration", time.Since(started))
		return
	}
	if err != nil {
		log.ErrorContext(ctx, "Model request failed", "preset", preset.Name, "duration", time.Since(started), "error", err)
		d.record(ctx, log, &database.Exchange{
			GroupID: groupID, Preset: preset.Name, Model: preset.ModelName,
			Prompt: userContent, Failed: true, Error: err.Error(),
		})
		if sendErr := d.sender.Send(ctx, groupID, d.opts.ServiceUnavailable+"\n"+err.Error()); sendErr != nil {
			log.ErrorContext(ctx, "Failed to send failure notice", "error", sendErr)
		}
		return
	}
	log.InfoContext(ctx, "Model reply received", "preset", preset.Name, "segments", len(r.Segments),
		"total_tokens", resp.TotalTokens, "duration", time.Since(started))

	if !st.Commit(b, userContent, r.Visible) {
		log.InfoContext(ctx, "Group was reset during the model call, history left untouched")
	}

	if b.EmitReasoning && r.Reasoning != "" {
		if err := d.sender.Send(ctx, groupID, r.Reasoning); err != nil {
			log.ErrorContext(ctx, "Failed to send reasoning", "error", err)
		}
	}
	for i, seg := range r.Segments {
		if err := d.sleep(ctx, d.opts.SendDelay); err != nil {
			log.WarnContext(ctx, "Delivery interrupted", "sent", i, "segments", len(r.Segments), "error", err)
			break
		}
		if err := d.sender.Send(ctx, groupID, seg); err != nil {
			log.ErrorContext(ctx, "Failed to send reply segment", "index", i, "error", err)
		}
	}

	d.record(ctx, log, &database.Exchange{
		GroupID: groupID, Preset: preset.Name, Model: preset.ModelName,
		Prompt: userContent, Reply: r.Visible, Reasoning: r.Reasoning, TotalTokens: resp.TotalTokens,
	})
}

func (d *Dispatcher) complete(ctx context.Context, client llm.Client, preset config.PresetConfig, messages []llm.Message) (reply.Reply, *llm.Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()

	resp, err := client.Complete(callCtx, llm.Request{
		Model:       preset.ModelName,
		Messages:    messages,
		MaxTokens:   preset.MaxTokens,
		Temperature: preset.Temperature,
	})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, llm.ErrTimeout) {
			err = fmt.Errorf("%w: %w", llm.ErrTimeout, err)
		}
		return reply.Reply{}, nil, err
	}

	r := reply.Split(resp.Content, resp.Reasoning, d.opts.Delimiter)
	if r.Visible == "" {
		return r, resp, llm.ErrEmptyReply
	}
	return r, resp, nil
}

// typing refreshes the group's typing indicator until the returned stop
// func is called. It is a no-op when the sender cannot show one.
func (d *Dispatcher) typing(ctx context.Context, log *slog.Logger, groupID int64) (stop func()) {
	t, ok := d.sender.(Typer)
	if !ok {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	send := func() {
		if err := t.Typing(ctx, groupID); err != nil && ctx.Err() == nil {
			log.DebugContext(ctx, "Typing action failed", "error", err)
		}
	}
	send()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				send()
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (d *Dispatcher) record(ctx context.Context, log *slog.Logger, ex *database.Exchange) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.SaveExchange(ctx, ex); err != nil {
		log.WarnContext(ctx, "Failed to archive exchange", "error", err)
	}
}
