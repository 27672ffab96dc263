package handlers

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/edgard/llmchat/internal/config"
	"github.com/edgard/llmchat/internal/conversation"
	"github.com/edgard/llmchat/internal/database"
)

var me = models.User{ID: 999, IsBot: true, FirstName: "Murai", Username: "murai_bot"}

type observed struct {
	groupID  int64
	ev       conversation.RawEvent
	directed bool
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []observed
}

func (f *fakeObserver) Observe(groupID int64, ev conversation.RawEvent, directed bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, observed{groupID, ev, directed})
	return directed
}

type fakeCatalog []string

func (c fakeCatalog) Has(name string) bool { return slices.Contains(c, name) }
func (c fakeCatalog) Names() []string     { return c }

func testDeps(obs Observer) HandlerDeps {
	return HandlerDeps{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Config: &config.Config{
			Telegram: config.TelegramConfig{AdminUserID: 1, Nicknames: []string{"murai"}, BotInfo: me},
			Messages: config.MessagesConfig{
				PresetSwitched: "Switched to preset: %s",
				PresetDisabled: "disabled",
				PresetList:     "Current preset: %s\nAvailable presets:\n- %s",
				Stats:          "%s|%d|%d|%d|%d|%d|%d",
			},
		},
		Conversations: conversation.NewStore(conversation.Limits{DefaultPreset: "deepseek", HistorySize: 4, PendingSize: 4}),
		Dispatcher:    obs,
		Presets:       fakeCatalog{"deepseek", "flash"},
	}
}

func groupMessage(text string) *models.Message {
	return &models.Message{
		ID:   10,
		Date: 1700000000,
		Chat: models.Chat{ID: -100, Type: models.ChatTypeSupergroup},
		From: &models.User{ID: 5, FirstName: "Ana", LastName: "Silva"},
		Text: text,
	}
}

func TestIsDirected(t *testing.T) {
	t.Parallel()

	replyToBot := groupMessage("sure")
	replyToBot.ReplyToMessage = &models.Message{From: &me, Text: "question?"}

	tests := []struct {
		name string
		msg  *models.Message
		want bool
	}{
		{name: "username mention", msg: groupMessage("hey @Murai_Bot, what's up"), want: true},
		{name: "nickname prefix", msg: groupMessage("Murai tell me a joke"), want: true},
		{name: "reply to bot", msg: replyToBot, want: true},
		{name: "unrelated", msg: groupMessage("lunch anyone?"), want: false},
		{name: "other mention", msg: groupMessage("@someone_else hi"), want: false},
		{name: "nil", msg: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isDirected(tt.msg, me, []string{"murai"}); got != tt.want {
				t.Errorf("isDirected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRenderEvent(t *testing.T) {
	t.Parallel()

	photo := groupMessage("")
	photo.Photo = []models.PhotoSize{{FileID: "x"}}
	photo.Caption = "look"

	quoted := groupMessage("agreed")
	quoted.ReplyToMessage = &models.Message{From: &models.User{ID: 6, Username: "bob"}, Text: "pizza tonight"}

	voice := groupMessage("")
	voice.Voice = &models.Voice{FileID: "v"}

	tests := []struct {
		name     string
		msg      *models.Message
		directed bool
		want     string
	}{
		{name: "plain", msg: groupMessage("hello"), want: "hello"},
		{name: "directed", msg: groupMessage("hello"), directed: true, want: "@murai hello"},
		{name: "photo with caption", msg: photo, want: "[image]look"},
		{name: "voice", msg: voice, want: "[voice]"},
		{name: "reply quote", msg: quoted, want: "[Reply to bob's message: pizza tonight]\nagreed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev := RenderEvent(tt.msg, tt.directed, "murai")
			if ev.Message != tt.want {
				t.Errorf("Message = %q, want %q", ev.Message, tt.want)
			}
			if ev.SenderNickname != "Ana Silva" || ev.SenderUserID != 5 || !ev.SendTime.Equal(time.Unix(1700000000, 0)) {
				t.Errorf("unexpected sender fields %+v", ev)
			}
		})
	}
}

func TestCommandArgs(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/llm_preset flash":          "flash",
		"/llm_preset@murai_bot  off": "off",
		"/llm_reset":                 "",
		"/llm_prompt be\nconcise":    "be\nconcise",
	}
	for in, want := range tests {
		if got := commandArgs(in); got != want {
			t.Errorf("commandArgs(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMessageHandler_ObservesGroupMessages(t *testing.T) {
	t.Parallel()

	obs := &fakeObserver{}
	h := messageHandler{testDeps(obs)}
	ctx := context.Background()

	private := groupMessage("hi @murai_bot")
	private.Chat.Type = models.ChatTypePrivate
	fromBot := groupMessage("beep")
	fromBot.From = &me

	h.Handle(ctx, nil, &models.Update{Message: groupMessage("hi @murai_bot")})
	h.Handle(ctx, nil, &models.Update{Message: groupMessage("just chatting")})
	h.Handle(ctx, nil, &models.Update{Message: groupMessage("/unknown_cmd")})
	h.Handle(ctx, nil, &models.Update{Message: private})
	h.Handle(ctx, nil, &models.Update{Message: fromBot})
	h.Handle(ctx, nil, &models.Update{})

	if len(obs.calls) != 2 {
		t.Fatalf("Observe called %d times, want 2", len(obs.calls))
	}
	if !obs.calls[0].directed || !strings.HasPrefix(obs.calls[0].ev.Message, "@murai ") {
		t.Errorf("first call = %+v, want directed with bot prefix", obs.calls[0])
	}
	if obs.calls[1].directed || obs.calls[1].groupID != -100 {
		t.Errorf("second call = %+v", obs.calls[1])
	}
}

func TestPresetHandler_Apply(t *testing.T) {
	t.Parallel()

	deps := testDeps(&fakeObserver{})
	h := presetHandler{deps}
	st := deps.Conversations.Get(-100)

	if got := h.apply(st, "flash"); got != "Switched to preset: flash" || st.Preset() != "flash" {
		t.Errorf("switch: %q, preset %q", got, st.Preset())
	}
	if got := h.apply(st, "missing"); got != "Current preset: flash\nAvailable presets:\n- deepseek\n- flash" {
		t.Errorf("unknown preset reply = %q", got)
	}
	if st.Preset() != "flash" {
		t.Errorf("unknown preset changed state to %q", st.Preset())
	}
	if got := h.apply(st, "off"); got != "disabled" || st.Preset() != conversation.PresetOff {
		t.Errorf("off: %q, preset %q", got, st.Preset())
	}
}

func TestStatsHandler_Render(t *testing.T) {
	t.Parallel()

	h := statsHandler{testDeps(&fakeObserver{})}
	got := h.render(conversation.Stats{Preset: "flash", HistoryLen: 4, PendingLen: 1, Evicted: 2}, database.Usage{Calls: 7, Failures: 1, Tokens: 900})
	if got != "flash|4|1|2|7|1|900" {
		t.Errorf("render() = %q", got)
	}
}

func TestRegisterAllCommands(t *testing.T) {
	t.Parallel()

	cmds := RegisterAllCommands(testDeps(&fakeObserver{}))
	for _, name := range []string{"/start", "/help", "/llm_preset", "/llm_prompt", "/llm_reset", "/llm_think", "/llm_stats"} {
		c, ok := cmds[name]
		if !ok || c.Handler == nil {
			t.Errorf("command %s not registered", name)
			continue
		}
		if name != "/start" && name != "/help" && len(c.Middleware) != 2 {
			t.Errorf("command %s has %d middleware, want 2", name, len(c.Middleware))
		}
	}
}

func TestIsChatAdmin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		member *models.ChatMember
		want   bool
	}{
		{member: &models.ChatMember{Type: models.ChatMemberTypeOwner}, want: true},
		{member: &models.ChatMember{Type: models.ChatMemberTypeAdministrator}, want: true},
		{member: &models.ChatMember{Type: models.ChatMemberTypeMember}, want: false},
		{member: nil, want: false},
	}
	for _, tt := range tests {
		if got := isChatAdmin(tt.member); got != tt.want {
			t.Errorf("isChatAdmin(%+v) = %v, want %v", tt.member, got, tt.want)
		}
	}
}
