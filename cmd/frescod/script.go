package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spetersoncode/fresco"
	"github.com/spetersoncode/fresco/agui"
	"github.com/spetersoncode/fresco/internal/narrate"
)

var demoTasks = []string{
	"Build the release image",
	"Push to the registry",
	"Roll out to production",
}

const (
	introPrompt = "In one or two sentences, tell the user you are about to run a " +
		"three-step deployment checklist: build the release image, push it to " +
		"the registry, and roll it out to production."
	outroPrompt = "In one sentence, tell the user the deployment checklist " +
		"finished with every step green."

	cannedIntro = "I'll set up a deployment checklist and work through it step by step."
	cannedOutro = "Deployment finished. Every step completed cleanly."
)

// script drives one demo run: a task-list surface declared up front, then
// narrated progress with live data-model mutations and tool-call activity.
type script struct {
	input    runInput
	narrator narrate.Narrator
	delay    time.Duration

	w     io.Writer
	count int
}

func newScript(input runInput, n narrate.Narrator, delay time.Duration) *script {
	return &script{input: input, narrator: n, delay: delay}
}

// Play emits the full run to w and reports how many events were written.
// On failure a RUN_ERROR is sent before the stream drops.
func (s *script) Play(ctx context.Context, w io.Writer) (int, error) {
	s.w = w
	if err := s.run(ctx); err != nil {
		s.emit(&fresco.RunErrorEvent{Message: err.Error()})
		return s.count, err
	}
	return s.count, nil
}

func (s *script) run(ctx context.Context) error {
	if err := s.emit(&fresco.RunStartedEvent{ThreadID: s.input.ThreadID, RunID: s.input.RunID}); err != nil {
		return err
	}

	prompt := introPrompt
	if s.input.Prompt != "" {
		prompt = s.input.Prompt
	}
	if err := s.say(ctx, prompt, cannedIntro); err != nil {
		return err
	}

	if err := s.emit(&fresco.StepStartedEvent{StepName: "plan"}); err != nil {
		return err
	}
	if err := s.surface(surfaceLayout()); err != nil {
		return err
	}
	if err := s.surface(initialData()); err != nil {
		return err
	}
	if err := s.surface(map[string]any{"beginRendering": fresco.BeginRendering{Root: "root"}}); err != nil {
		return err
	}
	if err := s.emit(&fresco.StepFinishedEvent{StepName: "plan"}); err != nil {
		return err
	}
	if err := s.pause(ctx, s.delay); err != nil {
		return err
	}

	for i, label := range demoTasks {
		if err := s.runTask(ctx, i, label); err != nil {
			return err
		}
	}

	if err := s.surface(statusData(fmt.Sprintf("All %d steps complete", len(demoTasks)))); err != nil {
		return err
	}
	if err := s.say(ctx, outroPrompt, cannedOutro); err != nil {
		return err
	}

	return s.emit(&fresco.RunFinishedEvent{ThreadID: s.input.ThreadID, RunID: s.input.RunID})
}

// runTask plays one checklist step: a tool call, a state flip to running
// and then done, and a refreshed status line.
func (s *script) runTask(ctx context.Context, index int, label string) error {
	step := fmt.Sprintf("task-%d", index+1)
	if err := s.emit(&fresco.StepStartedEvent{StepName: step}); err != nil {
		return err
	}
	if err := s.surface(taskStateData(index, "running")); err != nil {
		return err
	}

	callID := fmt.Sprintf("call-%d", index+1)
	if err := s.emit(&fresco.ToolCallStartEvent{ToolCallID: callID, ToolCallName: "run_task"}); err != nil {
		return err
	}
	if err := s.emit(&fresco.ToolCallArgsEvent{ToolCallID: callID, Delta: fmt.Sprintf(`{"task": %q}`, label)}); err != nil {
		return err
	}
	if err := s.emit(&fresco.ToolCallEndEvent{ToolCallID: callID}); err != nil {
		return err
	}
	if err := s.pause(ctx, s.delay); err != nil {
		return err
	}
	if err := s.emit(&fresco.ToolCallResultEvent{
		MessageID:  fresco.GenerateMessageID(),
		ToolCallID: callID,
		Content:    `{"ok": true}`,
	}); err != nil {
		return err
	}

	if err := s.surface(taskStateData(index, "done")); err != nil {
		return err
	}
	if err := s.surface(statusData(fmt.Sprintf("%d of %d steps complete", index+1, len(demoTasks)))); err != nil {
		return err
	}
	if err := s.emit(&fresco.StepFinishedEvent{StepName: step}); err != nil {
		return err
	}
	return s.pause(ctx, s.delay)
}

// say streams one assistant message: narrated live when a narrator is
// configured, canned otherwise.
func (s *script) say(ctx context.Context, prompt, canned string) error {
	messageID := fresco.GenerateMessageID()
	if err := s.emit(&fresco.TextMessageStartEvent{MessageID: messageID, Role: fresco.RoleAssistant}); err != nil {
		return err
	}

	if s.narrator != nil {
		err := s.narrator.Stream(ctx, prompt, func(delta string) error {
			return s.emit(&fresco.TextMessageContentEvent{MessageID: messageID, Delta: delta})
		})
		if err != nil {
			return err
		}
	} else {
		for _, delta := range chunked(canned) {
			if err := s.emit(&fresco.TextMessageContentEvent{MessageID: messageID, Delta: delta}); err != nil {
				return err
			}
			if err := s.pause(ctx, 40*time.Millisecond); err != nil {
				return err
			}
		}
	}

	return s.emit(&fresco.TextMessageEndEvent{MessageID: messageID})
}

// emit converts ev through the bridge and writes one SSE frame.
func (s *script) emit(ev fresco.Event) error {
	sdkEvent, err := agui.ToSDK(ev)
	if err != nil {
		return err
	}
	if err := agui.WriteSSE(s.w, sdkEvent); err != nil {
		return err
	}
	s.count++
	return nil
}

// surface emits one surface message as a CUSTOM event.
func (s *script) surface(msg map[string]any) error {
	return s.emit(&fresco.CustomEvent{Name: fresco.DefaultSurfaceMessageName, Value: msg})
}

// pause waits for d, honoring cancellation.
func (s *script) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// chunked splits text on word boundaries so canned narration still arrives
// as a stream of deltas.
func chunked(text string) []string {
	words := strings.Fields(text)
	chunks := make([]string, 0, len(words))
	for i, word := range words {
		if i == 0 {
			chunks = append(chunks, word)
			continue
		}
		chunks = append(chunks, " "+word)
	}
	return chunks
}

// surfaceLayout declares the task-list component tree. Props that read
// from the data model use path bindings; the task list expands one row per
// element of /tasks, and row contents bind through $item.
func surfaceLayout() map[string]any {
	return map[string]any{"surfaceUpdate": fresco.SurfaceUpdate{
		Components: []fresco.ComponentInstance{
			{ID: "root", Type: "Card", Props: map[string]any{
				"children": fresco.ExplicitChildren("title", "rule", "status", "tasks"),
			}},
			{ID: "title", Type: "Heading", Props: map[string]any{
				"text":  map[string]any{"path": "/title"},
				"level": 1,
			}},
			{ID: "rule", Type: "Divider", Props: map[string]any{}},
			{ID: "status", Type: "Text", Props: map[string]any{
				"text": map[string]any{"path": "/status"},
			}},
			{ID: "tasks", Type: "List", Props: map[string]any{
				"children": fresco.TemplateChildren("/tasks", "taskRow"),
			}},
			{ID: "taskRow", Type: "Row", Props: map[string]any{
				"children": fresco.ExplicitChildren("taskState", "taskLabel"),
			}},
			{ID: "taskState", Type: "Badge", Props: map[string]any{
				"text": map[string]any{"path": "$item/state"},
			}},
			{ID: "taskLabel", Type: "Text", Props: map[string]any{
				"text": map[string]any{"path": "$item/label"},
			}},
		},
	}}
}

func initialData() map[string]any {
	tasks := make([]fresco.DataValue, len(demoTasks))
	for i, label := range demoTasks {
		tasks[i] = fresco.MapValue(
			fresco.StringEntry("label", label),
			fresco.StringEntry("state", "pending"),
		)
	}
	return map[string]any{"dataModelUpdate": fresco.DataModelUpdate{
		Contents: []fresco.DataEntry{
			fresco.StringEntry("title", "Deployment checklist"),
			fresco.StringEntry("status", fmt.Sprintf("0 of %d steps complete", len(demoTasks))),
			fresco.ArrayEntry("tasks", tasks...),
		},
	}}
}

func taskStateData(index int, state string) map[string]any {
	return map[string]any{"dataModelUpdate": fresco.DataModelUpdate{
		Path:     fmt.Sprintf("/tasks/%d", index),
		Contents: []fresco.DataEntry{fresco.StringEntry("state", state)},
	}}
}

func statusData(status string) map[string]any {
	return map[string]any{"dataModelUpdate": fresco.DataModelUpdate{
		Contents: []fresco.DataEntry{fresco.StringEntry("status", status)},
	}}
}
