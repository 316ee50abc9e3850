package chat_test

import (
	"context"
	"testing"
	"time"

	model "github.com/zhouzirui/bothive/internal/model/chat"
	chat "github.com/zhouzirui/bothive/internal/service/chat"
)

func TestServiceTranscript(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	now := time.Now()

	if err := svc.Append(ctx, "abc", model.NewTurn(model.RoleUser, "hi", now)); err != nil {
		t.Fatalf("Append err: %v", err)
	}
	if err := svc.Append(ctx, "abc", model.NewTurn(model.RoleBot, "hello", now)); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	got, err := svc.Transcript(ctx, "abc")
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected transcript length: got %d want 2", len(got))
	}
	if got[0].Role != model.RoleUser || got[1].Text != "hello" {
		t.Fatalf("unexpected transcript: %+v", got)
	}
}

func TestServiceTranscriptNotFound(t *testing.T) {
	svc := chat.NewService()

	if _, err := svc.Transcript(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestServiceAppendValidates(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	if err := svc.Append(ctx, "", model.NewTurn(model.RoleUser, "hi", time.Now())); err != chat.ErrSessionRequired {
		t.Fatalf("expected ErrSessionRequired, got %v", err)
	}
	if err := svc.Append(ctx, "abc", model.Turn{Role: "system", Text: "x", Time: time.Now()}); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestServiceRecent(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()
	for _, text := range []string{"a", "b", "c", "d"} {
		if err := svc.Append(ctx, "abc", model.NewTurn(model.RoleUser, text, time.Now())); err != nil {
			t.Fatalf("Append err: %v", err)
		}
	}

	recent := svc.Recent(ctx, "abc", 2)
	if len(recent) != 2 || recent[0].Text != "c" || recent[1].Text != "d" {
		t.Fatalf("unexpected recent turns: %+v", recent)
	}
	if svc.Recent(ctx, "missing", 2) != nil {
		t.Fatal("expected nil for unknown session")
	}
}
