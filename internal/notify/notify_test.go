package notify

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMulti_FansOutAndStampsTime(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, nil, b}.Notify(context.Background(), Notification{Type: Success, Message: "Product created"})

	for i, r := range []*Recorder{a, b} {
		n, ok := r.Last()
		if !ok {
			t.Fatalf("recorder %d got nothing", i)
		}
		if n.Time.IsZero() || n.Message != "Product created" {
			t.Errorf("recorder %d: unexpected notification %+v", i, n)
		}
	}
}

func TestLogNotifier_ErrorsLogAtWarn(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	n.Notify(context.Background(), Notification{Type: Error, Message: "Create failed", ProductID: 9})
	n.Notify(context.Background(), Notification{Type: Success, Message: "Created"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zap.WarnLevel || entries[1].Level != zap.InfoLevel {
		t.Errorf("unexpected levels %v %v", entries[0].Level, entries[1].Level)
	}
	if entries[0].ContextMap()["product_id"] != uint64(9) {
		t.Errorf("expected product_id field, got %v", entries[0].ContextMap())
	}
}
