package stream

import "testing"

func TestParseMessage(t *testing.T) {
	t.Run("LiteralKeepAlive", func(t *testing.T) {
		if msg := ParseMessage([]byte("ping")); msg.Kind != KindPing {
			t.Errorf("expected ping, got %s", msg.Kind)
		}
		if msg := ParseMessage([]byte("pong\n")); msg.Kind != KindPong {
			t.Errorf("expected pong, got %s", msg.Kind)
		}
	})

	t.Run("StatusEnvelope", func(t *testing.T) {
		payload := `{"type":"status","status":{"session_id":"abc","status":"analyzing_mood","current_step":"Analyzing mood"}}`
		msg := ParseMessage([]byte(payload))
		if msg.Kind != KindStatus {
			t.Fatalf("expected status, got %s", msg.Kind)
		}
		if msg.Status == nil || msg.Status.SessionID != "abc" {
			t.Errorf("expected parsed session payload, got %+v", msg.Status)
		}
		if msg.Status.Status != "analyzing_mood" {
			t.Errorf("unexpected status: %s", msg.Status.Status)
		}
	})

	t.Run("CompleteEnvelope", func(t *testing.T) {
		payload := `{"type":"complete","status":{"session_id":"abc","status":"completed"}}`
		msg := ParseMessage([]byte(payload))
		if msg.Kind != KindComplete {
			t.Fatalf("expected complete, got %s", msg.Kind)
		}
		if msg.Status == nil || msg.Status.Status != "completed" {
			t.Errorf("expected completed payload, got %+v", msg.Status)
		}
	})

	t.Run("ErrorEnvelope", func(t *testing.T) {
		msg := ParseMessage([]byte(`{"type":"error","error":"generation failed"}`))
		if msg.Kind != KindError {
			t.Fatalf("expected error, got %s", msg.Kind)
		}
		if msg.Err != "generation failed" {
			t.Errorf("unexpected error text: %s", msg.Err)
		}
	})

	t.Run("ErrorEnvelopeMessageFallback", func(t *testing.T) {
		msg := ParseMessage([]byte(`{"type":"error","message":"quota exceeded"}`))
		if msg.Err != "quota exceeded" {
			t.Errorf("expected message field fallback, got %q", msg.Err)
		}
	})

	t.Run("UnknownType", func(t *testing.T) {
		msg := ParseMessage([]byte(`{"type":"telemetry","data":42}`))
		if msg.Kind != KindUnknown {
			t.Fatalf("expected unknown, got %s", msg.Kind)
		}
		if msg.Raw == "" {
			t.Error("expected raw payload to be retained")
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		msg := ParseMessage([]byte("{not json"))
		if msg.Kind != KindUnknown {
			t.Errorf("expected unknown, got %s", msg.Kind)
		}
	})
}
