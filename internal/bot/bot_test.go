package bot

import "testing"

func TestStop_RepeatedCallsSafe(t *testing.T) {
	b := &Bot{stopCh: make(chan struct{})}
	b.running = true

	b.Stop()

	select {
	case <-b.stopCh:
	default:
		t.Fatalf("после Stop канал остановки должен быть закрыт")
	}

	// повторный Stop не должен падать на закрытом канале
	b.Stop()
}

func TestStop_BeforeStartIsNoop(t *testing.T) {
	b := &Bot{stopCh: make(chan struct{})}

	b.Stop()

	select {
	case <-b.stopCh:
		t.Fatalf("Stop без запуска не должен закрывать канал")
	default:
	}
}
