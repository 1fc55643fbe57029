package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vladimiradmaev/diet-rpg/internal/diary"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
	"github.com/vladimiradmaev/diet-rpg/internal/utils"
)

// Payload is the row posted to the spreadsheet webhook.
type Payload struct {
	UserName string          `json:"userName"`
	Date     string          `json:"date"`
	Time     string          `json:"time"`
	Level    int             `json:"level"`
	XP       int             `json:"xp"`
	FoodName string          `json:"food_name"`
	Calories float64         `json:"calories"`
	Protein  float64         `json:"protein"`
	Carbs    float64         `json:"carbs"`
	Fat      float64         `json:"fat"`
	MealType domain.MealType `json:"mealType"`
}

// NewPayload formats a mirror command; date and time are UTC+8 wall clock.
func NewPayload(cmd diary.MirrorCommand, sentAt time.Time) Payload {
	local := sentAt.In(utils.Taipei)
	return Payload{
		UserName: cmd.UserName,
		Date:     local.Format("2006/1/2"),
		Time:     local.Format("15:04:05"),
		Level:    cmd.Level,
		XP:       cmd.CurrentXP,
		FoodName: cmd.Entry.FoodName,
		Calories: cmd.Entry.Calories,
		Protein:  cmd.Entry.Protein,
		Carbs:    cmd.Entry.Carbs,
		Fat:      cmd.Entry.Fat,
		MealType: cmd.Entry.MealType,
	}
}

// Worker copies diary entries to a spreadsheet webhook in the background.
// Delivery is best effort: failures are logged and dropped.
type Worker struct {
	url    string
	client *http.Client
	clock  utils.Clock
	log    *slog.Logger
	queue  chan diary.MirrorCommand

	mu      sync.RWMutex
	closed  bool
	started atomic.Bool
	done    chan struct{}
}

// NewWorker returns a worker for url. An empty url disables mirroring.
func NewWorker(url string, queueSize int, timeout time.Duration) *Worker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		url:    url,
		client: &http.Client{Timeout: timeout},
		clock:  utils.SystemClock{},
		log:    logger.WithFields("component", "sheet_mirror"),
		queue:  make(chan diary.MirrorCommand, queueSize),
		done:   make(chan struct{}),
	}
}

// Enabled reports whether a webhook URL was configured.
func (w *Worker) Enabled() bool {
	return w.url != ""
}

// Enqueue hands cmd to the worker without blocking. It returns false when
// mirroring is disabled or the queue is full.
func (w *Worker) Enqueue(cmd diary.MirrorCommand) bool {
	if !w.Enabled() {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	select {
	case w.queue <- cmd:
		return true
	default:
		w.log.Warn("Mirror queue full, dropping entry", "log_id", cmd.Entry.ID)
		return false
	}
}

// Start runs the delivery loop until ctx is cancelled or Stop is called.
func (w *Worker) Start(ctx context.Context) {
	if w.started.CompareAndSwap(false, true) {
		go w.run(ctx)
	}
}

// Stop closes the queue and waits for queued entries to be sent.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	if w.started.Load() {
		<-w.done
	}
}

func (w *Worker) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd, ok := <-w.queue:
			if !ok {
				return
			}
			if err := w.Send(ctx, cmd); err != nil {
				w.log.Error("Sheet sync failed", "error", err, "log_id", cmd.Entry.ID)
				continue
			}
			w.log.Debug("Synced to sheet", "log_id", cmd.Entry.ID)
		}
	}
}

// Send posts one entry. The webhook's response body is not read for meaning;
// only transport errors and 5xx statuses are reported.
func (w *Worker) Send(ctx context.Context, cmd diary.MirrorCommand) error {
	body, err := json.Marshal(NewPayload(cmd, w.clock.Now()))
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post to sheet: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("sheet webhook returned %s", resp.Status)
	}
	return nil
}
