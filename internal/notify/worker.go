package notify

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/bussywales/rentnow-sub000/internal/model"
)

// Message is a guest-facing notice about a booking.
type Message struct {
	BookingID  string
	GuestID    string
	PropertyID string
	Body       string
}

// Sender hands a message to the notification transport. Delivery itself
// lives outside this service; the engine only decides who gets told what.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender records messages to the log. It stands in wherever no real
// transport is wired.
type LogSender struct {
	Logger *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.Info("guest notification",
		"booking_id", msg.BookingID,
		"guest_id", msg.GuestID,
		"body", msg.Body)
	return nil
}

// WorkerPool fans booking notifications out to a fixed number of workers.
type WorkerPool struct {
	size   int
	jobs   chan string
	db     *gorm.DB
	sender Sender
	logger *slog.Logger
}

// NewWorkerPool creates a worker pool that resolves booking context from
// the database and delivers through the given sender.
func NewWorkerPool(size int, db *gorm.DB, sender Sender, logger *slog.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	return &WorkerPool{
		size:   size,
		jobs:   make(chan string, size),
		db:     db,
		sender: sender,
		logger: logger,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.logger.Debug("notify worker started", "worker", id)
	for {
		select {
		case bookingID := <-wp.jobs:
			wp.notifyExpired(ctx, bookingID)
		case <-ctx.Done():
			wp.logger.Debug("notify worker shutting down", "worker", id)
			return
		}
	}
}

// Dispatch queues a lapsed-hold notification for a booking.
func (wp *WorkerPool) Dispatch(bookingID string) {
	wp.jobs <- bookingID
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan string {
	return wp.jobs
}

func (wp *WorkerPool) notifyExpired(ctx context.Context, bookingID string) {
	var bk model.ShortletBooking
	if err := wp.db.WithContext(ctx).First(&bk, "id = ?", bookingID).Error; err != nil {
		wp.logger.Error("fetch booking for notification", "booking_id", bookingID, "err", err)
		return
	}

	msg := Message{
		BookingID:  bk.ID,
		GuestID:    bk.GuestID,
		PropertyID: bk.PropertyID,
		Body: fmt.Sprintf("Your booking hold for %s to %s lapsed before payment completed. The dates have been released.",
			bk.CheckIn.Format("2006-01-02"), bk.CheckOut.Format("2006-01-02")),
	}
	if err := wp.sender.Send(ctx, msg); err != nil {
		wp.logger.Error("send notification", "booking_id", bookingID, "err", err)
	}
}
