package search

import (
	"context"
	"time"

	"chat-service/internal/models"
	"chat-service/pkg/logger"
)

type indexJob struct {
	room string
	msg  *models.Message
}

// Indexer feeds persisted messages to the search service on a bounded queue
// with a single background worker. A full queue drops the job rather than
// blocking the broadcast path.
type Indexer struct {
	client *Client
	queue  chan indexJob
	done   chan struct{}
}

func NewIndexer(client *Client, queueSize int) *Indexer {
	idx := &Indexer{
		client: client,
		queue:  make(chan indexJob, queueSize),
		done:   make(chan struct{}),
	}
	go idx.run()
	return idx
}

// Enqueue hands a message off for indexing. Never blocks.
func (idx *Indexer) Enqueue(room string, msg *models.Message) {
	select {
	case idx.queue <- indexJob{room: room, msg: msg}:
	default:
		logger.Error("Index queue full, dropping message %d for room %s", msg.ID, room)
	}
}

// Stop drains nothing and stops the worker. Queued jobs are abandoned.
func (idx *Indexer) Stop() {
	close(idx.done)
}

func (idx *Indexer) run() {
	for {
		select {
		case <-idx.done:
			return
		case job := <-idx.queue:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := idx.client.Index(ctx, job.room, job.msg); err != nil {
				logger.Error("Error indexing message %d in room %s: %v", job.msg.ID, job.room, err)
			}
			cancel()
		}
	}
}
