package notify

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"kanban-board/domain"
)

// Message is a dequeued board event awaiting acknowledgement.
type Message struct {
	ID         string
	PopReceipt string
	Text       string
}

// queueAPI is the subset of *azqueue.QueueClient used by Queue.
type queueAPI interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
	DequeueMessage(ctx context.Context, o *azqueue.DequeueMessageOptions) (azqueue.DequeueMessagesResponse, error)
	DeleteMessage(ctx context.Context, messageID string, popReceipt string, o *azqueue.DeleteMessageOptions) (azqueue.DeleteMessageResponse, error)
}

// Queue carries board events to the activity projector through an Azure
// storage queue.
type Queue struct {
	client queueAPI
}

// NewQueue connects to the named queue using the account connection string.
func NewQueue(connStr, name string) (*Queue, error) {
	opts := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: time.Minute,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	client, err := azqueue.NewQueueClientFromConnectionString(connStr, name, &opts)
	if err != nil {
		return nil, err
	}
	return &Queue{client: client}, nil
}

// Publish enqueues ev as JSON.
func (q *Queue) Publish(ctx context.Context, ev domain.BoardEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = q.client.EnqueueMessage(ctx, string(data), nil)
	return err
}

// Dequeue returns the next message, or nil when the queue is empty.
func (q *Queue) Dequeue(ctx context.Context) (*Message, error) {
	resp, err := q.client.DequeueMessage(ctx, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Messages) == 0 {
		return nil, nil
	}
	m := resp.Messages[0]
	msg := &Message{}
	if m.MessageID != nil {
		msg.ID = *m.MessageID
	}
	if m.PopReceipt != nil {
		msg.PopReceipt = *m.PopReceipt
	}
	if m.MessageText != nil {
		msg.Text = *m.MessageText
	}
	return msg, nil
}

// Delete acknowledges a processed message.
func (q *Queue) Delete(ctx context.Context, m *Message) error {
	_, err := q.client.DeleteMessage(ctx, m.ID, m.PopReceipt, nil)
	return err
}
