package queue

import (
	"context"
	"time"
)

type EventKind string

const (
	ManualsImported       EventKind = "imported"
	ManualsSaved          EventKind = "saved"
	ManualsDeleted        EventKind = "deleted"
	ManualContentReplaced EventKind = "content_replaced"
)

// ManualEvent describes a committed change to one or more manual groups.
type ManualEvent struct {
	Kind       EventKind `json:"kind"`
	GroupCodes []string  `json:"groupCodes"`
	IDs        []uint64  `json:"ids,omitempty"`
	At         time.Time `json:"at"`
}

func NewManualEvent(kind EventKind, groupCodes []string, ids []uint64) *ManualEvent {
	return &ManualEvent{
		Kind:       kind,
		GroupCodes: groupCodes,
		IDs:        ids,
		At:         time.Now().UTC(),
	}
}

type ManualQueue interface {
	// Publish appends a manual change to the queue.
	Publish(ctx context.Context, event *ManualEvent) error
	Close() error
}

var _ ManualQueue = (*NopQueue)(nil)

// NopQueue drops every event. Used when no broker is configured.
type NopQueue struct{}

func NewNopQueue() *NopQueue {
	return &NopQueue{}
}

func (n *NopQueue) Publish(ctx context.Context, event *ManualEvent) error {
	return nil
}

func (n *NopQueue) Close() error {
	return nil
}
