package db

import (
	"sync"
)

// ObserverCode is referring to the type of observer notification.
type ObserverCode int

const (
	ObserveSubmissionOutcome  = 0
	ObserveRateLimitViolation = 1
	ObserveRewardGranted      = 2
	ObserveFirstSolverAwarded = 3
)

// ObserverMessage is a structured audit event describing an observed
// outcome. Messages are delivered fire-and-forget: publishing never blocks
// the caller and never affects control flow or failure semantics.
type ObserverMessage struct {
	Code   ObserverCode
	Fields map[string]interface{}
}

// Observer allows registering audit/metrics listeners for a db.DB instance.
type Observer struct {
	channels []chan<- ObserverMessage
	lock     sync.Mutex
}

// Sub subscribes the given channel to get notified about audit events.
func (obv *Observer) Sub(c chan<- ObserverMessage) {
	obv.lock.Lock()
	defer obv.lock.Unlock()
	obv.channels = append(obv.channels, c)
}

// Pub publishes the given message, which is distributed over all subscribed
// channels.
func (obv *Observer) Pub(msg ObserverMessage) {
	obv.lock.Lock()
	defer obv.lock.Unlock()
	for _, c := range obv.channels {
		go push(c, msg)
	}
}

// push is pushing a message to the given channel.
func push(c chan<- ObserverMessage, msg ObserverMessage) {
	c <- msg
}

// Close is closing this observer.
func (obv *Observer) Close() {
	if obv.channels != nil {
		for _, channel := range obv.channels {
			close(channel)
		}
	}
}
