package utils

import (
	"sync/atomic"

	"go.mongodb.org/mongo-driver/event"
)

type MongoPoolStats struct {
	CheckedOut int64 `json:"checked_out"`
	Created    int64 `json:"created"`
	Closed     int64 `json:"closed"`
}

var mongoPool struct {
	checkedOut atomic.Int64
	created    atomic.Int64
	closed     atomic.Int64
}

// MongoPoolMonitor counts connection pool events of the mongo backend.
func MongoPoolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				mongoPool.created.Add(1)
			case event.ConnectionClosed:
				mongoPool.closed.Add(1)
			case event.GetSucceeded:
				mongoPool.checkedOut.Add(1)
			case event.ConnectionReturned:
				mongoPool.checkedOut.Add(-1)
			}
		},
	}
}

func GetMongoPoolStats() MongoPoolStats {
	return MongoPoolStats{
		CheckedOut: mongoPool.checkedOut.Load(),
		Created:    mongoPool.created.Load(),
		Closed:     mongoPool.closed.Load(),
	}
}
