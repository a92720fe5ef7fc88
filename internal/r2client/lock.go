package r2client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// lockHolder is the JSON body of a lock object.
type lockHolder struct {
	Owner     string    `json:"owner"`
	ExpiresAt time.Time `json:"expires_at"`
}

// expired reports whether a lock body is past its deadline. Unreadable
// bodies count as expired so a corrupt lock cannot block publishing forever.
func expired(body []byte, now time.Time) (lockHolder, bool) {
	var h lockHolder
	if err := json.Unmarshal(body, &h); err != nil {
		return lockHolder{}, true
	}
	return h, now.After(h.ExpiresAt)
}

// Lock keeps two publishers from uploading a snapshot at the same time.
// It is not safe for concurrent use by multiple goroutines.
type Lock struct {
	client *Client
	key    string
	ttl    time.Duration
	owner  string
	etag   string
}

// NewLock returns an unacquired lock stored at key.
func NewLock(client *Client, key string, ttl time.Duration) *Lock {
	return &Lock{client: client, key: key, ttl: ttl, owner: uuid.NewString()}
}

// Owner returns this lock instance's unique owner ID.
func (l *Lock) Owner() string { return l.owner }

func (l *Lock) body() (*bytes.Reader, error) {
	data, err := json.Marshal(lockHolder{Owner: l.owner, ExpiresAt: time.Now().Add(l.ttl)})
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// TryAcquire takes the lock if it is free or expired. It reports false,
// without error, when a live holder exists.
func (l *Lock) TryAcquire(ctx context.Context) (bool, error) {
	body, err := l.body()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	ok, etag, err := l.client.PutIfAbsent(ctx, l.key, body, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	if ok {
		l.etag = etag
		return true, nil
	}

	rc, obj, err := l.client.Get(ctx, l.key)
	if errors.Is(err, ErrNotFound) {
		// Released between our two calls; let the caller retry.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire lock: read holder: %w", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return false, fmt.Errorf("acquire lock: read holder: %w", err)
	}
	if _, stale := expired(data, time.Now()); !stale {
		return false, nil
	}

	body, err = l.body()
	if err != nil {
		return false, fmt.Errorf("acquire lock: %w", err)
	}
	ok, etag, err = l.client.PutIfMatch(ctx, l.key, body, obj.ETag, "application/json")
	if err != nil {
		return false, fmt.Errorf("acquire lock: take over: %w", err)
	}
	if ok {
		l.etag = etag
	}
	return ok, nil
}

// Release deletes the lock if this instance still holds it.
func (l *Lock) Release(ctx context.Context) error {
	if l.etag == "" {
		return nil
	}
	rc, _, err := l.client.Get(ctx, l.key)
	if errors.Is(err, ErrNotFound) {
		l.etag = ""
		return nil
	}
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}

	l.etag = ""
	if h, _ := expired(data, time.Now()); h.Owner != "" && h.Owner != l.owner {
		return nil
	}
	return l.client.Delete(ctx, l.key)
}
