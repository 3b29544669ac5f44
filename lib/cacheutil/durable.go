package cacheutil

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/cacheutil")

// Producer fetches the value for a key, usually over the network.
type Producer func(ctx context.Context, key string) (string, error)

const versionMarker = "#v1"

var keyReplacer = strings.NewReplacer("=", "", "\n", "", "\r", "")
var valueReplacer = strings.NewReplacer("\n", "", "\r", "")

// Durable is an append-only on-disk string cache. each entry is one
// `key=value` line in the backing file, the in-memory map is a replay of the
// file with last-write-wins per key. the backing file is assumed
// single-writer (one process).
type Durable struct {
	path     string
	producer Producer

	mu      sync.Mutex
	entries map[string]string
	file    *os.File
}

// NewDurable creates a durable cache backed by the file at path. the file
// and its parent directories are created lazily on first use.
func NewDurable(path string, producer Producer) *Durable {
	return &Durable{
		path:     path,
		producer: producer,
	}
}

// caller must hold d.mu
func (d *Durable) load() error {
	if d.entries != nil {
		return nil
	}

	err := os.MkdirAll(filepath.Dir(d.path), 0755)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(d.path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	entries := map[string]string{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineno := 0
	empty := true
	for scanner.Scan() {
		lineno++
		empty = false
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			file.Close()
			return fmt.Errorf("malformed cache line %d in %s", lineno, d.path)
		}
		// the value may itself have contained '=', everything after the
		// first one belongs to it
		entries[line[:idx]] = line[idx+1:]
	}
	if err := scanner.Err(); err != nil {
		file.Close()
		return err
	}

	if empty {
		_, err = file.WriteString(versionMarker + "\n")
		if err != nil {
			file.Close()
			return err
		}
	}

	d.entries = entries
	d.file = file
	return nil
}

// Get returns the cached value for key, fetching and persisting it through
// the producer on a miss.
func (d *Durable) Get(ctx context.Context, key string) (string, error) {
	ctx, span := tracer.Start(ctx, "durable:Get")
	defer span.End()

	key = keyReplacer.Replace(key)
	span.SetAttributes(attribute.String("cache_key", key))

	d.mu.Lock()
	err := d.load()
	if err != nil {
		d.mu.Unlock()
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load cache file")
		return "", err
	}
	value, ok := d.entries[key]
	d.mu.Unlock()

	if ok {
		span.AddEvent("cache hit")
		return value, nil
	}
	return d.GetFresh(ctx, key)
}

// GetFresh always invokes the producer and overwrites the cached value,
// persisting the result. a producer error is never cached or written.
func (d *Durable) GetFresh(ctx context.Context, key string) (string, error) {
	ctx, span := tracer.Start(ctx, "durable:GetFresh")
	defer span.End()

	key = keyReplacer.Replace(key)
	span.SetAttributes(attribute.String("cache_key", key))

	d.mu.Lock()
	err := d.load()
	d.mu.Unlock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load cache file")
		return "", err
	}

	// the producer runs outside the lock so independent keys fetch in
	// parallel, append order on disk is completion order
	value, err := d.producer(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "producer failed")
		return "", err
	}
	value = valueReplacer.Replace(value)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[key] = value
	// one write call per line, a crash mid-run loses at most the entries
	// not yet appended
	_, err = d.file.WriteString(key + "=" + value + "\n")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to append cache line")
		return "", err
	}
	return value, nil
}

// Keys returns every key known to the cache.
func (d *Durable) Keys() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

// Destroy deletes the backing file and forgets all in-memory entries. this
// is not recoverable and must only run as an explicit operator action.
func (d *Durable) Destroy() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.file != nil {
		err := d.file.Close()
		if err != nil {
			return err
		}
		d.file = nil
	}
	d.entries = nil

	err := os.Remove(d.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
