package audit

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/OfekItzhaki/horizon-hcm/pkg/authz"
)

const (
	reconnectBackoffInit = 100 * time.Millisecond
	reconnectBackoffMax  = 30 * time.Second
)

// sdID is the structured data element ID for every message this package writes.
const sdID = "hcm"

// SyslogSink writes authorization denials to the local syslog daemon as
// RFC 5424 messages with structured data. It implements authz.AuditLogger
// and is usually combined with the database logger via authz.MultiAuditLogger.
//
// On write failure the sink reconnects with exponential backoff
// (100ms initial, 30s cap).
type SyslogSink struct {
	conn       net.Conn
	hostname   string
	appName    string
	facility   Facility
	socketPath string

	mu              sync.Mutex
	backoff         time.Duration
	lastReconnectAt time.Time
}

var _ authz.AuditLogger = (*SyslogSink)(nil)

// SyslogConfig holds configuration for the syslog sink.
type SyslogConfig struct {
	SocketPath string   // Default: "/dev/log"
	Hostname   string   // Default: os.Hostname()
	AppName    string   // Default: "hcm"
	Facility   Facility // Default: FacilityLocal0
}

// NewSyslogSink connects to the syslog socket. Returns an error if it is
// unavailable; callers fall back to database-only audit.
func NewSyslogSink(cfg SyslogConfig) (*SyslogSink, error) {
	if cfg.SocketPath == "" {
		cfg.SocketPath = "/dev/log"
	}
	if cfg.Hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			cfg.Hostname = "unknown"
		} else {
			cfg.Hostname = h
		}
	}
	if cfg.AppName == "" {
		cfg.AppName = "hcm"
	}
	if cfg.Facility == 0 {
		cfg.Facility = FacilityLocal0
	}

	conn, err := dialSyslog(cfg.SocketPath)
	if err != nil {
		return nil, fmt.Errorf("syslog connect: %w", err)
	}

	return &SyslogSink{
		conn:       conn,
		hostname:   cfg.Hostname,
		appName:    cfg.AppName,
		facility:   cfg.Facility,
		socketPath: cfg.SocketPath,
	}, nil
}

// Record builds the syslog record for a denial entry.
func (w *SyslogSink) Record(entry authz.AuditEntry) Record {
	params := []Param{
		{Name: "user_id", Value: entry.UserID},
		{Name: "resource_type", Value: entry.ResourceType},
		{Name: "resource_id", Value: entry.ResourceID},
		{Name: "reason", Value: entry.Metadata.Reason},
		{Name: "endpoint", Value: entry.Metadata.Endpoint},
	}
	if entry.RequestID != "" {
		params = append(params, Param{Name: "request_id", Value: entry.RequestID})
	}

	return Record{
		Facility: w.facility,
		Time:     entry.Timestamp,
		Host:     w.hostname,
		App:      w.appName,
		MsgID:    entry.Action,
		Params:   params,
		Text:     authz.AccessDeniedMessage,
	}
}

// Log writes the entry to the syslog socket. Safe on a nil receiver.
func (w *SyslogSink) Log(_ context.Context, entry authz.AuditEntry) error {
	if w == nil {
		return nil
	}
	return w.writeOrReconnect(w.Record(entry).Bytes())
}

// writeOrReconnect writes data to the syslog socket. On failure it attempts
// one reconnect (subject to backoff) and retries the write.
func (w *SyslogSink) writeOrReconnect(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.conn.Write(data)
	if err == nil {
		w.backoff = 0
		return nil
	}

	if reconnErr := w.reconnectLocked(); reconnErr != nil {
		return fmt.Errorf("syslog write failed (%v), reconnect failed: %w", err, reconnErr)
	}

	_, err = w.conn.Write(data)
	if err == nil {
		w.backoff = 0
	}
	return err
}

// reconnectLocked closes the dead connection and dials a new one.
// Must be called with w.mu held.
func (w *SyslogSink) reconnectLocked() error {
	if w.backoff > 0 && time.Since(w.lastReconnectAt) < w.backoff {
		return fmt.Errorf("syslog reconnect backoff: retry in %v", w.backoff-time.Since(w.lastReconnectAt))
	}

	w.conn.Close()

	conn, err := dialSyslog(w.socketPath)
	if err != nil {
		w.lastReconnectAt = time.Now()
		if w.backoff == 0 {
			w.backoff = reconnectBackoffInit
		} else {
			w.backoff *= 2
			if w.backoff > reconnectBackoffMax {
				w.backoff = reconnectBackoffMax
			}
		}
		return fmt.Errorf("syslog reconnect: %w", err)
	}

	w.conn = conn
	w.backoff = 0
	w.lastReconnectAt = time.Time{}
	return nil
}

// Close closes the syslog socket connection. Safe on a nil receiver.
func (w *SyslogSink) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.Close()
}

// dialSyslog tries unixgram first and falls back to unix stream sockets.
func dialSyslog(socketPath string) (net.Conn, error) {
	conn, err := net.Dial("unixgram", socketPath)
	if err == nil {
		return conn, nil
	}
	return net.Dial("unix", socketPath)
}
