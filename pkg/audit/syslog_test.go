package audit

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/OfekItzhaki/horizon-hcm/pkg/authz"
)

// testSocketPath returns a short, unique Unix socket path for testing.
// Unix socket paths have a 108-character limit.
func testSocketPath(suffix string) string {
	return fmt.Sprintf("/tmp/hcm_syslog_%d_%s.sock", os.Getpid(), suffix)
}

// listenDatagram starts a mock syslog receiver.
func listenDatagram(t *testing.T, socketPath string) *net.UnixConn {
	t.Helper()
	os.Remove(socketPath)
	addr := net.UnixAddr{Name: socketPath, Net: "unixgram"}
	conn, err := net.ListenUnixgram("unixgram", &addr)
	if err != nil {
		t.Fatalf("failed to create mock syslog listener: %v", err)
	}
	return conn
}

func readMessage(t *testing.T, conn net.Conn) string {
	t.Helper()
	buf := make([]byte, 4096)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("failed to read from mock socket: %v", err)
	}
	return string(buf[:n])
}

func denial(reason string) authz.AuditEntry {
	ts, _ := time.Parse(time.RFC3339Nano, "2026-02-04T15:30:00.000Z")
	return authz.AuditEntry{
		Timestamp:    ts,
		RequestID:    "req-001",
		UserID:       "usr_dana",
		Action:       authz.AuditActionAuthorizationFailed,
		ResourceType: "MaintenanceRequest",
		ResourceID:   "mr_42",
		Metadata:     authz.AuditMetadata{Reason: reason, Endpoint: "/api/v1/maintenance-requests/mr_42"},
	}
}

func TestSyslogSink_MessageDelivery(t *testing.T) {
	t.Log("Testing that Log delivers a valid RFC 5424 denial message to the socket")

	socketPath := testSocketPath("delivery")
	t.Cleanup(func() { os.Remove(socketPath) })
	conn := listenDatagram(t, socketPath)
	defer conn.Close()

	sink, err := NewSyslogSink(SyslogConfig{SocketPath: socketPath, Hostname: "api-1.local"})
	if err != nil {
		t.Fatalf("NewSyslogSink failed: %v", err)
	}
	defer sink.Close()

	if err := sink.Log(context.Background(), denial("not_resource_owner")); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	got := readMessage(t, conn)
	t.Logf("Received message: %s", got)

	want := `<132>1 2026-02-04T15:30:00.000Z api-1.local hcm - authorization.failed ` +
		`[hcm user_id="usr_dana" resource_type="MaintenanceRequest" resource_id="mr_42" ` +
		`reason="not_resource_owner" endpoint="/api/v1/maintenance-requests/mr_42" request_id="req-001"] ` +
		`Access denied: You do not own this resource`
	if got != want {
		t.Errorf("message mismatch\n got: %s\nwant: %s", got, want)
	}
}

func TestSyslogSink_OmitsEmptyRequestID(t *testing.T) {
	sink := &SyslogSink{hostname: "h", appName: "hcm", facility: FacilityLocal0}
	entry := denial("not_resource_owner")
	entry.RequestID = ""

	got := string(sink.Record(entry).Bytes())
	if strings.Contains(got, "request_id") {
		t.Errorf("request_id should be omitted: %s", got)
	}
}

func TestSyslogSink_ConcurrentWrites(t *testing.T) {
	t.Log("Testing concurrent Log calls each deliver exactly one datagram")

	socketPath := testSocketPath("concurrent")
	t.Cleanup(func() { os.Remove(socketPath) })
	conn := listenDatagram(t, socketPath)
	defer conn.Close()

	sink, err := NewSyslogSink(SyslogConfig{SocketPath: socketPath, Hostname: "h"})
	if err != nil {
		t.Fatalf("NewSyslogSink failed: %v", err)
	}
	defer sink.Close()

	const numWriters = 20
	var wg sync.WaitGroup
	for i := 0; i < numWriters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := denial("not_resource_owner")
			e.ResourceID = fmt.Sprintf("mr_%d", i)
			if err := sink.Log(context.Background(), e); err != nil {
				t.Errorf("writer %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	received := 0
	buf := make([]byte, 4096)
	for received < numWriters {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		n, err := conn.Read(buf)
		if err != nil {
			break
		}
		if !strings.HasPrefix(string(buf[:n]), "<132>1 ") {
			t.Errorf("interleaved or malformed message: %s", buf[:n])
		}
		received++
	}
	if received != numWriters {
		t.Errorf("expected %d messages, got %d", numWriters, received)
	}
}

func TestSyslogSink_UnavailableSocket(t *testing.T) {
	t.Log("Testing graceful handling when syslog socket doesn't exist")

	_, err := NewSyslogSink(SyslogConfig{SocketPath: "/tmp/nonexistent_hcm_syslog_socket"})
	if err == nil {
		t.Fatal("expected error when socket doesn't exist, got nil")
	}
	if !strings.Contains(err.Error(), "syslog connect") {
		t.Errorf("error should contain 'syslog connect', got: %v", err)
	}
}

func TestSyslogSink_StreamFallback(t *testing.T) {
	t.Log("Testing fallback from unixgram to unix stream socket")

	socketPath := testSocketPath("stream")
	t.Cleanup(func() { os.Remove(socketPath) })

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("failed to create stream listener: %v", err)
	}
	defer listener.Close()

	connCh := make(chan net.Conn, 1)
	go func() {
		c, err := listener.Accept()
		if err == nil {
			connCh <- c
		}
	}()

	sink, err := NewSyslogSink(SyslogConfig{SocketPath: socketPath, Hostname: "h"})
	if err != nil {
		t.Fatalf("NewSyslogSink failed with stream socket: %v", err)
	}
	defer sink.Close()

	if err := sink.Log(context.Background(), denial("not_resource_owner")); err != nil {
		t.Fatalf("Log failed on stream socket: %v", err)
	}

	select {
	case serverConn := <-connCh:
		defer serverConn.Close()
		got := readMessage(t, serverConn)
		if !strings.Contains(got, "authorization.failed") {
			t.Errorf("expected authorization.failed in stream message: %s", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for stream connection")
	}
}

func TestSyslogSink_ReconnectAndBackoff(t *testing.T) {
	t.Log("Testing reconnect after socket loss, gated by backoff")

	socketPath := testSocketPath("reconnect")
	t.Cleanup(func() { os.Remove(socketPath) })

	listener1 := listenDatagram(t, socketPath)
	sink, err := NewSyslogSink(SyslogConfig{SocketPath: socketPath, Hostname: "h"})
	if err != nil {
		listener1.Close()
		t.Fatalf("NewSyslogSink failed: %v", err)
	}
	defer sink.Close()

	if err := sink.Log(context.Background(), denial("phase1")); err != nil {
		t.Fatalf("phase 1 write failed: %v", err)
	}
	if got := readMessage(t, listener1); !strings.Contains(got, `reason="phase1"`) {
		t.Fatalf("phase 1 message mismatch: %s", got)
	}

	t.Log("Socket gone: first write fails and arms backoff")
	listener1.Close()
	os.Remove(socketPath)
	if err := sink.Log(context.Background(), denial("phase2")); err == nil {
		t.Fatal("expected error after socket death")
	}

	t.Log("Immediate retry is gated by backoff")
	err = sink.Log(context.Background(), denial("phase2b"))
	if err == nil || !strings.Contains(err.Error(), "backoff") {
		t.Fatalf("expected backoff error, got %v", err)
	}

	t.Log("Listener restarted: write reconnects after backoff")
	time.Sleep(150 * time.Millisecond)
	listener2 := listenDatagram(t, socketPath)
	defer listener2.Close()

	if err := sink.Log(context.Background(), denial("phase3")); err != nil {
		t.Fatalf("phase 3 write failed: %v", err)
	}
	if got := readMessage(t, listener2); !strings.Contains(got, `reason="phase3"`) {
		t.Fatalf("phase 3 message mismatch: %s", got)
	}
}

func TestSyslogSink_NilReceiverSafety(t *testing.T) {
	var w *SyslogSink
	if err := w.Log(context.Background(), denial("x")); err != nil {
		t.Errorf("Log on nil receiver returned error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close on nil receiver returned error: %v", err)
	}
}

func TestSyslogSink_InMultiAuditLogger(t *testing.T) {
	t.Log("Testing the sink composes with other audit loggers")

	socketPath := testSocketPath("multi")
	t.Cleanup(func() { os.Remove(socketPath) })
	conn := listenDatagram(t, socketPath)
	defer conn.Close()

	sink, err := NewSyslogSink(SyslogConfig{SocketPath: socketPath, Hostname: "h"})
	if err != nil {
		t.Fatalf("NewSyslogSink failed: %v", err)
	}
	defer sink.Close()

	multi := authz.NewMultiAuditLogger(authz.NopAuditLogger{}, sink)
	if err := multi.Log(context.Background(), denial("not_resource_owner")); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if got := readMessage(t, conn); !strings.Contains(got, "[hcm ") {
		t.Errorf("expected hcm structured data: %s", got)
	}
}
