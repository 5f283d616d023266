/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package wsdiscovery sends WS-Discovery probes for ONVIF network video
// transmitters and collects the device service addresses that answer.
package wsdiscovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/ipv4"

	"github.com/carverauto/discovery-handler/pkg/logger"
)

const (
	MulticastAddress = "239.255.255.250"
	MulticastPort    = 3702

	readBufferSize = 16 * 1024
	ioDeadline     = 200 * time.Millisecond
	urlBufferSize  = 16
)

// ListenFunc opens the socket a probe cycle sends from and reads replies on.
type ListenFunc func(ctx context.Context) (net.PacketConn, error)

// Client runs probe cycles.
type Client struct {
	logger    logger.Logger
	listen    ListenFunc
	groupAddr net.Addr
}

// Option configures a Client.
type Option func(*Client)

// WithListenFunc replaces the multicast socket, mostly for tests.
func WithListenFunc(fn ListenFunc) Option {
	return func(c *Client) {
		c.listen = fn
	}
}

// WithGroupAddr overrides the address probes are sent to.
func WithGroupAddr(addr net.Addr) Option {
	return func(c *Client) {
		c.groupAddr = addr
	}
}

// WithInterface joins the multicast group on the named interface instead of the default one.
func WithInterface(name string) Option {
	return func(c *Client) {
		c.listen = MulticastListener(name)
	}
}

func NewClient(log logger.Logger, opts ...Option) *Client {
	c := &Client{
		logger:    log,
		listen:    MulticastListener(""),
		groupAddr: &net.UDPAddr{IP: net.ParseIP(MulticastAddress), Port: MulticastPort},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MulticastListener binds an ephemeral UDP4 port and joins the WS-Discovery group.
// An empty interface name lets the kernel pick.
func MulticastListener(ifaceName string) ListenFunc {
	return func(ctx context.Context) (net.PacketConn, error) {
		var lc net.ListenConfig

		conn, err := lc.ListenPacket(ctx, "udp4", "0.0.0.0:0")
		if err != nil {
			return nil, fmt.Errorf("failed to bind probe socket: %w", err)
		}

		var ifi *net.Interface

		if ifaceName != "" {
			ifi, err = net.InterfaceByName(ifaceName)
			if err != nil {
				_ = conn.Close()

				return nil, fmt.Errorf("%w: interface %s: %w", errJoinGroup, ifaceName, err)
			}
		}

		group := &net.UDPAddr{IP: net.ParseIP(MulticastAddress)}
		if err := ipv4.NewPacketConn(conn).JoinGroup(ifi, group); err != nil {
			_ = conn.Close()

			return nil, fmt.Errorf("%w: %w", errJoinGroup, err)
		}

		return conn, nil
	}
}

// Stream runs one probe cycle until ctx is done. Device service URLs are
// delivered in arrival order. Both channels are closed when the cycle ends;
// at most one error is delivered.
func (c *Client) Stream(ctx context.Context) (urls <-chan string, errs <-chan error) {
	urlCh := make(chan string, urlBufferSize)
	errCh := make(chan error, 1)

	go func() {
		defer close(urlCh)
		defer close(errCh)

		if err := c.run(ctx, urlCh); err != nil {
			errCh <- err
		}
	}()

	return urlCh, errCh
}

func (c *Client) run(ctx context.Context, out chan<- string) error {
	messageID := "uuid:" + uuid.New().String()

	probe, err := BuildProbe(messageID)
	if err != nil {
		return err
	}

	conn, err := c.listen(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetWriteDeadline(time.Now().Add(ioDeadline)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if _, err := conn.WriteTo(probe, c.groupAddr); err != nil {
		if isTimeout(err) {
			c.logger.Debug().Str("message_id", messageID).Msg("Probe send timed out, no responders")

			return nil
		}

		return fmt.Errorf("failed to send probe: %w", err)
	}

	c.logger.Debug().Str("message_id", messageID).Msg("Sent WS-Discovery probe")

	buf := make([]byte, readBufferSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := conn.SetReadDeadline(time.Now().Add(ioDeadline)); err != nil {
			return fmt.Errorf("failed to set read deadline: %w", err)
		}

		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}

			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to read probe reply: %w", err)
		}

		addrs, err := ParseProbeMatches(buf[:n])
		if err != nil {
			c.logger.Warn().Err(err).Str("from", addrString(from)).Msg("Skipping unparseable probe reply")

			continue
		}

		for _, addr := range addrs {
			select {
			case out <- addr:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// Probe runs a cycle for timeout and returns the distinct URLs in first-seen order.
func (c *Client) Probe(ctx context.Context, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	urls, errs := c.Stream(ctx)

	seen := make(map[string]struct{})

	var result []string

	for u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}

		seen[u] = struct{}{}
		result = append(result, u)
	}

	if err := <-errs; err != nil {
		return result, err
	}

	c.logger.Debug().Int("count", len(result)).Strs("urls", result).Msg("WS-Discovery probe finished")

	return result, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var ne net.Error

	return errors.As(err, &ne) && ne.Timeout()
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}

	return a.String()
}
